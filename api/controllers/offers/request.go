package offers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	offersvc "github.com/angelmondragon/wholesale-offers/internal/offers"
	"github.com/angelmondragon/wholesale-offers/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-offers/pkg/errors"
)

type cartLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice *string   `json:"unit_price,omitempty" validate:"omitempty,decimal"`
}

type cartRequest struct {
	Lines []cartLineRequest `json:"lines" validate:"dive"`
}

type scopeRequest struct {
	Products    []uuid.UUID `json:"products"`
	Categories  []string    `json:"categories" validate:"dive,max=200"`
	Collections []string    `json:"collections" validate:"dive,max=200"`
}

type offerRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	OfferType   string  `json:"offer_type" validate:"required,oneof=percent_off amount_off free_item"`

	Percent           *string    `json:"percent,omitempty" validate:"omitempty,decimal"`
	Amount            *string    `json:"amount,omitempty" validate:"omitempty,decimal"`
	FreeItemProductID *uuid.UUID `json:"free_item_product_id,omitempty"`
	FreeItemQty       *int       `json:"free_item_qty,omitempty"`

	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`

	MinQuantity     int     `json:"min_quantity" validate:"gte=0"`
	MinOrderAmount  *string `json:"min_order_amount,omitempty" validate:"omitempty,decimal"`
	AppliesToAnyQty bool    `json:"applies_to_any_qty"`

	MaxPerUser          *int `json:"max_per_user,omitempty"`
	MaxTotalRedemptions *int `json:"max_total_redemptions,omitempty"`

	IsStackable bool  `json:"is_stackable"`
	Priority    int   `json:"priority"`
	IsActive    *bool `json:"is_active,omitempty"`

	Scope *scopeRequest `json:"scope,omitempty"`
}

func toCartLines(payload cartRequest) ([]offersvc.CartLineInput, error) {
	lines := make([]offersvc.CartLineInput, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		price, err := parseDecimal("unit_price", line.UnitPrice)
		if err != nil {
			return nil, err
		}
		lines = append(lines, offersvc.CartLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: price,
		})
	}
	return lines, nil
}

func (r offerRequest) toInput() (offersvc.OfferInput, error) {
	offerType, err := enums.ParseOfferType(strings.TrimSpace(r.OfferType))
	if err != nil {
		return offersvc.OfferInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid offer_type")
	}

	percent, err := parseDecimal("percent", r.Percent)
	if err != nil {
		return offersvc.OfferInput{}, err
	}
	amount, err := parseDecimal("amount", r.Amount)
	if err != nil {
		return offersvc.OfferInput{}, err
	}
	minOrder, err := parseDecimal("min_order_amount", r.MinOrderAmount)
	if err != nil {
		return offersvc.OfferInput{}, err
	}

	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}

	input := offersvc.OfferInput{
		Name:                r.Name,
		Description:         r.Description,
		Type:                offerType,
		Percent:             percent,
		Amount:              amount,
		FreeItemProductID:   r.FreeItemProductID,
		FreeItemQty:         r.FreeItemQty,
		StartsAt:            r.StartsAt,
		EndsAt:              r.EndsAt,
		MinQuantity:         r.MinQuantity,
		MinOrderAmount:      minOrder,
		AppliesToAnyQty:     r.AppliesToAnyQty,
		MaxPerUser:          r.MaxPerUser,
		MaxTotalRedemptions: r.MaxTotalRedemptions,
		IsStackable:         r.IsStackable,
		Priority:            r.Priority,
		IsActive:            active,
	}
	if r.Scope != nil {
		scope := r.Scope.toInput()
		input.Scope = &scope
	}
	return input, nil
}

func (r scopeRequest) toInput() offersvc.ScopeInput {
	return offersvc.ScopeInput{
		Products:    r.Products,
		Categories:  r.Categories,
		Collections: r.Collections,
	}
}

// parseDecimal converts an optional decimal string.
func parseDecimal(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid decimal").
			WithDetails(map[string]string{field: "must be a decimal number"})
	}
	return &value, nil
}
