package offers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/wholesale-offers/pkg/enums"
	pkgerrors "github.com/angelmondragon/wholesale-offers/pkg/errors"
)

// OfferInput is the validated-on-build authoring payload for create and update.
type OfferInput struct {
	Name        string
	Description *string
	Type        enums.OfferType

	Percent           *decimal.Decimal
	Amount            *decimal.Decimal
	FreeItemProductID *uuid.UUID
	FreeItemQty       *int

	StartsAt *time.Time
	EndsAt   *time.Time

	MinQuantity     int
	MinOrderAmount  *decimal.Decimal
	AppliesToAnyQty bool

	MaxPerUser          *int
	MaxTotalRedemptions *int

	IsStackable bool
	Priority    int
	IsActive    bool

	// Scope is required on create. On update a nil Scope keeps the stored set,
	// a non-nil Scope replaces it entirely.
	Scope *ScopeInput
}

// ScopeInput lists the raw scope members supplied by an administrator.
type ScopeInput struct {
	Products    []uuid.UUID
	Categories  []string
	Collections []string
}

// ToScope de-duplicates and trims the members into sets.
func (s ScopeInput) ToScope() Scope {
	products := make(StringSet, len(s.Products))
	for _, id := range s.Products {
		if id != uuid.Nil {
			products.Add(id.String())
		}
	}
	return Scope{
		Products:    products,
		Categories:  NewStringSet(s.Categories...),
		Collections: NewStringSet(s.Collections...),
	}
}

const (
	moneyPlaces   int32 = 2
	percentPlaces int32 = 2

	// MaxQuantity bounds cart line quantities and free-item grants so cart
	// totals and grant products stay well inside int.
	MaxQuantity = 1_000_000
)

var maxPercent = decimal.NewFromInt(100)

type fieldError struct {
	field   string
	message string
}

func (e fieldError) Error() string {
	return fmt.Sprintf("%s %s", e.field, e.message)
}

func invalid(field, message string) error {
	return fieldError{field: field, message: message}
}

// BuildOffer validates the input and produces the offer it describes. id may be
// uuid.Nil for offers that have not been persisted yet.
func BuildOffer(id uuid.UUID, input OfferInput) (Offer, error) {
	var errs error

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs = multierr.Append(errs, invalid("name", "is required"))
	}

	reward, err := buildReward(input)
	errs = multierr.Append(errs, err)

	if input.StartsAt != nil && input.EndsAt != nil && input.StartsAt.After(*input.EndsAt) {
		errs = multierr.Append(errs, invalid("ends_at", "must not be before starts_at"))
	}
	if input.MinQuantity < 0 {
		errs = multierr.Append(errs, invalid("min_quantity", "must be at least 0"))
	}
	if input.Type == enums.OfferTypeFreeItem && input.MinQuantity < 1 {
		errs = multierr.Append(errs, invalid("min_quantity", "must be at least 1 for free_item offers"))
	}
	if input.MinOrderAmount != nil {
		errs = multierr.Append(errs, checkMoney("min_order_amount", *input.MinOrderAmount, true))
	}
	if input.MaxPerUser != nil && *input.MaxPerUser < 1 {
		errs = multierr.Append(errs, invalid("max_per_user", "must be at least 1"))
	}
	if input.MaxTotalRedemptions != nil && *input.MaxTotalRedemptions < 1 {
		errs = multierr.Append(errs, invalid("max_total_redemptions", "must be at least 1"))
	}

	if errs != nil {
		return Offer{}, validationError(errs)
	}

	offer := Offer{
		ID:                  id,
		Name:                name,
		Description:         trimOptional(input.Description),
		Reward:              reward,
		StartsAt:            utcOptional(input.StartsAt),
		EndsAt:              utcOptional(input.EndsAt),
		MinQuantity:         input.MinQuantity,
		MinOrderAmount:      input.MinOrderAmount,
		AppliesToAnyQty:     input.AppliesToAnyQty,
		MaxPerUser:          input.MaxPerUser,
		MaxTotalRedemptions: input.MaxTotalRedemptions,
		IsStackable:         input.IsStackable,
		Priority:            input.Priority,
		IsActive:            input.IsActive,
	}
	if input.Scope != nil {
		offer.Scope = input.Scope.ToScope()
	}
	return offer, nil
}

func buildReward(input OfferInput) (Reward, error) {
	var errs error
	switch input.Type {
	case enums.OfferTypePercentOff:
		if input.Percent == nil {
			return nil, invalid("percent", "is required for percent_off offers")
		}
		p := *input.Percent
		if !p.IsPositive() {
			errs = multierr.Append(errs, invalid("percent", "must be greater than 0"))
		} else if p.GreaterThan(maxPercent) {
			errs = multierr.Append(errs, invalid("percent", "must be at most 100"))
		} else if !p.Equal(p.Round(percentPlaces)) {
			errs = multierr.Append(errs, invalid("percent", "must have at most 2 decimal places"))
		}
		errs = multierr.Append(errs, rejectForeignPayload(input, "amount", "free_item_product_id", "free_item_qty"))
		if errs != nil {
			return nil, errs
		}
		return PercentOff{Percent: p}, nil

	case enums.OfferTypeAmountOff:
		if input.Amount == nil {
			return nil, invalid("amount", "is required for amount_off offers")
		}
		errs = multierr.Append(errs, checkMoney("amount", *input.Amount, false))
		errs = multierr.Append(errs, rejectForeignPayload(input, "percent", "free_item_product_id", "free_item_qty"))
		if errs != nil {
			return nil, errs
		}
		return AmountOff{Amount: *input.Amount}, nil

	case enums.OfferTypeFreeItem:
		if input.FreeItemProductID == nil || *input.FreeItemProductID == uuid.Nil {
			errs = multierr.Append(errs, invalid("free_item_product_id", "is required for free_item offers"))
		}
		qty := 1
		if input.FreeItemQty != nil {
			qty = *input.FreeItemQty
		}
		if qty < 1 {
			errs = multierr.Append(errs, invalid("free_item_qty", "must be at least 1"))
		} else if qty > MaxQuantity {
			errs = multierr.Append(errs, invalid("free_item_qty", fmt.Sprintf("must be at most %d", MaxQuantity)))
		}
		errs = multierr.Append(errs, rejectForeignPayload(input, "percent", "amount"))
		if errs != nil {
			return nil, errs
		}
		return FreeItem{ProductID: *input.FreeItemProductID, Quantity: qty}, nil

	default:
		return nil, invalid("offer_type", "must be one of percent_off, amount_off, free_item")
	}
}

// rejectForeignPayload flags payload fields that belong to another offer type.
func rejectForeignPayload(input OfferInput, fields ...string) error {
	var errs error
	for _, field := range fields {
		var present bool
		switch field {
		case "percent":
			present = input.Percent != nil
		case "amount":
			present = input.Amount != nil
		case "free_item_product_id":
			present = input.FreeItemProductID != nil
		case "free_item_qty":
			present = input.FreeItemQty != nil
		}
		if present {
			errs = multierr.Append(errs, invalid(field, fmt.Sprintf("must be empty for %s offers", input.Type)))
		}
	}
	return errs
}

func checkMoney(field string, amount decimal.Decimal, allowZero bool) error {
	switch {
	case amount.IsNegative():
		return invalid(field, "must not be negative")
	case !allowZero && amount.IsZero():
		return invalid(field, "must be greater than 0")
	case !amount.Equal(amount.Round(moneyPlaces)):
		return invalid(field, "must have at most 2 decimal places")
	}
	return nil
}

// validationError folds the collected field errors into a single typed error
// whose details map each field to its messages.
func validationError(errs error) error {
	details := map[string]string{}
	for _, err := range multierr.Errors(errs) {
		fe, ok := err.(fieldError)
		if !ok {
			details["offer"] = err.Error()
			continue
		}
		if prev, exists := details[fe.field]; exists {
			details[fe.field] = prev + "; " + fe.message
			continue
		}
		details[fe.field] = fe.message
	}

	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	return pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid offer: "+strings.Join(fields, ", ")).WithDetails(details)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func utcOptional(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
