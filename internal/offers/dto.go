package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-offers/pkg/enums"
)

// ScopeDTO lists scope members in sorted order.
type ScopeDTO struct {
	Products    []string `json:"products"`
	Categories  []string `json:"categories"`
	Collections []string `json:"collections"`
}

// OfferDTO is the API representation of an offer. Monetary values and
// percentages are fixed-point strings.
type OfferDTO struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	Description         *string         `json:"description,omitempty"`
	Type                enums.OfferType `json:"offer_type"`
	Percent             *string         `json:"percent,omitempty"`
	Amount              *string         `json:"amount,omitempty"`
	FreeItemProductID   *uuid.UUID      `json:"free_item_product_id,omitempty"`
	FreeItemQty         *int            `json:"free_item_qty,omitempty"`
	StartsAt            *time.Time      `json:"starts_at,omitempty"`
	EndsAt              *time.Time      `json:"ends_at,omitempty"`
	MinQuantity         int             `json:"min_quantity"`
	MinOrderAmount      *string         `json:"min_order_amount,omitempty"`
	AppliesToAnyQty     bool            `json:"applies_to_any_qty"`
	MaxPerUser          *int            `json:"max_per_user,omitempty"`
	MaxTotalRedemptions *int            `json:"max_total_redemptions,omitempty"`
	IsStackable         bool            `json:"is_stackable"`
	Priority            int             `json:"priority"`
	IsActive            bool            `json:"is_active"`
	Scope               ScopeDTO        `json:"scope"`
	CreatedAt           *time.Time      `json:"created_at,omitempty"`
	UpdatedAt           *time.Time      `json:"updated_at,omitempty"`
}

// FreeItemDTO is a free-item grant.
type FreeItemDTO struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// AppliedOfferDTO is one applied offer in a cart calculation.
type AppliedOfferDTO struct {
	OfferID   uuid.UUID       `json:"offer_id"`
	OfferName string          `json:"offer_name"`
	Type      enums.OfferType `json:"type"`
	Discount  string          `json:"discount"`
	FreeItems []FreeItemDTO   `json:"free_items,omitempty"`
}

// CalculationDTO is the cart calculation response.
type CalculationDTO struct {
	AppliedOffers  []AppliedOfferDTO `json:"applied_offers"`
	TotalDiscount  string            `json:"total_discount"`
	OriginalAmount string            `json:"original_amount"`
	FinalAmount    string            `json:"final_amount"`
	FreeItems      []FreeItemDTO     `json:"free_items"`
}

// NewOfferDTO maps a domain offer to its API shape.
func NewOfferDTO(o Offer) OfferDTO {
	dto := OfferDTO{
		ID:                  o.ID,
		Name:                o.Name,
		Description:         o.Description,
		Type:                o.Type(),
		StartsAt:            o.StartsAt,
		EndsAt:              o.EndsAt,
		MinQuantity:         o.MinQuantity,
		MinOrderAmount:      fixedOptional(o.MinOrderAmount, moneyPlaces),
		AppliesToAnyQty:     o.AppliesToAnyQty,
		MaxPerUser:          o.MaxPerUser,
		MaxTotalRedemptions: o.MaxTotalRedemptions,
		IsStackable:         o.IsStackable,
		Priority:            o.Priority,
		IsActive:            o.IsActive,
		Scope: ScopeDTO{
			Products:    o.Scope.Products.Sorted(),
			Categories:  o.Scope.Categories.Sorted(),
			Collections: o.Scope.Collections.Sorted(),
		},
	}
	if !o.CreatedAt.IsZero() {
		created := o.CreatedAt.UTC()
		dto.CreatedAt = &created
	}
	if !o.UpdatedAt.IsZero() {
		updated := o.UpdatedAt.UTC()
		dto.UpdatedAt = &updated
	}

	switch reward := o.Reward.(type) {
	case PercentOff:
		dto.Percent = fixedOptional(&reward.Percent, percentPlaces)
	case AmountOff:
		dto.Amount = fixedOptional(&reward.Amount, moneyPlaces)
	case FreeItem:
		productID := reward.ProductID
		qty := reward.Quantity
		dto.FreeItemProductID = &productID
		dto.FreeItemQty = &qty
	}
	return dto
}

// NewOfferDTOs maps a list, never returning nil.
func NewOfferDTOs(offers []Offer) []OfferDTO {
	out := make([]OfferDTO, 0, len(offers))
	for _, o := range offers {
		out = append(out, NewOfferDTO(o))
	}
	return out
}

// OfferListDTO is one page of the admin listing.
type OfferListDTO struct {
	Offers     []OfferDTO `json:"offers"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// NewOfferListDTO maps a listing page.
func NewOfferListDTO(page OfferPage) OfferListDTO {
	return OfferListDTO{Offers: NewOfferDTOs(page.Offers), NextCursor: page.NextCursor}
}

// NewCalculationDTO renders a calculation with amounts fixed to places decimals.
func NewCalculationDTO(result CalculationResult, places int32) CalculationDTO {
	dto := CalculationDTO{
		AppliedOffers:  make([]AppliedOfferDTO, 0, len(result.AppliedOffers)),
		TotalDiscount:  result.TotalDiscount.StringFixed(places),
		OriginalAmount: result.OriginalAmount.StringFixed(places),
		FinalAmount:    result.FinalAmount.StringFixed(places),
		FreeItems:      freeItemDTOs(result.FreeItems),
	}
	for _, applied := range result.AppliedOffers {
		entry := AppliedOfferDTO{
			OfferID:   applied.OfferID,
			OfferName: applied.OfferName,
			Type:      applied.Type,
			Discount:  applied.Discount.StringFixed(places),
		}
		if len(applied.FreeItems) > 0 {
			entry.FreeItems = freeItemDTOs(applied.FreeItems)
		}
		dto.AppliedOffers = append(dto.AppliedOffers, entry)
	}
	return dto
}

func freeItemDTOs(grants []FreeItemGrant) []FreeItemDTO {
	out := make([]FreeItemDTO, 0, len(grants))
	for _, g := range grants {
		out = append(out, FreeItemDTO{ProductID: g.ProductID, Quantity: g.Quantity})
	}
	return out
}

func fixedOptional(value *decimal.Decimal, places int32) *string {
	if value == nil {
		return nil
	}
	s := value.StringFixed(places)
	return &s
}
