package offers

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-offers/pkg/enums"
)

// Reward is the closed set of offer payloads. Only PercentOff, AmountOff and
// FreeItem implement it.
type Reward interface {
	Type() enums.OfferType
	isReward()
}

// PercentOff discounts the applicable subset by Percent (0..100].
type PercentOff struct {
	Percent decimal.Decimal
}

// AmountOff is a single flat deduction, independent of the applicable subset's value.
type AmountOff struct {
	Amount decimal.Decimal
}

// FreeItem grants Quantity units of ProductID per MinQuantity qualifying units.
type FreeItem struct {
	ProductID uuid.UUID
	Quantity  int
}

func (PercentOff) Type() enums.OfferType { return enums.OfferTypePercentOff }
func (AmountOff) Type() enums.OfferType  { return enums.OfferTypeAmountOff }
func (FreeItem) Type() enums.OfferType   { return enums.OfferTypeFreeItem }

func (PercentOff) isReward() {}
func (AmountOff) isReward()  {}
func (FreeItem) isReward()   {}

// Offer is a promotional rule as seen by the engine.
type Offer struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Reward      Reward

	StartsAt *time.Time
	EndsAt   *time.Time

	MinQuantity     int
	MinOrderAmount  *decimal.Decimal
	AppliesToAnyQty bool

	// Declared for reporting only; the engine never consults redemption counts.
	MaxPerUser          *int
	MaxTotalRedemptions *int

	IsStackable bool
	Priority    int
	IsActive    bool

	Scope Scope

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Type returns the reward discriminator, or "" when no reward is set.
func (o Offer) Type() enums.OfferType {
	if o.Reward == nil {
		return ""
	}
	return o.Reward.Type()
}

// StringSet is an unordered set of labels or ids.
type StringSet map[string]struct{}

// NewStringSet builds a set from values, dropping blanks and surrounding whitespace.
func NewStringSet(values ...string) StringSet {
	set := make(StringSet, len(values))
	for _, v := range values {
		set.Add(v)
	}
	return set
}

func (s StringSet) Add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	s[value] = struct{}{}
}

func (s StringSet) Has(value string) bool {
	if value == "" {
		return false
	}
	_, ok := s[value]
	return ok
}

// Intersects reports whether the sets share at least one member.
func (s StringSet) Intersects(other StringSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for v := range small {
		if _, ok := large[v]; ok {
			return true
		}
	}
	return false
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Scope is the three independent membership sets an offer can target.
// Product ids are stored in their canonical uuid string form.
type Scope struct {
	Products    StringSet
	Categories  StringSet
	Collections StringSet
}

// IsEmpty reports whether the scope targets nothing at all.
func (s Scope) IsEmpty() bool {
	return len(s.Products) == 0 && len(s.Categories) == 0 && len(s.Collections) == 0
}

// Covers reports whether a product with the given attributes falls inside the scope.
func (s Scope) Covers(productID uuid.UUID, category, collection string) bool {
	return s.Products.Has(productID.String()) ||
		s.Categories.Has(category) ||
		s.Collections.Has(collection)
}

// CartLine is a single engine input row.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal is UnitPrice × Quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ResolvedLine is a cart line joined with its product's catalog labels.
type ResolvedLine struct {
	CartLine
	Category   string
	Collection string
}

// ItemContext is the single-product lookup used by catalog badges. Any subset
// of the fields may be supplied.
type ItemContext struct {
	ProductID  *uuid.UUID
	Category   string
	Collection string
}

// FreeItemGrant is a quantity of a product awarded at no charge.
type FreeItemGrant struct {
	ProductID uuid.UUID
	Quantity  int
}

// AppliedOffer is one offer's contribution to a cart calculation.
type AppliedOffer struct {
	OfferID   uuid.UUID
	OfferName string
	Type      enums.OfferType
	Discount  decimal.Decimal
	FreeItems []FreeItemGrant
}

// CalculationResult is the engine output for a cart.
type CalculationResult struct {
	AppliedOffers  []AppliedOffer
	TotalDiscount  decimal.Decimal
	OriginalAmount decimal.Decimal
	FinalAmount    decimal.Decimal
	FreeItems      []FreeItemGrant
}
