package offers

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultRoundingPlaces rounds discounts to cents.
const DefaultRoundingPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// Calculator decides which eligible offers apply to a cart and what each one
// is worth. It holds no state between calls.
type Calculator struct {
	places int32
}

// NewCalculator builds a calculator that rounds each offer's discount
// half away from zero to the given number of decimal places.
func NewCalculator(places int32) Calculator {
	if places < 0 {
		places = DefaultRoundingPlaces
	}
	return Calculator{places: places}
}

// SortByPriority orders offers by priority descending, then by id ascending so
// equal priorities evaluate in a stable, reproducible order.
func SortByPriority(candidates []Offer) []Offer {
	sorted := make([]Offer, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted
}

// Apply runs the single-pass stacking evaluation over the candidates.
//
// A non-stackable offer that produces a benefit is dropped if anything was
// applied before it; once a non-stackable offer is applied nothing after it is
// considered.
func (c Calculator) Apply(lines []ResolvedLine, candidates []Offer) CalculationResult {
	result := CalculationResult{
		AppliedOffers:  []AppliedOffer{},
		TotalDiscount:  decimal.Zero,
		OriginalAmount: decimal.Zero,
		FinalAmount:    decimal.Zero,
		FreeItems:      []FreeItemGrant{},
	}

	totalQty := 0
	for _, line := range lines {
		result.OriginalAmount = result.OriginalAmount.Add(line.Subtotal())
		totalQty += line.Quantity
	}

	for _, o := range SortByPriority(candidates) {
		if !passesGates(o, totalQty, result.OriginalAmount) {
			continue
		}
		applicable := applicableSubset(o, lines)
		if len(applicable) == 0 {
			continue
		}

		applied, ok := c.evaluate(o, applicable)
		if !ok {
			continue
		}

		if len(result.AppliedOffers) > 0 && !o.IsStackable {
			break
		}

		result.AppliedOffers = append(result.AppliedOffers, applied)
		result.TotalDiscount = result.TotalDiscount.Add(applied.Discount)
		result.FreeItems = append(result.FreeItems, applied.FreeItems...)

		if !o.IsStackable {
			break
		}
	}

	result.FinalAmount = decimal.Max(decimal.Zero, result.OriginalAmount.Sub(result.TotalDiscount))
	return result
}

// passesGates checks the cart-wide thresholds. Quantity is counted across the
// whole cart, not only the scoped lines.
func passesGates(o Offer, totalQty int, originalAmount decimal.Decimal) bool {
	if o.MinQuantity > 0 && totalQty < o.MinQuantity {
		return false
	}
	if o.MinOrderAmount != nil && originalAmount.LessThan(*o.MinOrderAmount) {
		return false
	}
	return true
}

func applicableSubset(o Offer, lines []ResolvedLine) []ResolvedLine {
	var subset []ResolvedLine
	for _, line := range lines {
		if o.Scope.Covers(line.ProductID, line.Category, line.Collection) {
			subset = append(subset, line)
		}
	}
	return subset
}

// evaluate computes the offer's discount and grants over the applicable
// subset. ok is false when the offer yields nothing or its payload cannot be
// evaluated.
func (c Calculator) evaluate(o Offer, applicable []ResolvedLine) (AppliedOffer, bool) {
	applied := AppliedOffer{
		OfferID:   o.ID,
		OfferName: o.Name,
		Type:      o.Type(),
		Discount:  decimal.Zero,
	}

	switch reward := o.Reward.(type) {
	case PercentOff:
		subtotal := decimal.Zero
		for _, line := range applicable {
			subtotal = subtotal.Add(line.Subtotal())
		}
		applied.Discount = reward.Percent.Div(hundred).Mul(subtotal).Round(c.places)
	case AmountOff:
		applied.Discount = reward.Amount.Round(c.places)
	case FreeItem:
		applied.FreeItems = freeItemGrants(o, reward, applicable)
	default:
		return AppliedOffer{}, false
	}

	if applied.Discount.IsZero() && len(applied.FreeItems) == 0 {
		return AppliedOffer{}, false
	}
	return applied, true
}

// freeItemGrants awards floor(qty / MinQuantity) × Quantity units, either once
// over the pooled subset or separately per line. Grants for the same product
// are not merged. Without a positive MinQuantity there is no ratio to apply,
// so nothing is granted.
func freeItemGrants(o Offer, reward FreeItem, applicable []ResolvedLine) []FreeItemGrant {
	if o.MinQuantity <= 0 || reward.Quantity <= 0 {
		return nil
	}

	var grants []FreeItemGrant
	if o.AppliesToAnyQty {
		pooled := 0
		for _, line := range applicable {
			pooled += line.Quantity
		}
		if qty := (pooled / o.MinQuantity) * reward.Quantity; qty > 0 {
			grants = append(grants, FreeItemGrant{ProductID: reward.ProductID, Quantity: qty})
		}
		return grants
	}

	for _, line := range applicable {
		if qty := (line.Quantity / o.MinQuantity) * reward.Quantity; qty > 0 {
			grants = append(grants, FreeItemGrant{ProductID: reward.ProductID, Quantity: qty})
		}
	}
	return grants
}
