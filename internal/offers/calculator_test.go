package offers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-offers/pkg/enums"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func line(productID uuid.UUID, qty int, price, category, collection string) ResolvedLine {
	return ResolvedLine{
		CartLine:   CartLine{ProductID: productID, Quantity: qty, UnitPrice: dec(price)},
		Category:   category,
		Collection: collection,
	}
}

func scopeOf(products []uuid.UUID, categories, collections []string) Scope {
	s := Scope{Products: make(StringSet), Categories: NewStringSet(categories...), Collections: NewStringSet(collections...)}
	for _, id := range products {
		s.Products.Add(id.String())
	}
	return s
}

func liveOffer(reward Reward, scope Scope, priority int, stackable bool) Offer {
	return Offer{
		ID:          uuid.New(),
		Name:        string(reward.Type()),
		Reward:      reward,
		Scope:       scope,
		Priority:    priority,
		IsStackable: stackable,
		IsActive:    true,
	}
}

func appliedIDs(result CalculationResult) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(result.AppliedOffers))
	for _, a := range result.AppliedOffers {
		ids = append(ids, a.OfferID)
	}
	return ids
}

func TestApplyPercentOffOnCollection(t *testing.T) {
	p1 := uuid.New()
	o1 := liveOffer(PercentOff{Percent: dec("15")}, scopeOf(nil, nil, []string{"Christmas"}), 10, false)

	result := NewCalculator(2).Apply([]ResolvedLine{line(p1, 48, "7.50", "Garlands", "Christmas")}, []Offer{o1})

	require.True(t, dec("360").Equal(result.OriginalAmount))
	require.Equal(t, []uuid.UUID{o1.ID}, appliedIDs(result))
	require.True(t, dec("54").Equal(result.AppliedOffers[0].Discount))
	require.True(t, dec("54").Equal(result.TotalDiscount))
	require.True(t, dec("306").Equal(result.FinalAmount))
	require.Equal(t, enums.OfferTypePercentOff, result.AppliedOffers[0].Type)
	require.Empty(t, result.FreeItems)
}

func TestApplyFreeItemPerLine(t *testing.T) {
	p2, p3 := uuid.New(), uuid.New()
	o2 := liveOffer(FreeItem{ProductID: p3, Quantity: 1}, scopeOf(nil, []string{"Garlands"}, nil), 0, true)
	o2.MinQuantity = 2

	result := NewCalculator(2).Apply([]ResolvedLine{line(p2, 2, "3.00", "Garlands", "")}, []Offer{o2})

	require.Equal(t, []FreeItemGrant{{ProductID: p3, Quantity: 1}}, result.FreeItems)
	require.Len(t, result.AppliedOffers, 1)
	require.True(t, result.AppliedOffers[0].Discount.IsZero())
	require.True(t, result.TotalDiscount.IsZero())
}

func TestApplyMinOrderAmountGate(t *testing.T) {
	p := uuid.New()
	o3 := liveOffer(AmountOff{Amount: dec("20")}, scopeOf([]uuid.UUID{p}, nil, nil), 0, true)
	o3.MinOrderAmount = decPtr("200")

	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 10, "15.00", "Garlands", "")}, []Offer{o3})

	require.True(t, dec("150").Equal(result.OriginalAmount))
	require.Empty(t, result.AppliedOffers)
	require.True(t, result.TotalDiscount.IsZero())
	require.True(t, dec("150").Equal(result.FinalAmount))
}

func TestApplyNonStackableWithoutBenefitDoesNotBlock(t *testing.T) {
	p := uuid.New()
	other := uuid.New()
	scope := scopeOf([]uuid.UUID{p}, nil, nil)
	o4 := liveOffer(PercentOff{Percent: dec("10")}, scope, 10, true)
	o5 := liveOffer(AmountOff{Amount: dec("5")}, scopeOf([]uuid.UUID{other}, nil, nil), 5, false)
	o6 := liveOffer(AmountOff{Amount: dec("1")}, scope, 1, true)

	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 1, "100.00", "Garlands", "")}, []Offer{o6, o5, o4})

	require.Equal(t, []uuid.UUID{o4.ID, o6.ID}, appliedIDs(result))
	require.True(t, dec("11").Equal(result.TotalDiscount))
	require.True(t, dec("89").Equal(result.FinalAmount))
}

func TestApplyNonStackableAfterStackableIsDropped(t *testing.T) {
	p := uuid.New()
	scope := scopeOf([]uuid.UUID{p}, nil, nil)
	stackable := liveOffer(AmountOff{Amount: dec("2")}, scope, 10, true)
	blocked := liveOffer(PercentOff{Percent: dec("50")}, scope, 9, false)
	later := liveOffer(AmountOff{Amount: dec("1")}, scope, 1, true)

	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 1, "10.00", "", "")}, []Offer{stackable, blocked, later})

	require.Equal(t, []uuid.UUID{stackable.ID}, appliedIDs(result))
	require.True(t, dec("2").Equal(result.TotalDiscount))
}

func TestApplyNonStackableFirstLocksCart(t *testing.T) {
	p := uuid.New()
	scope := scopeOf([]uuid.UUID{p}, nil, nil)
	top := liveOffer(AmountOff{Amount: dec("3")}, scope, 100, false)
	others := []Offer{top}
	for i := 0; i < 5; i++ {
		others = append(others, liveOffer(PercentOff{Percent: dec("10")}, scope, i, i%2 == 0))
	}

	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 4, "10.00", "", "")}, others)

	require.Equal(t, []uuid.UUID{top.ID}, appliedIDs(result))
}

func TestApplyStackableOffersOnDisjointLinesAccumulate(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	first := liveOffer(PercentOff{Percent: dec("10")}, scopeOf([]uuid.UUID{a}, nil, nil), 5, true)
	second := liveOffer(AmountOff{Amount: dec("4.25")}, scopeOf([]uuid.UUID{b}, nil, nil), 5, true)
	lines := []ResolvedLine{line(a, 2, "20.00", "", ""), line(b, 1, "9.99", "", "")}

	calc := NewCalculator(2)
	alone1 := calc.Apply(lines, []Offer{first})
	alone2 := calc.Apply(lines, []Offer{second})
	both := calc.Apply(lines, []Offer{first, second})

	require.Len(t, both.AppliedOffers, 2)
	require.True(t, alone1.TotalDiscount.Add(alone2.TotalDiscount).Equal(both.TotalDiscount))
	require.True(t, dec("8.25").Equal(both.TotalDiscount))
}

func TestApplyFinalAmountNeverNegative(t *testing.T) {
	p := uuid.New()
	big := liveOffer(AmountOff{Amount: dec("500")}, scopeOf([]uuid.UUID{p}, nil, nil), 0, true)

	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 1, "12.00", "", "")}, []Offer{big})

	require.True(t, dec("500").Equal(result.TotalDiscount))
	require.True(t, result.FinalAmount.IsZero())
}

func TestApplyMinQuantityCountsWholeCart(t *testing.T) {
	inScope, outOfScope := uuid.New(), uuid.New()
	o := liveOffer(AmountOff{Amount: dec("1")}, scopeOf([]uuid.UUID{inScope}, nil, nil), 0, true)
	o.MinQuantity = 5

	lines := []ResolvedLine{line(inScope, 1, "1.00", "", ""), line(outOfScope, 4, "1.00", "", "")}
	require.Len(t, NewCalculator(2).Apply(lines, []Offer{o}).AppliedOffers, 1)

	require.Empty(t, NewCalculator(2).Apply(lines[:1], []Offer{o}).AppliedOffers)
}

func TestApplySkipsOfferWithoutScopedLines(t *testing.T) {
	o := liveOffer(AmountOff{Amount: dec("5")}, scopeOf(nil, []string{"Ribbons"}, nil), 0, true)
	result := NewCalculator(2).Apply([]ResolvedLine{line(uuid.New(), 1, "10.00", "Garlands", "")}, []Offer{o})
	require.Empty(t, result.AppliedOffers)
}

func TestApplyZeroDiscountIsNotApplied(t *testing.T) {
	p := uuid.New()
	free := liveOffer(PercentOff{Percent: dec("10")}, scopeOf([]uuid.UUID{p}, nil, nil), 10, false)
	next := liveOffer(AmountOff{Amount: dec("1")}, scopeOf([]uuid.UUID{p}, nil, nil), 1, true)

	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 3, "0", "", "")}, []Offer{free, next})

	require.Equal(t, []uuid.UUID{next.ID}, appliedIDs(result))
}

func TestApplyFreeItemPooledAcrossLines(t *testing.T) {
	a, b, gift := uuid.New(), uuid.New(), uuid.New()
	o := liveOffer(FreeItem{ProductID: gift, Quantity: 2}, scopeOf(nil, []string{"Garlands"}, nil), 0, true)
	o.MinQuantity = 3
	o.AppliesToAnyQty = true

	lines := []ResolvedLine{line(a, 2, "1.00", "Garlands", ""), line(b, 5, "1.00", "Garlands", "")}
	result := NewCalculator(2).Apply(lines, []Offer{o})

	require.Equal(t, []FreeItemGrant{{ProductID: gift, Quantity: 4}}, result.FreeItems)
}

func TestApplyFreeItemPerLineKeepsSeparateGrants(t *testing.T) {
	a, b, gift := uuid.New(), uuid.New(), uuid.New()
	o := liveOffer(FreeItem{ProductID: gift, Quantity: 1}, scopeOf(nil, []string{"Garlands"}, nil), 0, true)
	o.MinQuantity = 3

	lines := []ResolvedLine{line(a, 2, "1.00", "Garlands", ""), line(b, 7, "1.00", "Garlands", ""), line(a, 3, "1.00", "Garlands", "")}
	result := NewCalculator(2).Apply(lines, []Offer{o})

	require.Equal(t, []FreeItemGrant{{ProductID: gift, Quantity: 2}, {ProductID: gift, Quantity: 1}}, result.FreeItems)
}

func TestApplyFreeItemWithoutMinQuantityGrantsNothing(t *testing.T) {
	p, gift := uuid.New(), uuid.New()
	o := liveOffer(FreeItem{ProductID: gift, Quantity: 1}, scopeOf([]uuid.UUID{p}, nil, nil), 0, true)

	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 10, "1.00", "", "")}, []Offer{o})

	require.Empty(t, result.AppliedOffers)
	require.Empty(t, result.FreeItems)
}

func TestApplyRoundsEachOfferHalfAwayFromZero(t *testing.T) {
	p := uuid.New()
	o := liveOffer(PercentOff{Percent: dec("12.5")}, scopeOf([]uuid.UUID{p}, nil, nil), 0, true)

	// 12.5% of 0.20 = 0.025
	result := NewCalculator(2).Apply([]ResolvedLine{line(p, 1, "0.20", "", "")}, []Offer{o})
	require.Equal(t, "0.03", result.TotalDiscount.StringFixed(2))

	whole := NewCalculator(0).Apply([]ResolvedLine{line(p, 1, "20.00", "", "")}, []Offer{o})
	require.Equal(t, "3", whole.TotalDiscount.String())
}

func TestApplyIsDeterministic(t *testing.T) {
	p := uuid.New()
	scope := scopeOf([]uuid.UUID{p}, nil, nil)
	offers := []Offer{
		liveOffer(PercentOff{Percent: dec("5")}, scope, 1, true),
		liveOffer(AmountOff{Amount: dec("2")}, scope, 1, true),
		liveOffer(AmountOff{Amount: dec("3")}, scope, 1, false),
	}
	lines := []ResolvedLine{line(p, 2, "50.00", "", "")}

	calc := NewCalculator(2)
	first := calc.Apply(lines, offers)
	reversed := []Offer{offers[2], offers[1], offers[0]}
	second := calc.Apply(lines, reversed)

	require.Equal(t, appliedIDs(first), appliedIDs(second))
	require.True(t, first.TotalDiscount.Equal(second.TotalDiscount))
}

func TestApplyEmptyCart(t *testing.T) {
	result := NewCalculator(2).Apply(nil, nil)
	require.NotNil(t, result.AppliedOffers)
	require.NotNil(t, result.FreeItems)
	require.True(t, result.OriginalAmount.IsZero())
	require.True(t, result.FinalAmount.IsZero())
}

func TestSortByPriorityTieBreaksOnID(t *testing.T) {
	low := Offer{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Priority: 5}
	high := Offer{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Priority: 5}
	top := Offer{ID: uuid.MustParse("00000000-0000-0000-0000-000000000003"), Priority: 9}

	sorted := SortByPriority([]Offer{high, top, low})
	require.Equal(t, []uuid.UUID{top.ID, low.ID, high.ID}, []uuid.UUID{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}
