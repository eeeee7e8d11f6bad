package offers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-offers/pkg/db/models"
	"github.com/angelmondragon/wholesale-offers/pkg/enums"
)

func centsToMoney(cents int64) decimal.Decimal {
	return decimal.New(cents, -moneyPlaces)
}

func moneyToCents(amount decimal.Decimal) int64 {
	return amount.Shift(moneyPlaces).Round(0).IntPart()
}

// toModel flattens the offer into its row and scope rows.
func toModel(o Offer) *models.Offer {
	row := &models.Offer{
		ID:                  o.ID,
		Name:                o.Name,
		Description:         o.Description,
		Type:                o.Type(),
		StartsAt:            o.StartsAt,
		EndsAt:              o.EndsAt,
		MinQuantity:         o.MinQuantity,
		AppliesToAnyQty:     o.AppliesToAnyQty,
		MaxPerUser:          o.MaxPerUser,
		MaxTotalRedemptions: o.MaxTotalRedemptions,
		IsStackable:         o.IsStackable,
		Priority:            o.Priority,
		IsActive:            o.IsActive,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if o.MinOrderAmount != nil {
		cents := moneyToCents(*o.MinOrderAmount)
		row.MinOrderAmountCents = &cents
	}

	switch reward := o.Reward.(type) {
	case PercentOff:
		percent := reward.Percent
		row.Percent = &percent
	case AmountOff:
		cents := moneyToCents(reward.Amount)
		row.AmountCents = &cents
	case FreeItem:
		productID := reward.ProductID
		qty := reward.Quantity
		row.FreeItemProductID = &productID
		row.FreeItemQty = &qty
	}

	row.Scopes = toScopeRows(o.ID, o.Scope)
	return row
}

// toScopeRows emits rows in a deterministic order: kind, then value.
func toScopeRows(offerID uuid.UUID, scope Scope) []models.OfferScope {
	rows := make([]models.OfferScope, 0, len(scope.Products)+len(scope.Categories)+len(scope.Collections))
	for _, v := range scope.Products.Sorted() {
		rows = append(rows, models.OfferScope{OfferID: offerID, Kind: enums.ScopeKindProduct, Value: v})
	}
	for _, v := range scope.Categories.Sorted() {
		rows = append(rows, models.OfferScope{OfferID: offerID, Kind: enums.ScopeKindCategory, Value: v})
	}
	for _, v := range scope.Collections.Sorted() {
		rows = append(rows, models.OfferScope{OfferID: offerID, Kind: enums.ScopeKindCollection, Value: v})
	}
	return rows
}

// fromModel rebuilds the domain offer. Rows whose reward columns do not match
// their type are reported as errors rather than guessed at.
func fromModel(row models.Offer) (Offer, error) {
	reward, err := rewardFromModel(row)
	if err != nil {
		return Offer{}, err
	}

	o := Offer{
		ID:                  row.ID,
		Name:                row.Name,
		Description:         row.Description,
		Reward:              reward,
		StartsAt:            row.StartsAt,
		EndsAt:              row.EndsAt,
		MinQuantity:         row.MinQuantity,
		AppliesToAnyQty:     row.AppliesToAnyQty,
		MaxPerUser:          row.MaxPerUser,
		MaxTotalRedemptions: row.MaxTotalRedemptions,
		IsStackable:         row.IsStackable,
		Priority:            row.Priority,
		IsActive:            row.IsActive,
		Scope:               scopeFromRows(row.Scopes),
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
	if row.MinOrderAmountCents != nil {
		amount := centsToMoney(*row.MinOrderAmountCents)
		o.MinOrderAmount = &amount
	}
	return o, nil
}

func rewardFromModel(row models.Offer) (Reward, error) {
	switch row.Type {
	case enums.OfferTypePercentOff:
		if row.Percent == nil || !row.Percent.IsPositive() {
			return nil, fmt.Errorf("offer %s: percent_off without a positive percent", row.ID)
		}
		return PercentOff{Percent: *row.Percent}, nil
	case enums.OfferTypeAmountOff:
		if row.AmountCents == nil || *row.AmountCents <= 0 {
			return nil, fmt.Errorf("offer %s: amount_off without a positive amount", row.ID)
		}
		return AmountOff{Amount: centsToMoney(*row.AmountCents)}, nil
	case enums.OfferTypeFreeItem:
		if row.FreeItemProductID == nil {
			return nil, fmt.Errorf("offer %s: free_item without a product", row.ID)
		}
		qty := 1
		if row.FreeItemQty != nil {
			qty = *row.FreeItemQty
		}
		return FreeItem{ProductID: *row.FreeItemProductID, Quantity: qty}, nil
	default:
		return nil, fmt.Errorf("offer %s: unknown offer type %q", row.ID, row.Type)
	}
}

func scopeFromRows(rows []models.OfferScope) Scope {
	scope := Scope{
		Products:    make(StringSet),
		Categories:  make(StringSet),
		Collections: make(StringSet),
	}
	for _, r := range rows {
		switch r.Kind {
		case enums.ScopeKindProduct:
			scope.Products.Add(r.Value)
		case enums.ScopeKindCategory:
			scope.Categories.Add(r.Value)
		case enums.ScopeKindCollection:
			scope.Collections.Add(r.Value)
		}
	}
	return scope
}
