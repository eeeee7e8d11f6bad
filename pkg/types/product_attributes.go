package types

import "github.com/shopspring/decimal"

// ProductAttributes is what the catalog exposes about a product for offer
// scope matching and default line pricing.
type ProductAttributes struct {
	Category   string
	Collection string
	UnitPrice  decimal.Decimal
}
