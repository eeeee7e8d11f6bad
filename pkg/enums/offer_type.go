package enums

import "fmt"

// OfferType is the discriminator persisted alongside an offer's reward payload.
type OfferType string

const (
	OfferTypePercentOff OfferType = "percent_off"
	OfferTypeAmountOff  OfferType = "amount_off"
	OfferTypeFreeItem   OfferType = "free_item"
)

var validOfferTypes = []OfferType{
	OfferTypePercentOff,
	OfferTypeAmountOff,
	OfferTypeFreeItem,
}

// String implements fmt.Stringer.
func (t OfferType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known OfferType.
func (t OfferType) IsValid() bool {
	for _, candidate := range validOfferTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseOfferType converts raw input into an OfferType.
func ParseOfferType(value string) (OfferType, error) {
	for _, candidate := range validOfferTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid offer type %q", value)
}
