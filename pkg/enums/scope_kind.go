package enums

import "fmt"

// ScopeKind identifies which product attribute an offer scope row targets.
type ScopeKind string

const (
	ScopeKindProduct    ScopeKind = "product"
	ScopeKindCategory   ScopeKind = "category"
	ScopeKindCollection ScopeKind = "collection"
)

var validScopeKinds = []ScopeKind{
	ScopeKindProduct,
	ScopeKindCategory,
	ScopeKindCollection,
}

func (k ScopeKind) String() string {
	return string(k)
}

func (k ScopeKind) IsValid() bool {
	for _, candidate := range validScopeKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseScopeKind(value string) (ScopeKind, error) {
	for _, candidate := range validScopeKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scope kind %q", value)
}
