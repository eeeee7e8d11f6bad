package offers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesale-offers/pkg/types"
)

// MatchSet is the union of product ids, categories and collections present in
// a context. An offer is reachable from the context when any of its scope sets
// intersects the corresponding union.
type MatchSet struct {
	ProductIDs  StringSet
	Categories  StringSet
	Collections StringSet
}

// IsEmpty reports whether nothing in the context can match a scope.
func (m MatchSet) IsEmpty() bool {
	return len(m.ProductIDs) == 0 && len(m.Categories) == 0 && len(m.Collections) == 0
}

// MatchSetForCart unions every line's product id with its resolved labels.
func MatchSetForCart(lines []ResolvedLine) MatchSet {
	match := MatchSet{
		ProductIDs:  make(StringSet, len(lines)),
		Categories:  make(StringSet),
		Collections: make(StringSet),
	}
	for _, line := range lines {
		match.ProductIDs.Add(line.ProductID.String())
		match.Categories.Add(line.Category)
		match.Collections.Add(line.Collection)
	}
	return match
}

// MatchSetForItem builds the match set of a single-item context. When the
// context names a product, attrs carries that product's own labels and they are
// folded in so category and collection scoped offers are found as well.
func MatchSetForItem(item ItemContext, attrs *types.ProductAttributes) MatchSet {
	match := MatchSet{
		ProductIDs:  make(StringSet, 1),
		Categories:  NewStringSet(item.Category),
		Collections: NewStringSet(item.Collection),
	}
	if item.ProductID != nil && *item.ProductID != uuid.Nil {
		match.ProductIDs.Add(item.ProductID.String())
	}
	if attrs != nil {
		match.Categories.Add(attrs.Category)
		match.Collections.Add(attrs.Collection)
	}
	return match
}

// IsLive applies the administrative switch and the validity window. Both
// bounds are inclusive.
func IsLive(o Offer, now time.Time) bool {
	if !o.IsActive {
		return false
	}
	if o.StartsAt != nil && o.StartsAt.After(now) {
		return false
	}
	if o.EndsAt != nil && o.EndsAt.Before(now) {
		return false
	}
	return true
}

// ScopeIntersects reports whether any of the offer's scope sets shares a member
// with the match set. An empty scope never intersects.
func ScopeIntersects(scope Scope, match MatchSet) bool {
	return scope.Products.Intersects(match.ProductIDs) ||
		scope.Categories.Intersects(match.Categories) ||
		scope.Collections.Intersects(match.Collections)
}

// ResolveEligible filters candidates down to the live offers whose scope
// intersects the match set. Candidate order is preserved; evaluation order is
// imposed later by the calculator.
func ResolveEligible(candidates []Offer, match MatchSet, now time.Time) []Offer {
	eligible := make([]Offer, 0, len(candidates))
	for _, o := range candidates {
		if !IsLive(o, now) {
			continue
		}
		if !ScopeIntersects(o.Scope, match) {
			continue
		}
		eligible = append(eligible, o)
	}
	return eligible
}
