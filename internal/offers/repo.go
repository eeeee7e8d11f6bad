package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-offers/internal/repo"
	"github.com/angelmondragon/wholesale-offers/pkg/db"
	"github.com/angelmondragon/wholesale-offers/pkg/db/models"
	"github.com/angelmondragon/wholesale-offers/pkg/enums"
	"github.com/angelmondragon/wholesale-offers/pkg/pagination"
)

// Store is the offer catalog persistence surface used by the service.
type Store interface {
	ListActiveOffersMatching(ctx context.Context, now time.Time, match MatchSet) ([]models.Offer, error)
	CreateOfferWithScopes(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	UpdateOfferWithScopes(ctx context.Context, offer *models.Offer, replaceScopes bool) (*models.Offer, error)
	ReplaceOfferScopes(ctx context.Context, offerID uuid.UUID, scopes []models.OfferScope) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error
	GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListOffers(ctx context.Context, filter ListOffersFilter, limit int, after *pagination.Cursor) ([]models.Offer, error)
}

// ListOffersFilter narrows the admin listing.
type ListOffersFilter struct {
	ActiveOnly bool
}

// Repository persists offers and their scope rows with GORM.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided client.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client)}
}

func preloadScopes(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Scopes", func(q *gorm.DB) *gorm.DB {
		return q.Order("kind ASC, value ASC")
	})
}

// ListActiveOffersMatching returns the live offers whose scope rows intersect
// the match set. Offer rows and scope rows are read inside one snapshot so an
// offer is never paired with scopes from a different revision.
func (r *Repository) ListActiveOffersMatching(ctx context.Context, now time.Time, match MatchSet) ([]models.Offer, error) {
	if match.IsEmpty() {
		return []models.Offer{}, nil
	}

	var rows []models.Offer
	err := r.Snapshot(ctx, func(tx *gorm.DB) error {
		scoped := scopeMatchQuery(tx.Model(&models.OfferScope{}), match).
			Distinct("offer_id")

		return preloadScopes(tx).
			Where("id IN (?)", scoped).
			Where("is_active = ?", true).
			Where("starts_at IS NULL OR starts_at <= ?", now).
			Where("ends_at IS NULL OR ends_at >= ?", now).
			Order("priority DESC, id ASC").
			Find(&rows).
			Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// scopeMatchQuery ORs together one (kind, value IN ...) clause per non-empty union.
func scopeMatchQuery(q *gorm.DB, match MatchSet) *gorm.DB {
	clauses := []struct {
		kind   enums.ScopeKind
		values StringSet
	}{
		{enums.ScopeKindProduct, match.ProductIDs},
		{enums.ScopeKindCategory, match.Categories},
		{enums.ScopeKindCollection, match.Collections},
	}

	first := true
	for _, c := range clauses {
		if len(c.values) == 0 {
			continue
		}
		if first {
			q = q.Where("kind = ? AND value IN ?", c.kind, c.values.Sorted())
			first = false
			continue
		}
		q = q.Or("kind = ? AND value IN ?", c.kind, c.values.Sorted())
	}
	return q
}

// CreateOfferWithScopes inserts the offer row and every scope row in a single
// transaction.
func (r *Repository) CreateOfferWithScopes(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	scopes := withOfferID(offer.ID, offer.Scopes)

	err := r.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit("Scopes").Create(offer).Error; err != nil {
			return err
		}
		if len(scopes) == 0 {
			return nil
		}
		return tx.Create(&scopes).Error
	})
	if err != nil {
		return nil, err
	}
	offer.Scopes = scopes
	return offer, nil
}

// UpdateOfferWithScopes overwrites every scalar column of the offer and, when
// replaceScopes is set, swaps the whole scope set, all in one transaction.
// gorm.ErrRecordNotFound is returned when the offer does not exist.
func (r *Repository) UpdateOfferWithScopes(ctx context.Context, offer *models.Offer, replaceScopes bool) (*models.Offer, error) {
	offer.UpdatedAt = time.Now().UTC()

	err := r.Write(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Offer{}).
			Where("id = ?", offer.ID).
			Updates(scalarColumns(offer))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if !replaceScopes {
			return nil
		}
		return replaceScopesTx(tx, offer.ID, offer.Scopes)
	})
	if err != nil {
		return nil, err
	}
	return r.GetOffer(ctx, offer.ID)
}

// ReplaceOfferScopes deletes and re-inserts the offer's entire scope set atomically.
func (r *Repository) ReplaceOfferScopes(ctx context.Context, offerID uuid.UUID, scopes []models.OfferScope) error {
	return r.Write(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Offer{}).Where("id = ?", offerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return replaceScopesTx(tx, offerID, scopes)
	})
}

func replaceScopesTx(tx *gorm.DB, offerID uuid.UUID, scopes []models.OfferScope) error {
	if err := tx.Where("offer_id = ?", offerID).Delete(&models.OfferScope{}).Error; err != nil {
		return err
	}
	rows := withOfferID(offerID, scopes)
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

// DeleteOffer removes the offer and its scope rows.
func (r *Repository) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	return r.Write(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("offer_id = ?", id).Delete(&models.OfferScope{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Offer{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetOffer loads a single offer with its scopes.
func (r *Repository) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var row models.Offer
	if err := preloadScopes(r.DB(ctx)).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListOffers returns offers ordered by evaluation priority, starting after the
// cursor when one is given. A non-positive limit returns every row.
func (r *Repository) ListOffers(ctx context.Context, filter ListOffersFilter, limit int, after *pagination.Cursor) ([]models.Offer, error) {
	q := preloadScopes(r.DB(ctx))
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if after != nil {
		q = q.Where("(priority < ? OR (priority = ? AND id > ?))", after.Priority, after.Priority, after.ID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.Offer
	if err := q.Order("priority DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountWindowTransitions counts active offers whose schedule window opened or
// closed between from and to. An offer is live through its end instant, so a
// close at ends_at is observed on the sweep that starts at or before it.
func (r *Repository) CountWindowTransitions(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Offer{}).
		Where("is_active = ?", true).
		Where("((starts_at > ? AND starts_at <= ?) OR (ends_at >= ? AND ends_at < ?))", from, to, from, to).
		Count(&count).Error
	return count, err
}

func scalarColumns(o *models.Offer) map[string]any {
	return map[string]any{
		"name":                   o.Name,
		"description":            o.Description,
		"offer_type":             o.Type,
		"percent":                o.Percent,
		"amount_cents":           o.AmountCents,
		"free_item_product_id":   o.FreeItemProductID,
		"free_item_qty":          o.FreeItemQty,
		"starts_at":              o.StartsAt,
		"ends_at":                o.EndsAt,
		"min_quantity":           o.MinQuantity,
		"min_order_amount_cents": o.MinOrderAmountCents,
		"applies_to_any_qty":     o.AppliesToAnyQty,
		"max_per_user":           o.MaxPerUser,
		"max_total_redemptions":  o.MaxTotalRedemptions,
		"is_stackable":           o.IsStackable,
		"priority":               o.Priority,
		"is_active":              o.IsActive,
		"updated_at":             o.UpdatedAt,
	}
}

func withOfferID(offerID uuid.UUID, scopes []models.OfferScope) []models.OfferScope {
	rows := make([]models.OfferScope, 0, len(scopes))
	for _, s := range scopes {
		s.OfferID = offerID
		rows = append(rows, s)
	}
	return rows
}
