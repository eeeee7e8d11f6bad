package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-offers/internal/repo"
	"github.com/angelmondragon/wholesale-offers/pkg/db"
	"github.com/angelmondragon/wholesale-offers/pkg/db/models"
	"github.com/angelmondragon/wholesale-offers/pkg/types"
)

const lookupBatchSize = 500

// Lookup resolves catalog attributes for offer scope matching.
type Lookup struct {
	repo.Base
}

// NewLookup builds a product lookup backed by the catalog tables.
func NewLookup(client *db.Client) *Lookup {
	return &Lookup{Base: repo.NewBase(client)}
}

// GetProductAttributes returns the category, collection and current unit
// price for every id that exists. Absent ids are simply missing from the map;
// deciding whether that is fatal is left to the caller.
func (l *Lookup) GetProductAttributes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]types.ProductAttributes, error) {
	out := make(map[uuid.UUID]types.ProductAttributes, len(ids))
	ids = distinctIDs(ids)
	if len(ids) == 0 {
		return out, nil
	}

	err := l.Snapshot(ctx, func(tx *gorm.DB) error {
		for start := 0; start < len(ids); start += lookupBatchSize {
			end := start + lookupBatchSize
			if end > len(ids) {
				end = len(ids)
			}
			var rows []models.Product
			if err := tx.Select("id", "category", "collection", "price_cents").
				Where("id IN ?", ids[start:end]).
				Find(&rows).Error; err != nil {
				return err
			}
			for _, row := range rows {
				out[row.ID] = attributesFromModel(row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether a product row with the id is present.
func (l *Lookup) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := l.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func attributesFromModel(row models.Product) types.ProductAttributes {
	attrs := types.ProductAttributes{
		Category:  row.Category,
		UnitPrice: decimal.New(row.PriceCents, -2),
	}
	if row.Collection != nil {
		attrs.Collection = *row.Collection
	}
	return attrs
}

func distinctIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
