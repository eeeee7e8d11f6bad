package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the read-side projection of a catalog listing used for offer
// scope resolution. The catalog service owns writes to this table.
type Product struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	SKU        string    `gorm:"column:sku;not null"`
	Title      string    `gorm:"column:title;not null"`
	Category   string    `gorm:"column:category;not null"`
	Collection *string   `gorm:"column:collection"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
