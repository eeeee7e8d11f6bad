package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wholesale-offers/pkg/enums"
)

// Offer is the persisted promotional rule. Exactly one of the reward column
// groups is populated, selected by Type.
type Offer struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name                string           `gorm:"column:name;not null" json:"name"`
	Description         *string          `gorm:"column:description" json:"description,omitempty"`
	Type                enums.OfferType  `gorm:"column:offer_type;not null" json:"offer_type"`
	Percent             *decimal.Decimal `gorm:"column:percent;type:numeric(5,2)" json:"percent,omitempty"`
	AmountCents         *int64           `gorm:"column:amount_cents" json:"amount_cents,omitempty"`
	FreeItemProductID   *uuid.UUID       `gorm:"column:free_item_product_id;type:uuid" json:"free_item_product_id,omitempty"`
	FreeItemQty         *int             `gorm:"column:free_item_qty" json:"free_item_qty,omitempty"`
	StartsAt            *time.Time       `gorm:"column:starts_at" json:"starts_at,omitempty"`
	EndsAt              *time.Time       `gorm:"column:ends_at" json:"ends_at,omitempty"`
	MinQuantity         int              `gorm:"column:min_quantity;not null;default:0" json:"min_quantity"`
	MinOrderAmountCents *int64           `gorm:"column:min_order_amount_cents" json:"min_order_amount_cents,omitempty"`
	AppliesToAnyQty     bool             `gorm:"column:applies_to_any_qty;not null;default:false" json:"applies_to_any_qty"`
	MaxPerUser          *int             `gorm:"column:max_per_user" json:"max_per_user,omitempty"`
	MaxTotalRedemptions *int             `gorm:"column:max_total_redemptions" json:"max_total_redemptions,omitempty"`
	IsStackable         bool             `gorm:"column:is_stackable;not null;default:false" json:"is_stackable"`
	Priority            int              `gorm:"column:priority;not null;default:0" json:"priority"`
	IsActive            bool             `gorm:"column:is_active;not null" json:"is_active"`
	Scopes              []OfferScope     `gorm:"foreignKey:OfferID;constraint:OnDelete:CASCADE" json:"scopes"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// OfferScope is one member of an offer's product, category, or collection scope set.
type OfferScope struct {
	OfferID uuid.UUID       `gorm:"column:offer_id;type:uuid;primaryKey" json:"-"`
	Kind    enums.ScopeKind `gorm:"column:kind;primaryKey" json:"kind"`
	Value   string          `gorm:"column:value;primaryKey" json:"value"`
}
