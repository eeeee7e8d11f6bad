package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/wholesale-offers/pkg/db"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	client *db.Client
}

// NewBase constructs a Base repository backed by the provided client.
func NewBase(client *db.Client) Base {
	return Base{client: client}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	conn := b.client.DB()
	if ctx == nil {
		return conn
	}
	return conn.WithContext(ctx)
}

// Snapshot runs fn inside a read-only transaction so every query it issues
// observes the same committed state.
func (b Base) Snapshot(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.client.WithReadTx(ctx, fn)
}

// Write runs fn inside a read-write transaction.
func (b Base) Write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.client.WithTx(ctx, fn)
}
