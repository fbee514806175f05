package data

import (
	"context"
	"fmt"

	"github.com/esir-council/esir/src/council"
	"github.com/esir-council/esir/src/types"
	"gorm.io/gorm"
)

// Migrate creates or updates every table and seeds the council state row.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := council.EnsureState(ctx, db); err != nil {
		return fmt.Errorf("seed council state: %w", err)
	}
	return nil
}
