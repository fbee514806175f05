package main

import (
	"context"
	"fmt"

	"github.com/esir-council/esir/src/config"
	"github.com/esir-council/esir/src/data"
	"gorm.io/gorm"
)

// openDB loads the configuration and connects to a migrated database.
func openDB(ctx context.Context) (config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	db, err := data.ConnectMySQL(cfg.MySQLDSN)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("db: %w", err)
	}
	if err := data.Migrate(ctx, db); err != nil {
		return config.Config{}, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, db, nil
}
