package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/platinummonkey/tenantgate/pkg/catalog"
	"github.com/platinummonkey/tenantgate/pkg/config"
)

// openStore builds the configured KVStore and the function that releases it
func openStore(ctx context.Context, cfg config.CatalogConfig) (catalog.KVStore, func() error, error) {
	switch cfg.Store {
	case config.StoreRedis:
		store, err := catalog.NewRedisStore(ctx, cfg.RedisConfig())
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.StoreSQL:
		db, err := connectDatabase(ctx, cfg.SQLDriver, cfg.SQLDSN)
		if err != nil {
			return nil, nil, err
		}
		store, err := catalog.NewSQLStore(db, cfg.SQLTable)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil

	default:
		return catalog.NewMemoryStore(), func() error { return nil }, nil
	}
}

func connectDatabase(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == "sqlite3" {
		// one writer; also keeps a ":memory:" database alive across queries
		db.SetMaxOpenConns(1)
		return db, nil
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
