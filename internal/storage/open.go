// Package storage selects the ledger store backend from configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/sheikh-saqib/personal-finance-ledger/internal/config"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/mongo"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage/postgres"
)

// Open returns the store for cfg.StoreDriver and a function releasing it.
func Open(ctx context.Context, cfg config.Config) (interfaces.LedgerStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewMemoryLedgerStore(), func() {}, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.DriverMongo:
		store, err := mongo.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
