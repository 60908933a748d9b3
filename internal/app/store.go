package app

import (
	"context"
	"fmt"

	"github.com/freelanceflow/freelanceflow/internal/ledger"
	"github.com/freelanceflow/freelanceflow/internal/ledger/postgres"
	"github.com/freelanceflow/freelanceflow/internal/ledger/sqlite"
	"github.com/freelanceflow/freelanceflow/internal/platform/db"
)

// LedgerStore is a ledger.Store that also owns its schema and can seed the
// client and project directory.
type LedgerStore interface {
	ledger.Store
	Migrate(ctx context.Context) error
	CreateClient(ctx context.Context, c ledger.Client) error
	CreateProject(ctx context.Context, p ledger.Project) error
}

// OpenStore opens the store selected by STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *Config) (LedgerStore, error) {
	switch cfg.StoreDriver {
	case DriverPostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool, postgres.DefaultRetries), nil
	case DriverSQLite:
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
