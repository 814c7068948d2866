package snapshot

import (
	"context"

	"thoreinstein.com/flightcheck/pkg/config"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// Open builds the Store described by cfg: a migrated SQLStore, wrapped in a
// CachedStore when cfg.CacheSize is positive. The returned close function
// releases the database.
func Open(ctx context.Context, cfg *config.StoreConfig) (Store, func() error, error) {
	var (
		sqlStore *SQLStore
		err      error
	)

	switch cfg.Driver {
	case DriverSQLite, "":
		sqlStore, err = OpenSQLite(cfg.Path)
	case DriverPostgres:
		sqlStore, err = OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, nil, fcerrors.NewConfigError("store.driver", "unsupported store driver: "+cfg.Driver)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := sqlStore.Migrate(ctx); err != nil {
		_ = sqlStore.Close()
		return nil, nil, err
	}

	if cfg.CacheSize <= 0 {
		return sqlStore, sqlStore.Close, nil
	}

	cached, err := NewCachedStore(sqlStore, cfg.CacheSize)
	if err != nil {
		_ = sqlStore.Close()
		return nil, nil, err
	}
	return cached, sqlStore.Close, nil
}
