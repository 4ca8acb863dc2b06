package storageutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/storage"
	"github.com/papercomputeco/leaflet/pkg/storage/inmemory"
	"github.com/papercomputeco/leaflet/pkg/storage/libsql"
	"github.com/papercomputeco/leaflet/pkg/storage/postgres"
	"github.com/papercomputeco/leaflet/pkg/storage/sqlite"
)

type NewStorageDriverOpts struct {
	ProviderType string
	DBPath       string
	TargetURL    string
	Logger       *zap.Logger
}

func NewStorageDriver(ctx context.Context, o *NewStorageDriverOpts) (storage.Driver, error) {
	switch o.ProviderType {
	case "sqlite", "":
		driver, err := sqlite.NewSQLiteDriver(o.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storer: %w", err)
		}
		o.Logger.Info("using SQLite storage", zap.String("path", o.DBPath))
		return driver, nil
	case "libsql":
		driver, err := libsql.NewDriver(o.TargetURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create libSQL storer: %w", err)
		}
		o.Logger.Info("using libSQL storage")
		return driver, nil
	case "postgres":
		driver, err := postgres.NewDriver(ctx, o.TargetURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL storer: %w", err)
		}
		o.Logger.Info("using PostgreSQL storage")
		return driver, nil
	case "memory":
		o.Logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", o.ProviderType)
	}
}
