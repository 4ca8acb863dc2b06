package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/leaflet/pkg/vector"
	"github.com/papercomputeco/leaflet/pkg/vector/chroma"
	"github.com/papercomputeco/leaflet/pkg/vector/qdrant"
	"github.com/papercomputeco/leaflet/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	TargetURL    string
	DBPath       string
	APIKey       string
	Dimensions   uint
	Logger       *zap.Logger
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite", "":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     o.DBPath,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewChromaDriver(chroma.Config{
			URL: o.TargetURL,
		}, o.Logger)
	case "qdrant":
		host, port, useTLS, err := qdrantTarget(o.TargetURL)
		if err != nil {
			return nil, err
		}
		return qdrant.NewQdrantDriver(ctx, qdrant.Config{
			Host:       host,
			Port:       port,
			APIKey:     o.APIKey,
			UseTLS:     useTLS,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
