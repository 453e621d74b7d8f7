package host

import (
	"context"

	"github.com/labstack/echo/v4"
)

// Plugin is anything registered on the host. Names are unique per host.
type Plugin interface {
	Name() string
}

/*
DatasetProvider answers the two dataset hooks.

GetDataset returns (nil, nil) when the provider does not know id, so the host
can ask the next provider. An error means the provider knows id but could not
produce it. A nil value therefore never stands for a dataset; the cache rejects
loaders that return one.
*/
type DatasetProvider interface {
	Plugin
	GetDatasets(ctx context.Context) []string
	GetDataset(ctx context.Context, id string) (any, error)
}

// AppRouter mounts routes at the application level under its prefix.
type AppRouter interface {
	Plugin
	AppRouterPrefix() string
	AppRoutes(g *echo.Group, deps Dependencies)
}

// DatasetRouter mounts routes under /datasets/:dataset_id/<prefix>.
type DatasetRouter interface {
	Plugin
	DatasetRouterPrefix() string
	DatasetRoutes(g *echo.Group, deps Dependencies)
}
