package host

import (
	"context"

	"github.com/labstack/echo/v4"
)

const datasetKey = "host.dataset"

// Dependencies is handed to plugin routers so handlers can reach the host.
type Dependencies struct {
	rest *Rest
}

// Dataset resolves the dataset named in the request path. The value is kept on
// the request context so one request loads it at most once.
func (d Dependencies) Dataset(c echo.Context) (any, error) {
	if v := c.Get(datasetKey); v != nil {
		return v, nil
	}
	ds, err := d.rest.Dataset(c.Request().Context(), c.Param(DatasetIDParam))
	if err != nil {
		return nil, err
	}
	c.Set(datasetKey, ds)
	return ds, nil
}

func (d Dependencies) DatasetIDs(ctx context.Context) []string {
	return d.rest.DatasetIDs(ctx)
}

func (d Dependencies) Plugins() []Plugin {
	return d.rest.Plugins()
}
