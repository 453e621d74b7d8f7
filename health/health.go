// Package health serves the liveness endpoint.
package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	Path        = "/health"
	ContentType = "application/health+json"
)

type Status struct {
	Xpublish string `json:"xpublish"`
}

// Handler answers {"xpublish": "online"} as long as the process serves requests.
func Handler(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, ContentType)
	return c.JSON(http.StatusOK, Status{Xpublish: "online"})
}

// Register mounts Handler on e for GET and HEAD.
func Register(e *echo.Echo) {
	e.GET(Path, Handler)
	e.HEAD(Path, Handler)
}
