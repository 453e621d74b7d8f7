package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/krisalay/dataset-host/health"
)

func TestHandler(t *testing.T) {
	e := echo.New()
	health.Register(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, health.ContentType, rec.Header().Get(echo.HeaderContentType))
	assert.JSONEq(t, `{"xpublish":"online"}`, rec.Body.String())
}
