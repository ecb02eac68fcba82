package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/layout-localizer/backend/internal/localize"
	"github.com/layout-localizer/backend/internal/parser"
	"github.com/layout-localizer/backend/internal/session"
	"github.com/layout-localizer/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestServer(allowDeletions bool) *echo.Echo {
	e := echo.New()
	SetupMiddleware(e, MiddlewareOptions{})
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Store:          testutil.NewMockStorage(),
		Conversions:    session.NewManager(parser.NewRegistry(""), localize.NewConverter(nil), nil),
		SheetExts:      []string{".xlsx", ".csv"},
		AllowDeletions: allowDeletions,
		Version:        "test",
	}))
	return e
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegisterRoutes(t *testing.T) {
	e := newTestServer(true)

	rec := serve(e, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
	assert.Contains(t, rec.Body.String(), `"archive":false`)

	rec = serve(e, http.MethodGet, "/api/languages")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/api/conversions/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)

	rec = serve(e, http.MethodGet, "/api/archive/conversions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(e, http.MethodDelete, "/api/conversions/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteRoutesDisabled(t *testing.T) {
	e := newTestServer(false)

	rec := serve(e, http.MethodDelete, "/api/conversions/unknown")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = serve(e, http.MethodDelete, "/api/files/unknown")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
