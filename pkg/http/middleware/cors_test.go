package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func corsServer(cfg CORSConfig) *echo.Echo {
	e := echo.New()
	e.Use(CORS(cfg))
	e.GET("/api/v1/geo/resolve", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func send(e *echo.Echo, method, origin, requestMethod string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/geo/resolve", nil)
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	if requestMethod != "" {
		req.Header.Set(echo.HeaderAccessControlRequestMethod, requestMethod)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCORSPreflightFromListedOrigin(t *testing.T) {
	e := corsServer(CORSConfig{
		AllowOrigins: []string{"https://app.example.com/"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType},
		MaxAge:       10 * time.Minute,
	})

	rec := send(e, http.MethodOptions, "https://APP.example.com", http.MethodPost)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://APP.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "GET, POST", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	assert.Equal(t, "Content-Type", rec.Header().Get(echo.HeaderAccessControlAllowHeaders))
	assert.Equal(t, "600", rec.Header().Get(echo.HeaderAccessControlMaxAge))
	assert.Equal(t, echo.HeaderOrigin, rec.Header().Get(echo.HeaderVary))
}

func TestCORSUnlistedOriginGetsNoHeaders(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"https://app.example.com"}})

	rec := send(e, http.MethodGet, "https://evil.example.net", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, echo.HeaderOrigin, rec.Header().Get(echo.HeaderVary))
}

func TestCORSWildcardSimpleRequest(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"*"}, AllowMethods: []string{http.MethodGet}})

	rec := send(e, http.MethodGet, "https://anywhere.example.org", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	// methods are only advertised on preflight
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods))
}

func TestCORSSameOriginUntouched(t *testing.T) {
	e := corsServer(CORSConfig{AllowOrigins: []string{"*"}})

	rec := send(e, http.MethodGet, "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderVary))
}
