package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
	e.GET("/upstream", func(c echo.Context) error {
		return AppErrorResponse(c, UpstreamError("fred unavailable").WithParam("id", "M2SL"))
	})
	e.GET("/plain", func(c echo.Context) error { return AppErrorResponse(c, errors.New("x")) })
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServerRoutesAndEnvelope(t *testing.T) {
	s := NewServer(nil, []Handler{pingHandler{}})

	rec := serve(s, http.MethodGet, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	var body APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 200, body.Status)
	assert.Equal(t, "OK", body.Message)
	assert.Equal(t, "pong", body.Data)
}

func TestServerAppErrors(t *testing.T) {
	s := NewServer(nil, []Handler{pingHandler{}})

	rec := serve(s, http.MethodGet, "/upstream")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"ERR_UPSTREAM"`)
	assert.Contains(t, rec.Body.String(), `"id":"M2SL"`)

	rec = serve(s, http.MethodGet, "/plain")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerRecoversPanics(t *testing.T) {
	s := NewServer(nil, []Handler{pingHandler{}})
	rec := serve(s, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerCORSPreflight(t *testing.T) {
	s := NewServer(nil, []Handler{pingHandler{}})
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dash.local")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, "http://dash.local", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), "GET")
}

func TestServerMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(nil, []Handler{pingHandler{}}, WithMetrics(reg, reg, "/metrics"))

	serve(s, http.MethodGet, "/ping")
	rec := serve(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `http_requests_total{method="GET",route="/ping",status="200"} 1`), body)
}
