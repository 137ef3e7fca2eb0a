package api

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"GlobalLiquidity/internal/domain/models"
	"GlobalLiquidity/internal/service/ratelimit"
	"GlobalLiquidity/internal/services/report"
	xhttp "GlobalLiquidity/pkg/http"
	xlogger "GlobalLiquidity/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LiquidityService is the engine surface the API needs.
type LiquidityService interface {
	Compute(ctx context.Context, p models.Params) (*models.ResultTable, error)
	Components() []models.Component
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// LiquidityHandler serves the liquidity table over HTTP and websocket.
type LiquidityHandler struct {
	logger         *xlogger.Logger
	svc            LiquidityService
	limiter        *ratelimit.Limiter
	streamInterval time.Duration
	upgrader       websocket.Upgrader
	checks         map[string]HealthCheck
}

type HandlerOption func(*LiquidityHandler)

// WithRateLimiter limits the compute endpoints per remote address.
func WithRateLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *LiquidityHandler) { h.limiter = l }
}

func WithStreamInterval(d time.Duration) HandlerOption {
	return func(h *LiquidityHandler) { h.streamInterval = d }
}

// WithHealthCheck adds a named dependency check to /healthz.
func WithHealthCheck(name string, check HealthCheck) HandlerOption {
	return func(h *LiquidityHandler) { h.checks[name] = check }
}

func NewLiquidityHandler(logger *xlogger.Logger, svc LiquidityService, opts ...HandlerOption) *LiquidityHandler {
	h := &LiquidityHandler{
		logger:         logger.Component("api"),
		svc:            svc,
		streamInterval: time.Minute,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		checks: make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *LiquidityHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/components", h.Components)

	lg := g.Group("/liquidity", h.rateLimit)
	lg.GET("", h.Table)
	lg.GET("/export.xlsx", h.Export)
	lg.GET("/stream", h.Stream)
}

// Table returns the liquidity table for the query parameters.
func (h *LiquidityHandler) Table(c echo.Context) error {
	req := &models.LiquidityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.svc.Compute(c.Request().Context(), req.Params())
	if err != nil {
		return h.fail(c, "liquidity usecase error", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, t)
}

// Export returns the table as an xlsx workbook.
func (h *LiquidityHandler) Export(c echo.Context) error {
	req := &models.LiquidityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	t, err := h.svc.Compute(c.Request().Context(), req.Params())
	if err != nil {
		return h.fail(c, "liquidity export error", err)
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, t); err != nil {
		return h.fail(c, "xlsx render error", err)
	}
	name := fmt.Sprintf("global-liquidity-%dy-%+dm.xlsx", t.LookbackYears, t.ShiftMonths)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Components lists the configured series.
func (h *LiquidityHandler) Components(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Components())
}

// Health runs the registered dependency checks.
func (h *LiquidityHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	out := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			out[name] = err.Error()
			continue
		}
		out[name] = "ok"
	}
	return xhttp.DataResponse(c, status, out)
}

func (h *LiquidityHandler) fail(c echo.Context, msg string, err error) error {
	ae := appError(err)
	if ae.Status >= http.StatusInternalServerError {
		h.logger.Error(msg, xlogger.Error(err))
	} else {
		h.logger.Warn(msg, xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, ae)
}

func (h *LiquidityHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter == nil {
			return next(c)
		}
		ip := c.RealIP()
		if !h.limiter.Allow(ip) {
			wait := h.limiter.RetryAfter(ip)
			c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}
