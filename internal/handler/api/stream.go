package api

import (
	"context"
	"time"

	"GlobalLiquidity/internal/domain/models"
	xhttp "GlobalLiquidity/pkg/http"
	xlogger "GlobalLiquidity/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// streamMessage is one websocket frame. Exactly one of Table and Error is set.
type streamMessage struct {
	Type  string              `json:"type"`
	Table *models.ResultTable `json:"table,omitempty"`
	Error *xhttp.AppError     `json:"error,omitempty"`
}

// Stream upgrades to a websocket and pushes the table now and on every
// interval until the client goes away. The table is served from cache
// until it expires, so clients see a new run id after each recomputation.
func (h *LiquidityHandler) Stream(c echo.Context) error {
	req := &models.LiquidityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p := req.Params()

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// reader: handles pongs and notices the client closing
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := h.logger.With(xlogger.String("remote", c.RealIP()))
	log.Debug("stream opened", xlogger.Int("lookback_years", p.LookbackYears), xlogger.Int("shift_months", p.ShiftMonths))

	push := func() error {
		msg := streamMessage{Type: "table"}
		t, err := h.svc.Compute(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			msg = streamMessage{Type: "error", Error: appError(err)}
		} else {
			msg.Table = t
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	if err := push(); err != nil {
		return nil
	}

	tick := time.NewTicker(h.streamInterval)
	defer tick.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("stream closed")
			return nil
		case <-tick.C:
			if err := push(); err != nil {
				log.Debug("stream write failed", xlogger.Error(err))
				return nil
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		}
	}
}
