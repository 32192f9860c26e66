// Package status exposes a small read-only HTTP surface for a running session.
package status

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireirc/internal/core"
)

const (
	readHeaderTimeout = 5 * time.Second
	snapshotTimeout   = time.Second
)

// Source reports the state of the session being served.
type Source interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// Response is the body of GET /status.
type Response struct {
	SessionID string   `json:"session_id"`
	Current   string   `json:"current"`
	Channels  []string `json:"channels"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers serves the status routes.
type Handlers struct {
	sessionID string
	source    Source
	log       *zerolog.Logger
}

// NewServer builds the status HTTP server with /health, /status and /metrics.
func NewServer(addr, sessionID string, source Source, gatherer prometheus.Gatherer, logger *zerolog.Logger) *http.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	gin.SetMode(gin.ReleaseMode)

	h := &Handlers{sessionID: sessionID, source: source, log: logger}

	r := gin.New()
	r.Use(gin.Recovery(), LoggerMiddleware(logger))
	r.GET("/health", h.Health)
	r.GET("/status", h.Status)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Status reports the joined channels and the current one.
// GET /status
func (h *Handlers) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), snapshotTimeout)
	defer cancel()

	snap, err := h.source.Snapshot(ctx)
	if err != nil {
		h.log.Debug().Err(err).Msg("snapshot unavailable")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "session not running"})
		return
	}

	c.JSON(http.StatusOK, Response{
		SessionID: h.sessionID,
		Current:   snap.Current,
		Channels:  snap.Channels,
	})
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
