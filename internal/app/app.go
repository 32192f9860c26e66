package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireirc/internal/client"
	"github.com/vovakirdan/wireirc/internal/config"
	"github.com/vovakirdan/wireirc/internal/core"
	"github.com/vovakirdan/wireirc/internal/display"
	"github.com/vovakirdan/wireirc/internal/metrics"
	"github.com/vovakirdan/wireirc/internal/status"
	"github.com/vovakirdan/wireirc/internal/store"
	"github.com/vovakirdan/wireirc/internal/store/sqlite"
	"github.com/vovakirdan/wireirc/internal/transport"
	"github.com/vovakirdan/wireirc/internal/utils"
)

const shutdownTimeout = 2 * time.Second

// App wires together configuration, transport, session and the optional
// transcript and status surfaces.
type App struct {
	cfg      config.Config
	in       io.Reader
	out      io.Writer
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    store.Transcript
	log      *zerolog.Logger
}

// New constructs the application. in carries user commands and out receives
// the rendered conversation.
func New(cfg config.Config, logger *zerolog.Logger, in io.Reader, out io.Writer) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	registry := prometheus.NewRegistry()
	a := &App{
		cfg:      cfg,
		in:       in,
		out:      out,
		registry: registry,
		metrics:  metrics.New(registry),
		log:      logger,
	}

	if cfg.TranscriptPath != "" {
		st, err := sqlite.New(cfg.TranscriptPath)
		if err != nil {
			return nil, fmt.Errorf("init transcript: %w", err)
		}
		a.store = st
		logger.Info().Str("path", cfg.TranscriptPath).Msg("transcript enabled")
	}

	return a, nil
}

// Run connects to the server and blocks until the session ends.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	opts := transport.Options{
		Kind:               a.cfg.Transport,
		Addr:               a.cfg.Addr(),
		URL:                a.cfg.WebSocketURL,
		TLS:                a.cfg.UseTLS,
		InsecureSkipVerify: a.cfg.TLSInsecure,
		DialTimeout:        a.cfg.DialTimeout,
		IdleTimeout:        a.cfg.IdleTimeout,
	}
	target := opts.Addr
	if opts.Kind == transport.KindWebSocket {
		target = opts.URL
	}

	a.log.Info().Str("server", target).Str("transport", a.cfg.Transport).Msg("connecting")
	conn, err := transport.Dial(ctx, opts)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}

	sessionID := utils.NewID()
	sinks := []core.Sink{display.New(a.out, a.cfg.Nickname)}

	var recorder *store.Recorder
	if a.store != nil {
		recorder = store.NewRecorder(a.store, sessionID, a.log)
		sinks = append(sinks, recorder)
	}

	sess := client.New(conn, a.in, core.MultiSink(sinks...), client.Config{
		SessionID:    sessionID,
		Nickname:     a.cfg.Nickname,
		Username:     a.cfg.User(),
		Realname:     a.cfg.Realname,
		Password:     a.cfg.Password,
		Capabilities: a.cfg.Capabilities,
		Channels:     a.cfg.Channels,
		QueueSize:    a.cfg.QueueSize,
		DrainTimeout: a.cfg.DrainTimeout,
	}, a.log, a.metrics)

	var statusSrv *stdhttp.Server
	if a.cfg.StatusAddr != "" {
		statusSrv = status.NewServer(a.cfg.StatusAddr, sess.ID, sess, a.registry, a.log)
		go func() {
			a.log.Info().Str("addr", a.cfg.StatusAddr).Msg("status endpoint listening")
			if err := statusSrv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				a.log.Error().Err(err).Msg("status endpoint failed")
			}
		}()
	}

	runErr := sess.Run(ctx)
	a.closeInput()

	if statusSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := statusSrv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("failed to shut down status endpoint")
		}
		cancel()
	}
	if recorder != nil {
		recorder.Close()
	}

	return runErr
}

// closeInput releases the reader still blocked on user input, if in can be closed.
func (a *App) closeInput() {
	c, ok := a.in.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		a.log.Debug().Err(err).Msg("close input")
	}
}

// cleanup closes the transcript store.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close transcript")
		} else {
			a.log.Info().Msg("transcript closed")
		}
	}
}
