package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wireirc/internal/core"
	"github.com/vovakirdan/wireirc/internal/metrics"
	"github.com/vovakirdan/wireirc/internal/proto"
	"github.com/vovakirdan/wireirc/internal/transport"
	"github.com/vovakirdan/wireirc/internal/utils"
)

const defaultDrainTimeout = 2 * time.Second

// Config is what a session needs from the user's configuration.
type Config struct {
	// SessionID tags logs and transcript entries; generated when empty.
	SessionID    string
	Nickname     string
	Username     string
	Realname     string
	Password     string
	Capabilities []string
	Channels     []string
	QueueSize    int
	DrainTimeout time.Duration
}

// Handshake returns the registration lines sent right after connecting.
func Handshake(cfg Config) []proto.Message {
	var lines []proto.Message
	if cfg.Password != "" {
		lines = append(lines, proto.Raw("PASS "+cfg.Password))
	}
	if len(cfg.Capabilities) > 0 {
		lines = append(lines, proto.Raw("CAP REQ :"+strings.Join(cfg.Capabilities, " ")))
	}

	user := cfg.Username
	if user == "" {
		user = cfg.Nickname
	}
	lines = append(lines, proto.Nick(cfg.Nickname), proto.UserWithRealname(user, cfg.Realname))

	if len(cfg.Capabilities) > 0 {
		lines = append(lines, proto.Raw("CAP END"))
	}
	return lines
}

// Session runs one connected client: router, network reader and input reader.
type Session struct {
	ID string

	conn      transport.Conn
	closeOnce sync.Once
	drain     time.Duration

	router  *core.Router
	network *NetworkReader
	input   *InputReader
	log     *zerolog.Logger
}

// New builds a session over an established connection. in is the user's
// input; sink receives everything the router does.
func New(conn transport.Conn, in io.Reader, sink core.Sink, cfg Config, logger *zerolog.Logger, m *metrics.Metrics) *Session {
	id := cfg.SessionID
	if id == "" {
		id = utils.NewID()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	sessionLog := logger.With().Str("session_id", id).Logger()

	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = defaultDrainTimeout
	}

	router := core.NewRouter(conn, sink, &sessionLog, core.Options{
		Handshake:    Handshake(cfg),
		Channels:     cfg.Channels,
		QueueSize:    cfg.QueueSize,
		DrainTimeout: drain,
		Metrics:      m,
	})

	return &Session{
		ID:      id,
		conn:    conn,
		drain:   drain,
		router:  router,
		network: NewNetworkReader(conn, router, &sessionLog, m),
		input:   NewInputReader(in, router, &sessionLog),
		log:     &sessionLog,
	}
}

// Snapshot returns the current channel state.
func (s *Session) Snapshot(ctx context.Context) (core.Snapshot, error) {
	return s.router.Snapshot(ctx)
}

// Run blocks until the session ends: the server closes the connection, a
// task fails, or ctx is cancelled. A server-side close is a normal end.
func (s *Session) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	routerDone := make(chan struct{})

	g.Go(func() error {
		defer close(routerDone)
		// The connection outlives the router so queued writes can drain.
		defer s.closeConn()
		return s.router.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		select {
		case <-routerDone:
		case <-time.After(s.drain + time.Second):
			s.log.Warn().Msg("router did not drain in time, closing connection")
			s.closeConn()
		}
		return nil
	})
	g.Go(func() error {
		return s.network.Run(gctx)
	})
	g.Go(func() error {
		return s.input.Run(gctx)
	})

	s.log.Info().Msg("session started")
	err := g.Wait()
	switch {
	case err == nil:
		s.log.Info().Msg("session stopped")
	case errors.Is(err, ErrConnectionClosed):
		s.log.Info().Msg("server closed the connection")
		err = nil
	default:
		s.log.Error().Err(err).Msg("session ended with error")
	}
	return err
}

func (s *Session) closeConn() {
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close connection")
		}
	})
}
