package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireirc/internal/core"
	"github.com/vovakirdan/wireirc/internal/metrics"
	"github.com/vovakirdan/wireirc/internal/proto"
	"github.com/vovakirdan/wireirc/internal/transport"
)

// ErrConnectionClosed reports that the server closed the connection.
var ErrConnectionClosed = errors.New("connection closed by server")

// Dispatcher is the part of the Router the network task feeds.
type Dispatcher interface {
	Submitter
	Urgent(ctx context.Context, msg proto.Message) error
}

// NetworkReader reads server lines, answers keep-alive probes and forwards
// every line for display.
type NetworkReader struct {
	conn    transport.LineReader
	router  Dispatcher
	log     *zerolog.Logger
	metrics *metrics.Metrics
}

// NewNetworkReader builds a network task reading from conn.
func NewNetworkReader(conn transport.LineReader, router Dispatcher, logger *zerolog.Logger, m *metrics.Metrics) *NetworkReader {
	return &NetworkReader{conn: conn, router: router, log: logger, metrics: m}
}

// Run reads until the connection fails. Any return while ctx is still live
// means the session is over.
func (n *NetworkReader) Run(ctx context.Context) error {
	for {
		line, err := n.conn.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrConnectionClosed
			}
			return fmt.Errorf("read: %w", err)
		}
		n.metrics.LineRead()

		msg := proto.Parse(line)
		if msg.Kind == proto.KindPing {
			if err := n.router.Urgent(ctx, proto.Pong(msg.Param)); err != nil {
				return n.stopped(ctx, err)
			}
			n.metrics.PingAnswered()
			n.log.Debug().Str("token", msg.Param).Msg("answered ping")
		}

		if err := n.router.Submit(ctx, core.Inbound(msg)); err != nil {
			return n.stopped(ctx, err)
		}
	}
}

// stopped maps a failed hand-off to the router. Cancellation and a stopped
// router mean someone else already ended the session.
func (n *NetworkReader) stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, core.ErrRouterStopped) {
		return nil
	}
	return err
}
