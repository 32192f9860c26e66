// Package transport provides line-oriented connections to an IRC server.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kinds of transport.
const (
	KindTCP       = "tcp"
	KindWebSocket = "websocket"
)

// ErrIdleTimeout is returned by ReadLine when nothing arrived within the
// configured idle interval.
var ErrIdleTimeout = errors.New("idle timeout")

// LineReader is the read half of a connection.
type LineReader interface {
	// ReadLine returns the next line without its terminator.
	ReadLine(ctx context.Context) (string, error)
}

// LineWriter is the write half of a connection.
type LineWriter interface {
	// WriteLine writes one line, adding the terminator the transport needs.
	WriteLine(ctx context.Context, line string) error
}

// Conn is an established connection. Its halves may be used from different
// goroutines, but each half from at most one goroutine at a time.
type Conn interface {
	LineReader
	LineWriter
	Close() error
}

// Options describes how to reach the server.
type Options struct {
	Kind string
	// Addr is host:port for TCP.
	Addr string
	// URL is the ws:// or wss:// endpoint for WebSocket.
	URL                string
	TLS                bool
	InsecureSkipVerify bool
	DialTimeout        time.Duration
	// IdleTimeout closes the read side when no line arrives in time. Zero disables it.
	IdleTimeout time.Duration
}

// Dial connects according to opts.
func Dial(ctx context.Context, opts Options) (Conn, error) {
	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}

	switch opts.Kind {
	case "", KindTCP:
		return DialTCP(ctx, opts)
	case KindWebSocket:
		return DialWebSocket(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Kind)
	}
}
