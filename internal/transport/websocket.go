package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// Subprotocol is the IRCv3 WebSocket subprotocol carrying one line per text frame.
const Subprotocol = "text.ircv3.net"

const wsReadLimit = 8192

type wsConn struct {
	conn    *websocket.Conn
	idle    time.Duration
	pending []string
}

// DialWebSocket opens an IRC-over-WebSocket connection to opts.URL.
func DialWebSocket(ctx context.Context, opts Options) (Conn, error) {
	dialOpts := &websocket.DialOptions{Subprotocols: []string{Subprotocol}}
	if opts.InsecureSkipVerify {
		dialOpts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}

	conn, _, err := websocket.Dial(ctx, opts.URL, dialOpts)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.URL, err)
	}
	return NewWebSocketConn(conn, opts.IdleTimeout), nil
}

// NewWebSocketConn wraps an established WebSocket connection.
func NewWebSocketConn(conn *websocket.Conn, idle time.Duration) Conn {
	conn.SetReadLimit(wsReadLimit)
	return &wsConn{conn: conn, idle: idle}
}

// ReadLine returns the next line. Cancelling a read closes a WebSocket, so
// ctx cancellation is ignored here and Close is what unblocks the reader.
func (c *wsConn) ReadLine(ctx context.Context) (string, error) {
	for len(c.pending) == 0 {
		readCtx := context.WithoutCancel(ctx)
		var cancel context.CancelFunc = func() {}
		if c.idle > 0 {
			readCtx, cancel = context.WithTimeout(readCtx, c.idle)
		}
		typ, data, err := c.conn.Read(readCtx)
		timedOut := errors.Is(readCtx.Err(), context.DeadlineExceeded)
		cancel()
		if err != nil {
			if timedOut {
				return "", fmt.Errorf("%w: nothing received for %s", ErrIdleTimeout, c.idle)
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return "", io.EOF
			}
			return "", err
		}
		if typ != websocket.MessageText {
			continue
		}
		// Servers send one line per frame; tolerate batched lines anyway.
		for _, line := range strings.Split(strings.TrimRight(string(data), "\r\n"), "\n") {
			c.pending = append(c.pending, strings.TrimRight(line, "\r"))
		}
	}

	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

func (c *wsConn) WriteLine(ctx context.Context, line string) error {
	return c.conn.Write(ctx, websocket.MessageText, []byte(line))
}

func (c *wsConn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "bye")
	if err != nil && websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return nil
	}
	return err
}
