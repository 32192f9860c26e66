package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

type lineConn struct {
	conn net.Conn
	r    *bufio.Reader
	idle time.Duration
}

// DialTCP opens a plain or TLS TCP connection to opts.Addr.
func DialTCP(ctx context.Context, opts Options) (Conn, error) {
	dialer := &net.Dialer{}

	var (
		conn net.Conn
		err  error
	)
	if opts.TLS {
		host, _, splitErr := net.SplitHostPort(opts.Addr)
		if splitErr != nil {
			return nil, fmt.Errorf("parse addr %q: %w", opts.Addr, splitErr)
		}
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config: &tls.Config{
				ServerName:         host,
				InsecureSkipVerify: opts.InsecureSkipVerify,
				MinVersion:         tls.VersionTLS12,
			},
		}
		conn, err = tlsDialer.DialContext(ctx, "tcp", opts.Addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", opts.Addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.Addr, err)
	}

	return NewLineConn(conn, opts.IdleTimeout), nil
}

// NewLineConn wraps an established stream connection with CRLF framing.
func NewLineConn(conn net.Conn, idle time.Duration) Conn {
	return &lineConn{conn: conn, r: bufio.NewReader(conn), idle: idle}
}

// ReadLine blocks until a full line arrives. It does not watch ctx; Close
// unblocks it, which lets the writer drain before the connection goes away.
func (c *lineConn) ReadLine(_ context.Context) (string, error) {
	if c.idle > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
			return "", err
		}
	}

	line, err := c.r.ReadString('\n')
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("%w: nothing received for %s", ErrIdleTimeout, c.idle)
		}
		if errors.Is(err, io.EOF) && line != "" {
			// Final line without terminator; the next call reports EOF.
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *lineConn) WriteLine(ctx context.Context, line string) error {
	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := io.WriteString(c.conn, line+"\r\n")
	return err
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}
