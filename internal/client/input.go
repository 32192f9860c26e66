package client

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireirc/internal/core"
)

// Submitter is the part of the Router the reader tasks feed.
type Submitter interface {
	Submit(ctx context.Context, cmd core.Command) error
}

// InputReader turns lines typed by the user into commands.
type InputReader struct {
	in     io.Reader
	router Submitter
	log    *zerolog.Logger
}

// NewInputReader builds an input task reading from in.
func NewInputReader(in io.Reader, router Submitter, logger *zerolog.Logger) *InputReader {
	return &InputReader{in: in, router: router, log: logger}
}

// Run reads until the input ends or ctx is cancelled. Neither case is an
// error: losing the keyboard does not end the session.
//
// A Read already blocked on in cannot be interrupted, so the scanning
// goroutine lives until in returns; the owner of in should close it once
// the session is over.
func (r *InputReader) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			r.log.Warn().Err(err).Msg("read input")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				r.log.Debug().Msg("input closed")
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}

			cmd := core.ParseCommand(line)
			if err := r.router.Submit(ctx, cmd); err != nil {
				r.log.Debug().Err(err).Str("command", cmd.Kind.String()).Msg("input stopped")
				return nil
			}
		}
	}
}
