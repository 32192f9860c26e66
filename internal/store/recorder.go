package store

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireirc/internal/core"
)

const (
	recorderBuffer = 256
	recordTimeout  = 2 * time.Second
)

// Recorder is a core.Sink that appends session events to a Transcript.
// Writes happen on a separate goroutine so a slow disk never stalls the
// router; when the buffer is full entries are dropped and logged.
type Recorder struct {
	transcript Transcript
	sessionID  string
	log        *zerolog.Logger

	entries chan Entry
	done    chan struct{}
}

// NewRecorder starts a recorder for one session. Call Close once the
// session has stopped delivering events.
func NewRecorder(t Transcript, sessionID string, logger *zerolog.Logger) *Recorder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	r := &Recorder{
		transcript: t,
		sessionID:  sessionID,
		log:        logger,
		entries:    make(chan Entry, recorderBuffer),
		done:       make(chan struct{}),
	}
	go r.loop()
	return r
}

// Deliver implements core.Sink.
func (r *Recorder) Deliver(ev core.Event) {
	e, ok := r.entryFor(ev)
	if !ok {
		return
	}
	select {
	case r.entries <- e:
	default:
		r.log.Warn().Str("line", e.Line).Msg("transcript buffer full, dropping entry")
	}
}

// Close flushes buffered entries and stops the writer goroutine.
func (r *Recorder) Close() {
	close(r.entries)
	<-r.done
}

func (r *Recorder) loop() {
	defer close(r.done)
	for e := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := r.transcript.Record(ctx, &e); err != nil {
			r.log.Warn().Err(err).Msg("failed to record transcript entry")
		}
		cancel()
	}
}

func (r *Recorder) entryFor(ev core.Event) (Entry, bool) {
	e := Entry{
		SessionID: r.sessionID,
		Channel:   ev.Channel,
		CreatedAt: ev.Time,
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	switch ev.Kind {
	case core.EventInbound:
		e.Direction = DirectionIn
		e.Line = ev.Message.String()
	case core.EventOutbound:
		e.Direction = DirectionOut
		e.Line = ev.Message.String()
		if strings.HasPrefix(e.Line, "PASS ") {
			e.Line = "PASS ***"
		}
	case core.EventNotice:
		if ev.Notice == nil {
			return Entry{}, false
		}
		e.Direction = DirectionNotice
		e.Line = ev.Notice.Code + ": " + ev.Notice.Message
	default:
		return Entry{}, false
	}
	return e, true
}
