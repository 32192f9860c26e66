package core

import (
	"time"

	"github.com/vovakirdan/wireirc/internal/proto"
)

// EventKind is a notification the Router emits to its Sink.
type EventKind int

const (
	// EventInbound surfaces a line received from the server.
	EventInbound EventKind = iota
	// EventOutbound reports a line written to the server.
	EventOutbound
	// EventFocus reports a local focus change with no network effect.
	EventFocus
	// EventNotice reports a local, non-fatal condition.
	EventNotice
)

// Event describes something the session did or observed.
type Event struct {
	Kind    EventKind
	Channel string
	Message proto.Message
	Notice  *Notice
	Time    time.Time
}

// Sink receives events from the Router. Deliver is only ever called from
// the Router goroutine.
type Sink interface {
	Deliver(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Deliver calls f.
func (f SinkFunc) Deliver(ev Event) { f(ev) }

type multiSink []Sink

func (m multiSink) Deliver(ev Event) {
	for _, s := range m {
		s.Deliver(ev)
	}
}

// MultiSink fans events out to every non-nil sink in order.
func MultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
