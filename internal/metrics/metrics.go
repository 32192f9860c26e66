package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wireirc"

// Metrics holds the session counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	linesRead      prometheus.Counter
	linesWritten   *prometheus.CounterVec
	pingsAnswered  prometheus.Counter
	notices        *prometheus.CounterVec
	encodeFailures prometheus.Counter
}

// New registers the session counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		linesRead: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Lines read from the server.",
		}),
		linesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_written_total",
			Help:      "Lines written to the server, by command.",
		}, []string{"command"}),
		pingsAnswered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pings_answered_total",
			Help:      "Keep-alive probes answered with PONG.",
		}),
		notices: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notices_total",
			Help:      "Local notices reported to the user, by code.",
		}, []string{"code"}),
		encodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encode_failures_total",
			Help:      "Outbound messages dropped because they could not be encoded.",
		}),
	}
}

// LineRead counts a line received from the server.
func (m *Metrics) LineRead() {
	if m == nil {
		return
	}
	m.linesRead.Inc()
}

// LineWritten counts a line written to the server.
func (m *Metrics) LineWritten(command string) {
	if m == nil {
		return
	}
	m.linesWritten.WithLabelValues(command).Inc()
}

// PingAnswered counts a PONG queued in reply to a PING.
func (m *Metrics) PingAnswered() {
	if m == nil {
		return
	}
	m.pingsAnswered.Inc()
}

// Notice counts a local notice.
func (m *Metrics) Notice(code string) {
	if m == nil {
		return
	}
	m.notices.WithLabelValues(code).Inc()
}

// EncodeFailure counts a dropped outbound message.
func (m *Metrics) EncodeFailure() {
	if m == nil {
		return
	}
	m.encodeFailures.Inc()
}
