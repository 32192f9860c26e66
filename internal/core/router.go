package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireirc/internal/metrics"
	"github.com/vovakirdan/wireirc/internal/proto"
)

const (
	defaultQueueSize    = 32
	defaultDrainTimeout = 2 * time.Second
	urgentQueueSize     = 4
)

// LineWriter is the write half of a connection. The Router is its only caller.
type LineWriter interface {
	WriteLine(ctx context.Context, line string) error
}

// Options configures a Router.
type Options struct {
	// Handshake is written in order before anything else.
	Handshake []proto.Message
	// Channels are joined right after the handshake.
	Channels []string
	// QueueSize bounds the inbound queue.
	QueueSize int
	// DrainTimeout bounds the writes flushed after cancellation.
	DrainTimeout time.Duration
	Metrics      *metrics.Metrics
}

// Router is the single consumer of the inbound queue, the single owner of
// State and the single writer of the connection.
type Router struct {
	out     LineWriter
	sink    Sink
	log     *zerolog.Logger
	metrics *metrics.Metrics

	state     *State
	handshake []proto.Message
	channels  []string
	drain     time.Duration

	inbound chan Command
	urgent  chan proto.Message
	queries chan chan Snapshot
	done    chan struct{}
}

// NewRouter builds a router writing to out and reporting to sink.
func NewRouter(out LineWriter, sink Sink, logger *zerolog.Logger, opts Options) *Router {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = defaultDrainTimeout
	}
	if sink == nil {
		sink = MultiSink()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Router{
		out:       out,
		sink:      sink,
		log:       logger,
		metrics:   opts.Metrics,
		state:     NewState(),
		handshake: append([]proto.Message(nil), opts.Handshake...),
		channels:  append([]string(nil), opts.Channels...),
		drain:     opts.DrainTimeout,
		inbound:   make(chan Command, opts.QueueSize),
		urgent:    make(chan proto.Message, urgentQueueSize),
		queries:   make(chan chan Snapshot),
		done:      make(chan struct{}),
	}
}

// Submit queues cmd, blocking while the queue is full.
func (r *Router) Submit(ctx context.Context, cmd Command) error {
	if r.stopped() {
		return ErrRouterStopped
	}
	select {
	case r.inbound <- cmd:
		return nil
	case <-r.done:
		return ErrRouterStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Urgent queues msg ahead of every ordinary command.
func (r *Router) Urgent(ctx context.Context, msg proto.Message) error {
	if r.stopped() {
		return ErrRouterStopped
	}
	select {
	case r.urgent <- msg:
		return nil
	case <-r.done:
		return ErrRouterStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Router) stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Snapshot asks the Router for a copy of its state.
func (r *Router) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case r.queries <- reply:
	case <-r.done:
		return Snapshot{}, ErrRouterStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Run writes the handshake, joins the initial channels and then processes
// the queues until ctx is cancelled or a write fails. On cancellation the
// queued work is drained before Run returns.
func (r *Router) Run(ctx context.Context) error {
	defer close(r.done)

	for _, msg := range r.handshake {
		if err := r.write(ctx, msg); err != nil {
			return fmt.Errorf("handshake: %w", err)
		}
	}
	for _, ch := range r.channels {
		if err := r.apply(ctx, JoinChannel(ch)); err != nil {
			return err
		}
	}

	for {
		// Keep-alive replies go out before anything else that is queued.
		select {
		case msg := <-r.urgent:
			if err := r.write(ctx, msg); err != nil {
				return err
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			r.flush()
			return nil
		case msg := <-r.urgent:
			if err := r.write(ctx, msg); err != nil {
				return err
			}
		case cmd := <-r.inbound:
			if err := r.apply(ctx, cmd); err != nil {
				return err
			}
		case reply := <-r.queries:
			reply <- r.state.Snapshot()
		}
	}
}

// apply performs one state transition and at most one write.
func (r *Router) apply(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case CommandJoinChannel:
		return r.join(ctx, cmd.Channel, cmd.Text)
	case CommandSwitchChannel:
		if r.state.Focus(cmd.Channel) {
			r.log.Debug().Str("channel", cmd.Channel).Msg("focus changed")
			r.emit(Event{Kind: EventFocus, Channel: cmd.Channel})
			return nil
		}
		return r.join(ctx, cmd.Channel, "")
	case CommandSendMessage:
		current, ok := r.state.Current()
		if !ok {
			r.notify(notice(NoticeNoChannel, "no channel selected, use /join <channel>"))
			return nil
		}
		return r.write(ctx, proto.Privmsg(current, cmd.Text))
	case CommandSendRaw:
		return r.write(ctx, cmd.Message)
	case CommandQuit:
		reason := cmd.Text
		if reason == "" {
			reason = "leaving"
		}
		return r.write(ctx, proto.Raw("QUIT :"+reason))
	case CommandInbound:
		r.emit(Event{Kind: EventInbound, Channel: channelOf(cmd.Message), Message: cmd.Message})
		return nil
	default:
		r.notify(notice(NoticeUnknownCommand, fmt.Sprintf("unrecognized command: %q", cmd.Text)))
		return nil
	}
}

func (r *Router) join(ctx context.Context, channel, key string) error {
	if r.state.Join(channel) {
		r.log.Debug().Str("channel", channel).Msg("channel added")
	}
	return r.write(ctx, proto.JoinWithKey(channel, key))
}

// write encodes and sends msg. Encoding failures only drop msg; transport
// failures are returned and end the session.
func (r *Router) write(ctx context.Context, msg proto.Message) error {
	line, err := proto.Encode(msg)
	if err != nil {
		r.log.Warn().Err(err).Str("kind", msg.Kind.String()).Msg("dropping outbound message")
		r.metrics.EncodeFailure()
		r.notify(notice(NoticeSendFailed, err.Error()))
		return nil
	}

	if err := r.out.WriteLine(ctx, line); err != nil {
		return fmt.Errorf("write %s: %w", msg.Kind, err)
	}

	r.metrics.LineWritten(msg.Kind.String())
	r.emit(Event{Kind: EventOutbound, Channel: channelOf(msg), Message: msg})
	return nil
}

func channelOf(msg proto.Message) string {
	switch msg.Kind {
	case proto.KindJoin, proto.KindPrivmsg:
		return msg.Param
	default:
		return ""
	}
}

// flush drains whatever was queued before cancellation, urgent first, with
// a fresh deadline since ctx is already done.
func (r *Router) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), r.drain)
	defer cancel()

	for {
		var err error
		select {
		case msg := <-r.urgent:
			err = r.write(ctx, msg)
		default:
			select {
			case msg := <-r.urgent:
				err = r.write(ctx, msg)
			case cmd := <-r.inbound:
				err = r.apply(ctx, cmd)
			default:
				return
			}
		}
		if err != nil {
			r.log.Debug().Err(err).Msg("drain stopped")
			return
		}
	}
}

func (r *Router) notify(n *Notice) {
	r.metrics.Notice(n.Code)
	r.emit(Event{Kind: EventNotice, Notice: n})
}

func (r *Router) emit(ev Event) {
	ev.Time = time.Now()
	r.sink.Deliver(ev)
}
