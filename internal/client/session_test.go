package client

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vovakirdan/wireirc/internal/core"
	"github.com/vovakirdan/wireirc/internal/proto"
	"github.com/vovakirdan/wireirc/internal/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeServer is the far end of a net.Pipe session.
type fakeServer struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func (s *fakeServer) expect(want string) {
	s.t.Helper()
	require.NoError(s.t, s.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := s.r.ReadString('\n')
	require.NoError(s.t, err, "waiting for %q", want)
	assert.Equal(s.t, want+"\r\n", line)
}

func (s *fakeServer) send(line string) {
	s.t.Helper()
	require.NoError(s.t, s.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := io.WriteString(s.conn, line+"\r\n")
	require.NoError(s.t, err)
}

type eventLog struct {
	mu     sync.Mutex
	events []core.Event
}

func (l *eventLog) Deliver(ev core.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) notices() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var codes []string
	for _, ev := range l.events {
		if ev.Kind == core.EventNotice {
			codes = append(codes, ev.Notice.Code)
		}
	}
	return codes
}

func (l *eventLog) inbound() []proto.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	var msgs []proto.Message
	for _, ev := range l.events {
		if ev.Kind == core.EventInbound {
			msgs = append(msgs, ev.Message)
		}
	}
	return msgs
}

type harness struct {
	server  *fakeServer
	input   *io.PipeWriter
	events  *eventLog
	session *Session
	done    chan struct{}
	err     error
	cancel  context.CancelFunc
}

func startSession(t *testing.T, cfg Config, idle time.Duration) *harness {
	t.Helper()

	clientSide, serverSide := net.Pipe()
	inR, inW := io.Pipe()
	events := &eventLog{}

	sess := New(transport.NewLineConn(clientSide, idle), inR, events, cfg, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		server:  &fakeServer{t: t, conn: serverSide, r: bufio.NewReader(serverSide)},
		input:   inW,
		events:  events,
		session: sess,
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go func() {
		h.err = sess.Run(ctx)
		close(h.done)
	}()

	t.Cleanup(func() {
		cancel()
		serverSide.Close()
		inW.Close()
		select {
		case <-h.done:
		case <-time.After(5 * time.Second):
			t.Errorf("session did not stop")
		}
	})
	return h
}

func (h *harness) typeLine(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(h.input, line+"\n")
	require.NoError(t, err)
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case <-h.done:
		return h.err
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
		return nil
	}
}

func TestSessionEndToEnd(t *testing.T) {
	h := startSession(t, Config{Nickname: "bot", Channels: []string{"#general"}}, 0)

	h.server.expect("NICK bot")
	h.server.expect("USER bot 0 * :bot")
	h.server.expect("JOIN #general")

	h.typeLine(t, "/msg hello there")
	h.server.expect("PRIVMSG #general :hello there")

	h.server.send("PING :abc")
	h.server.expect("PONG :abc")

	require.Eventually(t, func() bool {
		for _, msg := range h.events.inbound() {
			if msg.Kind == proto.KindPing {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "ping should be surfaced for display")

	h.server.conn.Close()
	assert.NoError(t, h.wait(t), "server close is a normal end")
}

func TestSessionOrderingScenario(t *testing.T) {
	h := startSession(t, Config{Nickname: "bot"}, 0)
	h.server.expect("NICK bot")
	h.server.expect("USER bot 0 * :bot")

	h.typeLine(t, "/join #a")
	h.typeLine(t, "/switch #b")

	h.server.expect("JOIN #a")
	h.server.expect("JOIN #b")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	snap, err := h.session.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#b", snap.Current)
	assert.Equal(t, []string{"#a", "#b"}, snap.Channels)
}

func TestSessionLocalMisuseIsNotFatal(t *testing.T) {
	h := startSession(t, Config{Nickname: "bot"}, 0)
	h.server.expect("NICK bot")
	h.server.expect("USER bot 0 * :bot")

	h.typeLine(t, "/msg anyone there?")
	h.typeLine(t, "what is this")
	h.typeLine(t, "")
	h.typeLine(t, "JOIN #raw")
	h.server.expect("JOIN #raw")

	assert.Equal(t, []string{core.NoticeNoChannel, core.NoticeUnknownCommand}, h.events.notices())
}

func TestSessionSurvivesInputEOF(t *testing.T) {
	h := startSession(t, Config{Nickname: "bot"}, 0)
	h.server.expect("NICK bot")
	h.server.expect("USER bot 0 * :bot")

	require.NoError(t, h.input.Close())

	h.server.send("PING :still-alive")
	h.server.expect("PONG :still-alive")

	select {
	case <-h.done:
		t.Fatalf("session ended after input EOF: %v", h.err)
	default:
	}
}

func TestSessionCancelDrainsAndCloses(t *testing.T) {
	h := startSession(t, Config{Nickname: "bot", Channels: []string{"#a"}}, 0)
	h.server.expect("NICK bot")
	h.server.expect("USER bot 0 * :bot")
	h.server.expect("JOIN #a")

	h.cancel()
	assert.NoError(t, h.wait(t))

	require.NoError(t, h.server.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := h.server.r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF, "connection is closed after the router stops")
}

func TestSessionIdleTimeout(t *testing.T) {
	h := startSession(t, Config{Nickname: "bot", DrainTimeout: 100 * time.Millisecond}, 100*time.Millisecond)
	h.server.expect("NICK bot")
	h.server.expect("USER bot 0 * :bot")

	err := h.wait(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, transport.ErrIdleTimeout)
}

func TestHandshake(t *testing.T) {
	assert.Equal(t, []proto.Message{proto.Nick("bot"), proto.User("bot")}, Handshake(Config{Nickname: "bot"}))

	full := Handshake(Config{
		Nickname:     "bot",
		Username:     "botuser",
		Realname:     "Friendly Bot",
		Password:     "secret",
		Capabilities: []string{"multi-prefix", "away-notify"},
	})

	var lines []string
	for _, m := range full {
		lines = append(lines, proto.Format(m))
	}
	assert.Equal(t, []string{
		"PASS secret",
		"CAP REQ :multi-prefix away-notify",
		"NICK bot",
		"USER botuser 0 * :Friendly Bot",
		"CAP END",
	}, lines)
}
