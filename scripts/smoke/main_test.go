package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wireirc/internal/transport"
)

func TestSmokeJoinsOnlyAfterWelcome(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()
	require.NoError(t, serverSide.SetDeadline(time.Now().Add(3*time.Second)))

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		conn := transport.NewLineConn(clientSide, 0)
		defer conn.Close()
		done <- smoke(context.Background(), conn, smokeConfig{nick: "tester", channel: "#general", text: "hi"}, &out)
	}()

	r := bufio.NewReader(serverSide)
	expect := func(want string) {
		t.Helper()
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, want, strings.TrimRight(line, "\r\n"))
	}
	send := func(line string) {
		t.Helper()
		_, err := io.WriteString(serverSide, line+"\r\n")
		require.NoError(t, err)
	}

	expect("NICK tester")
	expect("USER tester 0 * :tester")

	// Nothing else may be written before registration completes.
	send("PING :early")
	expect("PONG :early")

	send(":irc.example.org 001 tester :Welcome")
	expect("JOIN #general")
	expect("PRIVMSG #general :hi")

	send(":irc.example.org 001 tester :Welcome again")
	send("PING :late")
	expect("PONG :late")

	require.NoError(t, serverSide.Close())
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "< :irc.example.org 001 tester :Welcome")
}

func TestSmokeStopsOnNickInUse(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer serverSide.Close()
	require.NoError(t, serverSide.SetDeadline(time.Now().Add(3*time.Second)))

	done := make(chan error, 1)
	go func() {
		conn := transport.NewLineConn(clientSide, 0)
		defer conn.Close()
		done <- smoke(context.Background(), conn, smokeConfig{nick: "tester", channel: "#general", text: "hi"}, io.Discard)
	}()

	r := bufio.NewReader(serverSide)
	for range 2 {
		_, err := r.ReadString('\n')
		require.NoError(t, err)
	}
	_, err := io.WriteString(serverSide, ":irc.example.org 433 * tester :Nickname is already in use\r\n")
	require.NoError(t, err)

	assert.ErrorContains(t, <-done, "nickname already in use")
}
