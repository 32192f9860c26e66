package proto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatWireForms(t *testing.T) {
	tests := []struct {
		msg  Message
		want string
	}{
		{Nick("bot"), "NICK bot"},
		{User("bot"), "USER bot 0 * :bot"},
		{UserWithRealname("bot", "Friendly Bot"), "USER bot 0 * :Friendly Bot"},
		{Join("#general"), "JOIN #general"},
		{JoinWithKey("#secret", "hunter2"), "JOIN #secret hunter2"},
		{Ping(":abc"), "PING :abc"},
		{Pong(":server1"), "PONG :server1"},
		{Privmsg("#general", "hello there"), "PRIVMSG #general :hello there"},
		{Raw(":irc.example.org 001 bot :Welcome"), ":irc.example.org 001 bot :Welcome"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.msg), "format %s", tt.msg.Kind)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	messages := []Message{
		Nick("bot"),
		Nick("a|b"),
		User("bot"),
		UserWithRealname("bot", "Friendly Bot"),
		UserWithRealname("bot", "has: colons"),
		Join("#general"),
		Join("#a,#b"),
		JoinWithKey("#secret", "hunter2"),
		Ping(":abc"),
		Ping("irc.example.org"),
		Pong(":server1"),
		Privmsg("#general", "hello there"),
		Privmsg("#general", ":) leading colon"),
		Privmsg("nick", "multiple   inner   spaces"),
		Privmsg("#general", ""),
	}

	for _, m := range messages {
		got := Parse(Format(m))
		assert.Equal(t, m, got, "round trip of %q", Format(m))
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"\t\r\n",
		"nick bot",
		"NICKNAME bot",
		"JOINED #x",
		":server PING :abc",
		"\x00\x01 garbage \xff",
		"PRIVMSG",
		"ünïcödé line",
	}

	for _, in := range inputs {
		require.NotPanics(t, func() { Parse(in) }, "input %q", in)
	}

	for _, in := range []string{"nick bot", "NICKNAME bot", "JOINED #x", ":server PING :abc"} {
		got := Parse(in)
		assert.Equal(t, KindRaw, got.Kind, "input %q", in)
		assert.Equal(t, strings.TrimSpace(in), got.Text)
	}

	assert.Equal(t, Raw(""), Parse(""))
	assert.Equal(t, Raw(""), Parse(" \t "))
}

func TestParseStripsKeywordWhitespace(t *testing.T) {
	assert.Equal(t, Join("#general"), Parse("  JOIN    #general \r\n"))
	assert.Equal(t, Nick("bot"), Parse("NICK\tbot"))
	assert.Equal(t, Join(""), Parse("JOIN"))
	assert.Equal(t, JoinWithKey("#secret", "hunter2"), Parse("JOIN  #secret   hunter2 "))
}

func TestParseClassifiesPing(t *testing.T) {
	msg := Parse("PING :server1\r\n")
	require.Equal(t, KindPing, msg.Kind)
	assert.Equal(t, ":server1", msg.Param)
	assert.Equal(t, "PONG :server1", Format(Pong(msg.Param)))
}

func TestEncodeRejectsUnencodable(t *testing.T) {
	_, err := Encode(Privmsg("#general", "line one\r\nQUIT :injected"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnencodable))

	_, err = Encode(Privmsg("#general", strings.Repeat("x", MaxLineLength)))
	assert.ErrorIs(t, err, ErrUnencodable)

	line, err := Encode(Join("#general"))
	require.NoError(t, err)
	assert.Equal(t, "JOIN #general", line)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "PRIVMSG", KindPrivmsg.String())
	assert.Equal(t, "Kind(42)", Kind(42).String())
}
