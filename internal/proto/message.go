package proto

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxLineLength is the longest line accepted on the wire, excluding CRLF.
const MaxLineLength = 510

// ErrUnencodable reports a message that cannot be put on the wire as one line.
var ErrUnencodable = errors.New("unencodable message")

// Kind identifies the variant of a Message.
type Kind int

const (
	// KindRaw carries a line the codec does not model, verbatim.
	KindRaw Kind = iota
	// KindNick sets the nickname.
	KindNick
	// KindUser registers the user name and realname.
	KindUser
	// KindJoin joins a channel.
	KindJoin
	// KindPing is a liveness probe.
	KindPing
	// KindPong answers a liveness probe.
	KindPong
	// KindPrivmsg sends text to a channel or nick.
	KindPrivmsg
)

var kindNames = map[Kind]string{
	KindRaw:     "RAW",
	KindNick:    "NICK",
	KindUser:    "USER",
	KindJoin:    "JOIN",
	KindPing:    "PING",
	KindPong:    "PONG",
	KindPrivmsg: "PRIVMSG",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Message is a single protocol line in typed form.
type Message struct {
	Kind Kind
	// Param is the nick, user name, channel, ping token or privmsg target.
	Param string
	// Text is the raw line, the realname, the channel key or the privmsg body.
	Text string
}

// Raw wraps a line the codec does not model.
func Raw(line string) Message { return Message{Kind: KindRaw, Text: line} }

// Nick builds a NICK message.
func Nick(name string) Message { return Message{Kind: KindNick, Param: name} }

// User builds a USER message whose realname equals the user name.
func User(name string) Message { return Message{Kind: KindUser, Param: name} }

// UserWithRealname builds a USER message with a distinct realname.
func UserWithRealname(name, realname string) Message {
	if realname == name {
		realname = ""
	}
	return Message{Kind: KindUser, Param: name, Text: realname}
}

// Join builds a JOIN message.
func Join(channel string) Message { return Message{Kind: KindJoin, Param: channel} }

// JoinWithKey builds a JOIN message for a channel protected by key.
func JoinWithKey(channel, key string) Message {
	return Message{Kind: KindJoin, Param: channel, Text: key}
}

// Ping builds a PING message.
func Ping(token string) Message { return Message{Kind: KindPing, Param: token} }

// Pong builds a PONG message echoing token.
func Pong(token string) Message { return Message{Kind: KindPong, Param: token} }

// Privmsg builds a PRIVMSG message.
func Privmsg(target, text string) Message {
	return Message{Kind: KindPrivmsg, Param: target, Text: text}
}

// Parse classifies a line. It never fails: anything it does not recognise
// comes back as Raw.
func Parse(line string) Message {
	trimmed := strings.TrimSpace(line)
	keyword, rest := splitToken(trimmed)

	switch keyword {
	case "NICK":
		return Nick(rest)
	case "USER":
		name, params := splitToken(rest)
		realname := ""
		if _, trailing, ok := strings.Cut(params, ":"); ok {
			realname = trailing
		}
		return UserWithRealname(name, realname)
	case "JOIN":
		channel, key := splitToken(rest)
		return JoinWithKey(channel, key)
	case "PING":
		return Ping(rest)
	case "PONG":
		return Pong(rest)
	case "PRIVMSG":
		target, body := splitToken(rest)
		return Privmsg(target, strings.TrimPrefix(body, ":"))
	default:
		return Raw(trimmed)
	}
}

// Format renders the wire form of m without a line terminator.
func Format(m Message) string {
	switch m.Kind {
	case KindNick:
		return withParam("NICK", m.Param)
	case KindUser:
		realname := m.Text
		if realname == "" {
			realname = m.Param
		}
		return fmt.Sprintf("USER %s 0 * :%s", m.Param, realname)
	case KindJoin:
		if m.Text != "" {
			return withParam("JOIN", m.Param) + " " + m.Text
		}
		return withParam("JOIN", m.Param)
	case KindPing:
		return withParam("PING", m.Param)
	case KindPong:
		return withParam("PONG", m.Param)
	case KindPrivmsg:
		return "PRIVMSG " + m.Param + " :" + m.Text
	default:
		return m.Text
	}
}

// Encode formats m and checks that it fits on the wire as a single line.
func Encode(m Message) (string, error) {
	line := Format(m)
	if i := strings.IndexAny(line, "\r\n\x00"); i >= 0 {
		return "", fmt.Errorf("%w: %s contains control byte at %d", ErrUnencodable, m.Kind, i)
	}
	if len(line) > MaxLineLength {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrUnencodable, m.Kind, len(line), MaxLineLength)
	}
	return line, nil
}

func (m Message) String() string {
	return Format(m)
}

func withParam(keyword, param string) string {
	if param == "" {
		return keyword
	}
	return keyword + " " + param
}

// splitToken returns the first whitespace-delimited token of s and the
// remainder with its leading whitespace removed.
func splitToken(s string) (string, string) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}
