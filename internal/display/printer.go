// Package display renders session events for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/wireirc/internal/core"
	"github.com/vovakirdan/wireirc/internal/proto"
)

// Printer writes one line per event. It is a core.Sink and, like every
// sink, is only called from the router goroutine.
type Printer struct {
	out  io.Writer
	nick string

	channel lipgloss.Style
	self    lipgloss.Style
	notice  lipgloss.Style
	status  lipgloss.Style
}

// New builds a printer for out. Colours are used only when out is a terminal.
func New(out io.Writer, nick string) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		nick:    nick,
		channel: r.NewStyle().Foreground(lipgloss.Color("#5EEAD4")).Bold(true),
		self:    r.NewStyle().Foreground(lipgloss.Color("#EAB308")).Bold(true),
		notice:  r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		status:  r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
	}
}

// Deliver implements core.Sink.
func (p *Printer) Deliver(ev core.Event) {
	line, ok := p.render(ev)
	if !ok {
		return
	}
	_, _ = fmt.Fprintln(p.out, line)
}

func (p *Printer) render(ev core.Event) (string, bool) {
	switch ev.Kind {
	case core.EventInbound:
		if from, msg, ok := chatLine(ev.Message); ok {
			return fmt.Sprintf("%s %s %s",
				p.channel.Render("["+msg.Param+"]"),
				"<"+from+">",
				msg.Text), true
		}
		return ev.Message.String(), true
	case core.EventOutbound:
		switch ev.Message.Kind {
		case proto.KindPrivmsg:
			return fmt.Sprintf("%s %s %s",
				p.channel.Render("["+ev.Message.Param+"]"),
				p.self.Render("<"+p.nick+">"),
				ev.Message.Text), true
		case proto.KindJoin:
			return p.status.Render("-> joining ") + p.channel.Render(ev.Channel), true
		default:
			// Handshake, PONG and raw lines are protocol noise here.
			return "", false
		}
	case core.EventFocus:
		return p.status.Render("-> now talking in ") + p.channel.Render(ev.Channel), true
	case core.EventNotice:
		if ev.Notice == nil {
			return "", false
		}
		return p.notice.Render("! " + ev.Notice.Message), true
	default:
		return "", false
	}
}

// chatLine recognises a server-relayed PRIVMSG, ":nick!user@host PRIVMSG
// target :text", and returns the sender's nick with the message.
func chatLine(m proto.Message) (string, proto.Message, bool) {
	if m.Kind != proto.KindRaw || !strings.HasPrefix(m.Text, ":") {
		return "", proto.Message{}, false
	}
	prefix, rest, ok := strings.Cut(m.Text[1:], " ")
	if !ok {
		return "", proto.Message{}, false
	}
	msg := proto.Parse(rest)
	if msg.Kind != proto.KindPrivmsg || msg.Param == "" {
		return "", proto.Message{}, false
	}
	nick, _, _ := strings.Cut(prefix, "!")
	return nick, msg, true
}
