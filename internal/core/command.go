package core

import (
	"strings"

	"github.com/vovakirdan/wireirc/internal/proto"
)

// CommandKind describes what the Router is asked to do.
type CommandKind int

const (
	// CommandUnknown is any local input that is not a recognised command.
	CommandUnknown CommandKind = iota
	// CommandJoinChannel joins a channel and focuses it.
	CommandJoinChannel
	// CommandSendMessage sends text to the focused channel.
	CommandSendMessage
	// CommandSwitchChannel focuses a channel, joining it first if needed.
	CommandSwitchChannel
	// CommandSendRaw writes a protocol message as is.
	CommandSendRaw
	// CommandQuit asks the server to end the session.
	CommandQuit
	// CommandInbound surfaces a line received from the server.
	CommandInbound
)

var commandNames = map[CommandKind]string{
	CommandUnknown:       "unknown",
	CommandJoinChannel:   "join",
	CommandSendMessage:   "msg",
	CommandSwitchChannel: "switch",
	CommandSendRaw:       "raw",
	CommandQuit:          "quit",
	CommandInbound:       "inbound",
}

func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "invalid"
}

// Command is a unit of work routed to the Router.
type Command struct {
	Kind    CommandKind
	Channel string
	Text    string
	Message proto.Message
}

// JoinChannel builds a join command.
func JoinChannel(channel string) Command {
	return Command{Kind: CommandJoinChannel, Channel: channel}
}

// JoinChannelWithKey builds a join command for a keyed channel. The key is
// sent to the server but never becomes part of the channel name.
func JoinChannelWithKey(channel, key string) Command {
	return Command{Kind: CommandJoinChannel, Channel: channel, Text: key}
}

// SendMessage builds a command sending text to the focused channel.
func SendMessage(text string) Command {
	return Command{Kind: CommandSendMessage, Text: text}
}

// SwitchChannel builds a focus-change command.
func SwitchChannel(channel string) Command {
	return Command{Kind: CommandSwitchChannel, Channel: channel}
}

// SendRaw builds a passthrough command.
func SendRaw(msg proto.Message) Command {
	return Command{Kind: CommandSendRaw, Message: msg}
}

// Quit builds a quit command with an optional reason.
func Quit(reason string) Command {
	return Command{Kind: CommandQuit, Text: reason}
}

// Inbound wraps a message read from the server.
func Inbound(msg proto.Message) Command {
	return Command{Kind: CommandInbound, Message: msg}
}

// Unknown records unrecognised input.
func Unknown(input string) Command {
	return Command{Kind: CommandUnknown, Text: input}
}

// ParseCommand turns a line typed by the user into a Command.
// It never fails: unrecognised input becomes CommandUnknown.
func ParseCommand(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Unknown(line)
	}

	switch fields[0] {
	case "/join":
		if len(fields) > 1 {
			return JoinChannel(fields[1])
		}
	case "/msg":
		if len(fields) > 1 {
			return SendMessage(strings.Join(fields[1:], " "))
		}
	case "/switch":
		if len(fields) > 1 {
			return SwitchChannel(fields[1])
		}
	case "/raw":
		if len(fields) > 1 {
			return SendRaw(proto.Raw(afterToken(line)))
		}
	case "/quit":
		return Quit(strings.Join(fields[1:], " "))
	case "JOIN":
		// Raw-mode join goes through the codec so the session still tracks it.
		if msg := proto.Parse(line); msg.Kind == proto.KindJoin && msg.Param != "" {
			return JoinChannelWithKey(msg.Param, msg.Text)
		}
	}

	return Unknown(strings.TrimSpace(line))
}

// afterToken returns line without its first token and surrounding whitespace.
func afterToken(line string) string {
	trimmed := strings.TrimSpace(line)
	i := strings.IndexAny(trimmed, " \t")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(trimmed[i:])
}
