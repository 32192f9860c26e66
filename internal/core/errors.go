package core

import "errors"

// Notice codes for local, non-fatal conditions.
const (
	NoticeNoChannel      = "no_channel"
	NoticeUnknownCommand = "unknown_command"
	NoticeSendFailed     = "send_failed"
)

// ErrRouterStopped is returned by Router methods once Run has returned.
var ErrRouterStopped = errors.New("router stopped")

// Notice wraps a code and human-readable message.
type Notice struct {
	Code    string
	Message string
}

func (n *Notice) Error() string {
	return n.Message
}

func notice(code, msg string) *Notice {
	return &Notice{Code: code, Message: msg}
}
