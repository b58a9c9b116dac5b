package domain

import "context"

// ConnectionState is the lifecycle state of the Console connection.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "disconnected"
	}
}

// Console is the send side of a Console connection as seen by the dispatcher.
type Console interface {
	Send(ctx context.Context, text string) error
	Close() error
}

// CommandSource yields the next pending Host command, or "" when idle.
// Poll must not block waiting for a command.
type CommandSource interface {
	Poll(ctx context.Context) (string, error)
}
