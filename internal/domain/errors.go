package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotOpen         = errors.New("console connection is not open")
	ErrClientClosed    = errors.New("console client closed")
	ErrUnexpectedClose = errors.New("console connection closed unexpectedly")
	ErrQueueFull       = errors.New("command queue is full")
)

// ConnectionError reports a failed connect to the Console endpoint.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SendError reports a message that could not be written to the Console.
type SendError struct {
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to console: %v", e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }
