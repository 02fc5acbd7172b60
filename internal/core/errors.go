package core

import "errors"

var (
	// ErrChannelClosed is returned by a Channel that no longer accepts writes.
	ErrChannelClosed = errors.New("channel closed")
	// ErrChannelFull is returned by a Channel whose outbound buffer is saturated.
	ErrChannelFull = errors.New("channel buffer full")
	// ErrUnsupportedKind is returned when a resolver is asked about a kind it cannot answer for.
	ErrUnsupportedKind = errors.New("unsupported resource kind")
)
