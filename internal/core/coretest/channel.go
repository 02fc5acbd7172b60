// Package coretest provides a recording core.Channel for tests of packages
// that deliver through the router.
package coretest

import (
	"sync"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
)

// Channel records every message sent to it.
type Channel struct {
	mu     sync.Mutex
	msgs   []core.BroadcastMessage
	closed bool
	reason string
}

// NewChannel returns an open recording channel.
func NewChannel() *Channel {
	return &Channel{}
}

func (c *Channel) Send(msg core.BroadcastMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrChannelClosed
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *Channel) Close(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.reason = reason
	return nil
}

// Messages returns a copy of everything received so far.
func (c *Channel) Messages() []core.BroadcastMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.BroadcastMessage(nil), c.msgs...)
}

// OfType returns the received messages of type t.
func (c *Channel) OfType(t core.EventType) []core.BroadcastMessage {
	var out []core.BroadcastMessage
	for _, m := range c.Messages() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// Closed reports whether Close was called and with what reason.
func (c *Channel) Closed() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.reason
}
