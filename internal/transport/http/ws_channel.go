package http

import (
	"sync"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
)

// wsChannel is the core.Channel of one WebSocket. Send never blocks: events
// go into a bounded buffer drained by the connection's write loop.
type wsChannel struct {
	out  chan core.BroadcastMessage
	done chan struct{}

	mu     sync.Mutex
	closed bool
	reason string
}

func newWSChannel(buffer int) *wsChannel {
	if buffer <= 0 {
		buffer = 256
	}
	return &wsChannel{
		out:  make(chan core.BroadcastMessage, buffer),
		done: make(chan struct{}),
	}
}

// Send holds mu across the closed check and the push, so nothing is
// buffered after Close and every accepted event is flushed.
func (c *wsChannel) Send(msg core.BroadcastMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrChannelClosed
	}

	select {
	case c.out <- msg:
		return nil
	default:
		return core.ErrChannelFull
	}
}

// Close stops accepting events. The write loop flushes what is buffered and
// then closes the socket with reason.
func (c *wsChannel) Close(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.reason = reason
	close(c.done)
	return nil
}

func (c *wsChannel) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}
