package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

type fakeChannel struct {
	mu       sync.Mutex
	msgs     []BroadcastMessage
	closed   bool
	reason   string
	rejectAt int // reject sends once len(msgs) reaches this; 0 means never
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{}
}

func (c *fakeChannel) Send(msg BroadcastMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	if c.rejectAt > 0 && len(c.msgs) >= c.rejectAt {
		return ErrChannelFull
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeChannel) Close(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.reason = reason
	return nil
}

func (c *fakeChannel) messages() []BroadcastMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]BroadcastMessage(nil), c.msgs...)
}

func (c *fakeChannel) types() []EventType {
	var out []EventType
	for _, m := range c.messages() {
		out = append(out, m.Type)
	}
	return out
}

func (c *fakeChannel) ofType(t EventType) []BroadcastMessage {
	var out []BroadcastMessage
	for _, m := range c.messages() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (c *fakeChannel) isClosed() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed, c.reason
}

type fakeResolver struct {
	mu           sync.Mutex
	spaces       map[int64][]int64
	participants map[int64]Participants
	owners       map[int64]Ownership
	failSpaces   map[int64]error
	calls        int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		spaces:       make(map[int64][]int64),
		participants: make(map[int64]Participants),
		owners:       make(map[int64]Ownership),
		failSpaces:   make(map[int64]error),
	}
}

func (f *fakeResolver) setSpace(spaceID int64, members ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spaces[spaceID] = members
}

func (f *fakeResolver) ResolveTeamMembers(_ context.Context, kind ResourceKind, id int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failSpaces[id]; err != nil {
		return nil, err
	}
	if kind.TwoParty() {
		p, ok := f.participants[id]
		if !ok {
			return nil, fmt.Errorf("screening chat %d: %w", id, store.ErrNotFound)
		}
		return []int64{p.FounderID, p.ApplicantID}, nil
	}
	members, ok := f.spaces[id]
	if !ok {
		return nil, fmt.Errorf("space %d: %w", id, store.ErrNotFound)
	}
	return append([]int64(nil), members...), nil
}

func (f *fakeResolver) ResolveUserSpaces(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var out []int64
	for spaceID, members := range f.spaces {
		for _, m := range members {
			if m == userID {
				out = append(out, spaceID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeResolver) FindCreator(_ context.Context, _ ResourceKind, id int64) (Ownership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	o, ok := f.owners[id]
	if !ok {
		return Ownership{}, fmt.Errorf("item %d: %w", id, store.ErrNotFound)
	}
	return o, nil
}

func (f *fakeResolver) FindTwoPartyParticipants(_ context.Context, applicationID int64) (Participants, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.participants[applicationID]
	if !ok {
		return Participants{}, fmt.Errorf("screening chat %d: %w", applicationID, store.ErrNotFound)
	}
	return p, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
