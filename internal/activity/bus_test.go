package activity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

func runBus(t *testing.T, bus *Bus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = bus.Close()
	})

	select {
	case <-bus.Running():
	case <-time.After(2 * time.Second):
		t.Fatal("bus did not start")
	}
}

func TestBusDeliversNotices(t *testing.T) {
	req := require.New(t)
	bus, err := NewBus(nil, time.Second)
	req.NoError(err)

	got := make(chan Notice, 1)
	bus.Handle("capture", func(_ context.Context, n Notice) error {
		got <- n
		return nil
	})
	runBus(t, bus)

	req.NoError(bus.Publish(context.Background(), Notice{Kind: PostCreated, ActorID: 7}))

	select {
	case n := <-got:
		req.Equal(PostCreated, n.Kind)
		req.Equal(int64(7), n.ActorID)
		req.False(n.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("notice not delivered")
	}
}

func TestBusStopsRetryingFailingHandler(t *testing.T) {
	req := require.New(t)
	bus, err := NewBus(nil, time.Second)
	req.NoError(err)

	var calls atomic.Int32
	bus.Handle("always_fails", func(context.Context, Notice) error {
		calls.Add(1)
		return errors.New("boom")
	})
	delivered := make(chan Notice, 1)
	bus.Handle("capture", func(_ context.Context, n Notice) error {
		if n.Kind == MemberJoined {
			delivered <- n
		}
		return nil
	})
	runBus(t, bus)

	req.NoError(bus.Publish(context.Background(), Notice{Kind: PostCreated}))
	req.Eventually(func() bool { return calls.Load() == handlerRetries+1 }, 2*time.Second, 10*time.Millisecond)

	// later notices still reach the failing handler
	req.NoError(bus.Publish(context.Background(), Notice{Kind: MemberJoined}))
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("later notice not delivered")
	}
	req.Eventually(func() bool { return calls.Load() == 2*(handlerRetries+1) }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	req.Equal(int32(2*(handlerRetries+1)), calls.Load())
}

type fakeStats struct {
	stats store.Stats
	err   error
	calls atomic.Int32
}

func (f *fakeStats) CountStats(context.Context) (store.Stats, error) {
	f.calls.Add(1)
	return f.stats, f.err
}

type fakeAudience struct {
	online []int64
	sent   chan core.BroadcastMessage
}

func (a *fakeAudience) OnlineUsers() []int64 { return a.online }

func (a *fakeAudience) BroadcastToUsers(ids []int64, msg core.BroadcastMessage) core.DeliveryStats {
	a.sent <- msg
	return core.DeliveryStats{Online: len(ids)}
}

func TestStatsBroadcasterPushesToOnlineUsers(t *testing.T) {
	req := require.New(t)
	audience := &fakeAudience{online: []int64{1, 2}, sent: make(chan core.BroadcastMessage, 1)}
	want := store.Stats{Users: 3, Posts: 2, Applications: 1, Spaces: 1}

	bus, err := NewBus(nil, time.Second)
	req.NoError(err)
	bus.Handle("stats_update", NewStatsBroadcaster(&fakeStats{stats: want}, audience, nil).Handle)
	runBus(t, bus)

	req.NoError(bus.Publish(context.Background(), Notice{Kind: SpaceCreated, ActorID: 1}))

	select {
	case msg := <-audience.sent:
		req.Equal(core.EventStatsUpdate, msg.Type)
		req.Equal(want, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("stats not pushed")
	}
}

func TestStatsBroadcasterSkipsWhenNobodyOnline(t *testing.T) {
	audience := &fakeAudience{sent: make(chan core.BroadcastMessage, 1)}
	s := NewStatsBroadcaster(&fakeStats{}, audience, nil)

	require.NoError(t, s.Handle(context.Background(), Notice{Kind: PostCreated}))
	require.Empty(t, audience.sent)
}

func TestStatsBroadcasterAcksWhenCountFails(t *testing.T) {
	req := require.New(t)
	audience := &fakeAudience{online: []int64{1}, sent: make(chan core.BroadcastMessage, 1)}
	stats := &fakeStats{err: errors.New("database is locked")}

	bus, err := NewBus(nil, time.Second)
	req.NoError(err)
	bus.Handle("stats_update", NewStatsBroadcaster(stats, audience, nil).Handle)
	runBus(t, bus)

	req.NoError(bus.Publish(context.Background(), Notice{Kind: PostCreated}))
	req.Eventually(func() bool { return stats.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	time.Sleep(200 * time.Millisecond)
	req.Equal(int32(1), stats.calls.Load())
	req.Empty(audience.sent)
}
