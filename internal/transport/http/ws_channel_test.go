package http

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/core"
)

func TestWSChannelRejectsWhenFullOrClosed(t *testing.T) {
	req := require.New(t)
	ch := newWSChannel(1)

	req.NoError(ch.Send(core.NewMessage(core.EventHeartbeat, nil)))
	req.ErrorIs(ch.Send(core.NewMessage(core.EventHeartbeat, nil)), core.ErrChannelFull)

	req.NoError(ch.Close("first"))
	req.NoError(ch.Close("second"))
	req.Equal("first", ch.closeReason())
	req.ErrorIs(ch.Send(core.NewMessage(core.EventHeartbeat, nil)), core.ErrChannelClosed)
	req.Len(ch.out, 1)
}

func TestWSChannelAcceptedEventsAreBufferedBeforeClose(t *testing.T) {
	req := require.New(t)

	for range 50 {
		ch := newWSChannel(1024)
		var accepted atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})

		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for range 50 {
					if ch.Send(core.NewMessage(core.EventGroupMessage, nil)) == nil {
						accepted.Add(1)
					}
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = ch.Close("bye")
		}()

		close(start)
		wg.Wait()

		// nothing is pushed once done is closed, so the buffer holds exactly
		// what Send reported as accepted
		req.Equal(int(accepted.Load()), len(ch.out))
	}
}
