package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	req := require.New(t)
	res := newFakeResolver()
	res.failSpaces[1] = errors.New("database is locked")
	b := NewBreakerResolver(res, 2, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := b.ResolveTeamMembers(ctx, KindBuilderSpace, 1)
		req.Error(err)
	}
	req.Equal(gobreaker.StateOpen, b.State())

	calls := res.calls
	_, err := b.ResolveUserSpaces(ctx, 5)
	req.ErrorIs(err, gobreaker.ErrOpenState)
	req.Equal(calls, res.calls)
}

func TestBreakerTreatsNotFoundAsSuccess(t *testing.T) {
	req := require.New(t)
	b := NewBreakerResolver(newFakeResolver(), 1, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.FindTwoPartyParticipants(ctx, 42)
		req.ErrorIs(err, store.ErrNotFound)
	}
	req.Equal(gobreaker.StateClosed, b.State())
}
