package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/Aahantrikha/BuilderSpace-sub000/internal/store"
)

// BreakerResolver guards a MembershipResolver with a circuit breaker so a
// failing database does not stall every broadcast. Not-found answers and
// caller cancellations count as successes.
type BreakerResolver struct {
	next MembershipResolver
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerResolver trips after maxFailures consecutive failures and probes
// again after openTimeout.
func NewBreakerResolver(next MembershipResolver, maxFailures uint32, openTimeout time.Duration, logger *zerolog.Logger) *BreakerResolver {
	if maxFailures == 0 {
		maxFailures = 5
	}
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "resolver_breaker").Logger()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "membership",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, store.ErrNotFound) ||
				errors.Is(err, ErrUnsupportedKind) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &BreakerResolver{next: next, cb: cb}
}

func (b *BreakerResolver) ResolveTeamMembers(ctx context.Context, kind ResourceKind, resourceID int64) ([]int64, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ResolveTeamMembers(ctx, kind, resourceID)
	})
	if err != nil {
		return nil, err
	}
	return res.([]int64), nil
}

func (b *BreakerResolver) ResolveUserSpaces(ctx context.Context, userID int64) ([]int64, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.ResolveUserSpaces(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return res.([]int64), nil
}

func (b *BreakerResolver) FindCreator(ctx context.Context, kind ResourceKind, resourceID int64) (Ownership, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.FindCreator(ctx, kind, resourceID)
	})
	if err != nil {
		return Ownership{}, err
	}
	return res.(Ownership), nil
}

func (b *BreakerResolver) FindTwoPartyParticipants(ctx context.Context, applicationID int64) (Participants, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.FindTwoPartyParticipants(ctx, applicationID)
	})
	if err != nil {
		return Participants{}, err
	}
	return res.(Participants), nil
}

// State returns the breaker state.
func (b *BreakerResolver) State() gobreaker.State {
	return b.cb.State()
}
