// Package activity carries domain activity notices from services to
// background consumers over an in-process watermill pub/sub.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
)

// Topic is the watermill topic all notices are published to.
const Topic = "builderspace.activity.v1"

// PoisonTopic receives notices a handler still rejects after its retries.
const PoisonTopic = "builderspace.activity.v1.poison"

const (
	handlerRetries       = 3
	handlerRetryInterval = 50 * time.Millisecond
)

// Kind names what happened.
type Kind string

const (
	UserRegistered      Kind = "user_registered"
	PostCreated         Kind = "post_created"
	ApplicationCreated  Kind = "application_created"
	ApplicationAccepted Kind = "application_accepted"
	ApplicationRejected Kind = "application_rejected"
	SpaceCreated        Kind = "space_created"
	MemberJoined        Kind = "member_joined"
)

// Notice is a single activity record.
type Notice struct {
	Kind    Kind      `json:"kind"`
	ActorID int64     `json:"actor_id"`
	At      time.Time `json:"at"`
}

// Publisher accepts notices.
type Publisher interface {
	Publish(ctx context.Context, n Notice) error
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Publish(context.Context, Notice) error { return nil }

// HandlerFunc consumes one notice.
type HandlerFunc func(ctx context.Context, n Notice) error

// Bus is an in-process pub/sub with a router of notice consumers.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
	poison message.HandlerMiddleware
	retry  middleware.Retry
	log    zerolog.Logger
}

// NewBus creates a bus whose handlers recover from panics and time out after
// handlerTimeout. A failing handler is retried a few times with backoff and
// the notice then goes to PoisonTopic, so one bad notice never redelivers forever.
func NewBus(logger *zerolog.Logger, handlerTimeout time.Duration) (*Bus, error) {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "activity").Logger()
	}
	wmLogger := NewLoggerAdapter(log)

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 5 * time.Second}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create activity router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	if handlerTimeout > 0 {
		router.AddMiddleware(middleware.Timeout(handlerTimeout))
	}

	poison, err := middleware.PoisonQueue(pubsub, PoisonTopic)
	if err != nil {
		return nil, fmt.Errorf("create poison queue: %w", err)
	}
	retry := middleware.Retry{
		MaxRetries:      handlerRetries,
		InitialInterval: handlerRetryInterval,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		Logger:          wmLogger,
	}

	return &Bus{pubsub: pubsub, router: router, poison: poison, retry: retry, log: log}, nil
}

// Publish marshals n and hands it to the bus. Notices published while no
// handler is subscribed are dropped.
func (b *Bus) Publish(ctx context.Context, n Notice) error {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(n.Kind))
	msg.SetContext(context.WithoutCancel(ctx))

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

// Handle registers h as a consumer of every notice. It must be called before Run.
func (b *Bus) Handle(name string, h HandlerFunc) {
	handler := b.router.AddConsumerHandler(name, Topic, b.pubsub, func(msg *message.Message) error {
		var n Notice
		if err := json.Unmarshal(msg.Payload, &n); err != nil {
			// a malformed notice will never parse; ack it
			b.log.Error().Err(err).Str("handler", name).Str("msg_id", msg.UUID).Msg("drop malformed notice")
			return nil
		}
		if err := h(msg.Context(), n); err != nil {
			b.log.Warn().Err(err).Str("handler", name).Str("kind", string(n.Kind)).Msg("handle notice")
			return err
		}
		return nil
	})
	handler.AddMiddleware(b.poison, b.retry.Middleware)
}

// Run consumes notices until ctx is cancelled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once the router is consuming.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Close stops the router and the pub/sub.
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		return fmt.Errorf("close activity router: %w", err)
	}
	return b.pubsub.Close()
}
