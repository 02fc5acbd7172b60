package core

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

const defaultMaxQueuedUsers = 10000

// QueuedMessage is a message held for an offline recipient.
type QueuedMessage struct {
	RecipientID int64
	Message     BroadcastMessage
	EnqueuedAt  time.Time
}

type mailbox struct {
	items []QueuedMessage
}

// OfflineQueue holds bounded per-user FIFO mailboxes for offline recipients.
// The number of users holding a mailbox is bounded too; the least recently
// written mailbox is dropped first.
type OfflineQueue struct {
	mu      sync.Mutex
	boxes   *lru.Cache[int64, *mailbox]
	maxSize int
	maxAge  time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewOfflineQueue creates a queue keeping at most maxSize messages per user,
// no older than maxAge, for at most maxUsers users.
func NewOfflineQueue(maxSize int, maxAge time.Duration, maxUsers int, now func() time.Time, logger *zerolog.Logger) *OfflineQueue {
	if maxUsers <= 0 {
		maxUsers = defaultMaxQueuedUsers
	}
	if now == nil {
		now = time.Now
	}
	// lru.New only fails for a non-positive size.
	boxes, _ := lru.New[int64, *mailbox](maxUsers)

	q := &OfflineQueue{
		boxes:   boxes,
		maxSize: maxSize,
		maxAge:  maxAge,
		now:     now,
		log:     zerolog.Nop(),
	}
	if logger != nil {
		q.log = logger.With().Str("component", "offline_queue").Logger()
	}
	return q
}

// Enqueue appends msg to the user's mailbox, evicting the oldest entry when full.
func (q *OfflineQueue) Enqueue(userID int64, msg BroadcastMessage) {
	if q.maxSize <= 0 {
		return
	}
	entry := QueuedMessage{RecipientID: userID, Message: msg, EnqueuedAt: q.now()}

	q.mu.Lock()
	defer q.mu.Unlock()

	box, ok := q.boxes.Get(userID)
	if !ok {
		box = &mailbox{}
		if evicted := q.boxes.Add(userID, box); evicted {
			q.log.Warn().Int64("user_id", userID).Msg("mailbox limit reached, dropped least recent mailbox")
		}
	}
	if len(box.items) >= q.maxSize {
		dropped := box.items[0]
		box.items = append(box.items[:0], box.items[1:]...)
		q.log.Debug().
			Int64("user_id", userID).
			Str("type", string(dropped.Message.Type)).
			Msg("mailbox full, dropped oldest message")
	}
	box.items = append(box.items, entry)
}

// Drain hands queued messages to deliver, oldest first, skipping those older
// than the max age, and empties the mailbox regardless of delivery outcome.
// It returns how many messages deliver accepted.
func (q *OfflineQueue) Drain(userID int64, deliver func(BroadcastMessage) bool) int {
	q.mu.Lock()
	box, ok := q.boxes.Peek(userID)
	if ok {
		q.boxes.Remove(userID)
	}
	q.mu.Unlock()
	if !ok {
		return 0
	}

	now := q.now()
	delivered, expired := 0, 0
	for _, entry := range box.items {
		if now.Sub(entry.EnqueuedAt) > q.maxAge {
			expired++
			continue
		}
		if deliver(entry.Message) {
			delivered++
		}
	}
	if expired > 0 {
		q.log.Debug().Int64("user_id", userID).Int("expired", expired).Msg("skipped expired messages")
	}
	return delivered
}

// Count returns how many messages are queued for the user.
func (q *OfflineQueue) Count(userID int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	box, ok := q.boxes.Peek(userID)
	if !ok {
		return 0
	}
	return len(box.items)
}

// Users returns how many users currently hold a mailbox.
func (q *OfflineQueue) Users() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.boxes.Len()
}
