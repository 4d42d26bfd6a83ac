package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/showgrid/showgrid/internal/types"
)

// Memory implements Queue with a buffered channel. Intended for tests and
// single-process runs, no NATS required. Nak'd deliveries are re-enqueued,
// preserving the at-least-once contract.
type Memory struct {
	msgs      chan types.ChangeNotification
	batchSize int
	maxWait   time.Duration

	mu        sync.Mutex
	delivered int
}

// NewMemory creates an in-memory queue with the given buffer and batch size.
func NewMemory(buffer, batchSize int) *Memory {
	if buffer < 1 {
		buffer = 256
	}
	if batchSize < 1 {
		batchSize = 10
	}
	return &Memory{
		msgs:      make(chan types.ChangeNotification, buffer),
		batchSize: batchSize,
		maxWait:   50 * time.Millisecond,
	}
}

// Delivered reports how many deliveries have been handed to consumers,
// redeliveries included.
func (q *Memory) Delivered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delivered
}

func (q *Memory) SendIndexMessage(_ context.Context, n types.ChangeNotification) error {
	select {
	case q.msgs <- n:
		return nil
	default:
		// Mirror a full broker: drop with a log line rather than block the
		// write path. The DB-native channel covers the same change.
		log.Printf("queue: buffer full, dropping %s %s/%s", n.Operation, n.EntityType, n.EntityID)
		return nil
	}
}

func (q *Memory) Consume(ctx context.Context, handler BatchHandler) error {
	for {
		batch, err := q.nextBatch(ctx)
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			handler(ctx, batch)
		}
	}
}

// nextBatch blocks for the first message, then drains up to batchSize-1
// more within maxWait.
func (q *Memory) nextBatch(ctx context.Context) ([]Delivery, error) {
	var first types.ChangeNotification
	select {
	case first = <-q.msgs:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	notifications := []types.ChangeNotification{first}
	deadline := time.After(q.maxWait)
drain:
	for len(notifications) < q.batchSize {
		select {
		case n := <-q.msgs:
			notifications = append(notifications, n)
		case <-deadline:
			break drain
		case <-ctx.Done():
			break drain
		}
	}

	batch := make([]Delivery, 0, len(notifications))
	for _, n := range notifications {
		n := n
		q.mu.Lock()
		q.delivered++
		q.mu.Unlock()
		batch = append(batch, NewDelivery(n,
			func() error { return nil },
			func() error {
				select {
				case q.msgs <- n:
				default:
					log.Printf("queue: buffer full, dropping redelivery of %s/%s", n.EntityType, n.EntityID)
				}
				return nil
			},
		))
	}
	return batch, nil
}
