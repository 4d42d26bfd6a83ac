package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/showgrid/showgrid/internal/queue"
	"github.com/showgrid/showgrid/internal/retry"
	"github.com/showgrid/showgrid/internal/types"
)

// Producer is the application-level change event source. The CRUD layer
// calls EmitChange after every successful write, enqueuing a notification
// redundant with the one the commit trigger fires on the NOTIFY channel.
// Both paths feed the same idempotent consumer, so either channel being
// down is survivable and duplicates are harmless.
type Producer struct {
	queue     queue.Queue
	attempts  int
	baseDelay time.Duration
}

// NewProducer creates a producer on the given queue.
func NewProducer(q queue.Queue) *Producer {
	return &Producer{
		queue:     q,
		attempts:  DefaultRetryAttempts,
		baseDelay: DefaultRetryBaseDelay,
	}
}

// SetRetryBudget overrides the enqueue retry budget.
func (p *Producer) SetRetryBudget(attempts int, baseDelay time.Duration) {
	p.attempts = attempts
	p.baseDelay = baseDelay
}

// EmitChange enqueues a change notification, retrying transient queue
// failures. The error is surfaced to the write path on exhaustion; the
// write itself has already committed and the NOTIFY channel still covers
// the change.
func (p *Producer) EmitChange(ctx context.Context, n types.ChangeNotification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("refusing to emit malformed notification: %w", err)
	}
	err := retry.Do(ctx, func(ctx context.Context) error {
		return p.queue.SendIndexMessage(ctx, n)
	}, p.attempts, p.baseDelay)
	if err != nil {
		return fmt.Errorf("enqueuing %s %s/%s after %d attempts: %w",
			n.Operation, n.EntityType, n.EntityID, p.attempts, err)
	}
	return nil
}
