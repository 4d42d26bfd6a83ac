// Package queue is the message-queue contract between the CMS write path
// and the indexing consumer. Delivery is at-least-once and unordered;
// the consumer's idempotency is what makes that acceptable.
package queue

import (
	"context"

	"github.com/showgrid/showgrid/internal/types"
)

// Delivery is a single queued change notification plus its acknowledgement
// controls. Ack marks the notification done; Nak returns it to the queue
// for redelivery under the queue's own policy. The pipeline implements no
// dead-letter handling of its own.
type Delivery struct {
	Notification types.ChangeNotification

	ack func() error
	nak func() error
}

// Ack marks the delivery as processed.
func (d Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// Nak requests redelivery.
func (d Delivery) Nak() error {
	if d.nak == nil {
		return nil
	}
	return d.nak()
}

// NewDelivery builds a Delivery with explicit ack/nak hooks. Exposed for
// queue implementations and tests.
func NewDelivery(n types.ChangeNotification, ack, nak func() error) Delivery {
	return Delivery{Notification: n, ack: ack, nak: nak}
}

// BatchHandler processes one delivered batch. The handler acks or naks
// each delivery individually; one notification's failure must not abort
// its siblings.
type BatchHandler func(ctx context.Context, batch []Delivery)

// Queue decouples change producers from the indexing consumer.
type Queue interface {
	// SendIndexMessage enqueues a change notification.
	SendIndexMessage(ctx context.Context, n types.ChangeNotification) error

	// Consume blocks delivering batches to handler until the context is
	// cancelled.
	Consume(ctx context.Context, handler BatchHandler) error
}
