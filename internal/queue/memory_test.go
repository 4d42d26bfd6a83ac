package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/showgrid/showgrid/internal/types"
)

func notification(id string) types.ChangeNotification {
	return types.ChangeNotification{
		EntityType: types.EntityShow,
		EntityID:   id,
		Operation:  types.OpUpdated,
	}
}

// collect runs Consume in the background and forwards each batch to out
// until ctx expires.
func collect(ctx context.Context, q *Memory, out chan<- []Delivery) {
	_ = q.Consume(ctx, func(_ context.Context, batch []Delivery) {
		select {
		case out <- batch:
		case <-ctx.Done():
		}
	})
}

func TestMemoryQueue_BatchesUpToSize(t *testing.T) {
	q := NewMemory(16, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, id := range []string{"a", "b", "c", "d"} {
		if err := q.SendIndexMessage(ctx, notification(id)); err != nil {
			t.Fatalf("SendIndexMessage(%s): %v", id, err)
		}
	}

	batches := make(chan []Delivery, 4)
	go collect(ctx, q, batches)

	var got []Delivery
	for len(got) < 4 {
		select {
		case batch := <-batches:
			if len(batch) > 3 {
				t.Errorf("batch of %d exceeds batch size 3", len(batch))
			}
			for _, d := range batch {
				if err := d.Ack(); err != nil {
					t.Errorf("Ack: %v", err)
				}
			}
			got = append(got, batch...)
		case <-ctx.Done():
			t.Fatalf("timed out after %d deliveries", len(got))
		}
	}
	if q.Delivered() != 4 {
		t.Errorf("Delivered = %d, want 4", q.Delivered())
	}
}

func TestMemoryQueue_NakRedelivers(t *testing.T) {
	q := NewMemory(16, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := q.SendIndexMessage(ctx, notification("a")); err != nil {
		t.Fatalf("SendIndexMessage: %v", err)
	}

	batches := make(chan []Delivery, 4)
	go collect(ctx, q, batches)

	var mu sync.Mutex
	seen := 0
	for {
		select {
		case batch := <-batches:
			for _, d := range batch {
				mu.Lock()
				seen++
				n := seen
				mu.Unlock()
				if n == 1 {
					if err := d.Nak(); err != nil {
						t.Errorf("Nak: %v", err)
					}
					continue
				}
				if d.Notification.EntityID != "a" {
					t.Errorf("redelivered EntityID = %s, want a", d.Notification.EntityID)
				}
				if err := d.Ack(); err != nil {
					t.Errorf("Ack: %v", err)
				}
				return
			}
		case <-ctx.Done():
			t.Fatal("notification was not redelivered after Nak")
		}
	}
}

func TestMemoryQueue_FullBufferDropsWithoutError(t *testing.T) {
	q := NewMemory(1, 1)
	ctx := context.Background()

	if err := q.SendIndexMessage(ctx, notification("a")); err != nil {
		t.Fatalf("SendIndexMessage: %v", err)
	}
	// Buffer is full; the second send drops rather than blocks the writer.
	if err := q.SendIndexMessage(ctx, notification("b")); err != nil {
		t.Errorf("SendIndexMessage on full buffer: %v, want nil", err)
	}
}

func TestMemoryQueue_ConsumeStopsOnCancel(t *testing.T) {
	q := NewMemory(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Consume(ctx, func(context.Context, []Delivery) {})
	if err == nil {
		t.Fatal("Consume returned nil after cancel, want context error")
	}
}
