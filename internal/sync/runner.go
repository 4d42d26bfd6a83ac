package sync

import (
	"context"
	"errors"
	"log"
	gosync "sync"

	"github.com/showgrid/showgrid/internal/queue"
)

// ChangeSource is a blocking producer of change notifications, e.g. the
// Postgres NOTIFY listener. Run returns when the context is cancelled.
type ChangeSource interface {
	Run(ctx context.Context)
}

// Runner owns the consumer's goroutines: one draining queue batches and
// one per additional change source. Start spawns them; Wait joins them
// after the context is cancelled.
type Runner struct {
	consumer *Consumer
	queue    queue.Queue
	sources  []ChangeSource

	wg gosync.WaitGroup
}

// NewRunner glues a consumer to its queue and any extra change sources.
func NewRunner(c *Consumer, q queue.Queue, sources ...ChangeSource) *Runner {
	return &Runner{consumer: c, queue: q, sources: sources}
}

// Start launches the consumer loops. They run until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.queue.Consume(ctx, r.consumer.ProcessBatch)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("sync: queue consumer stopped: %v", err)
		}
	}()

	for _, src := range r.sources {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			src.Run(ctx)
		}()
	}
}

// Wait blocks until all consumer goroutines have exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}
