// Package sync implements the change-propagation pipeline that keeps the
// search index and the result cache eventually consistent with the record
// store. Change notifications arrive over two redundant paths, a
// Postgres NOTIFY channel and a queue message enqueued after each write,
// and converge in one idempotent consumer.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	gosync "sync"
	"time"

	"github.com/showgrid/showgrid/internal/cache"
	"github.com/showgrid/showgrid/internal/index"
	"github.com/showgrid/showgrid/internal/queue"
	"github.com/showgrid/showgrid/internal/record"
	"github.com/showgrid/showgrid/internal/retry"
	"github.com/showgrid/showgrid/internal/types"
)

// SearchCachePrefix is the cache namespace wiped on every index mutation.
// The featured namespace is deliberately left alone; see Consumer docs.
const SearchCachePrefix = "search:"

// Defaults for the retry budget around index writes.
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 1000 * time.Millisecond
)

// Consumer drains change notifications, re-fetches canonical entity
// state, transforms it to a search document, applies it to the index,
// and invalidates the search cache.
//
// Correctness comes from always re-reading the record store instead of
// trusting the notification payload: duplicate and reordered deliveries
// for the same entity converge on the document matching the then-current
// truth, and redelivery after a crash is safe from the top.
//
// Cache invalidation is coarse: the whole search namespace goes on every
// mutation. Featured results are only expired by their own TTL; that
// asymmetry is inherited behavior, kept so reads stay bit-compatible
// with the previous system.
type Consumer struct {
	store record.Store
	idx   index.Client
	cache cache.Store

	attempts  int
	baseDelay time.Duration
}

// NewConsumer wires a consumer with the default retry budget.
func NewConsumer(store record.Store, idx index.Client, cacheStore cache.Store) *Consumer {
	return &Consumer{
		store:     store,
		idx:       idx,
		cache:     cacheStore,
		attempts:  DefaultRetryAttempts,
		baseDelay: DefaultRetryBaseDelay,
	}
}

// SetRetryBudget overrides the attempts/backoff used for index and cache
// calls. Mostly for tests and tuning.
func (c *Consumer) SetRetryBudget(attempts int, baseDelay time.Duration) {
	c.attempts = attempts
	c.baseDelay = baseDelay
}

// Process runs one notification through the full pipeline. A nil return
// means the notification can be acknowledged; an error means its delivery
// mechanism should redeliver it. Malformed notifications error without
// being locally retried; they are structurally unprocessable.
func (c *Consumer) Process(ctx context.Context, n types.ChangeNotification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("malformed notification: %w", err)
	}

	if n.Operation == types.OpDeleted {
		if err := c.applyDelete(ctx, n); err != nil {
			return err
		}
		c.invalidate(ctx)
		return nil
	}

	doc, found, err := c.resolve(ctx, n)
	if err != nil {
		return err
	}
	if !found {
		// The entity vanished between notification and processing,
		// raced with a later delete. Its delete notification owns the
		// index cleanup.
		log.Printf("sync: %s %s no longer exists, skipping", n.EntityType, n.EntityID)
		return nil
	}

	if err := c.applyUpsert(ctx, doc); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// resolve re-fetches current entity state and builds its document.
// found=false reports a missing entity (no-op success). An episode whose
// parent show cannot be resolved is a hard error: the document would be
// structurally invalid without its inherited facets.
func (c *Consumer) resolve(ctx context.Context, n types.ChangeNotification) (types.SearchDocument, bool, error) {
	switch n.EntityType {
	case types.EntityShow:
		sh, err := c.store.GetShow(ctx, n.EntityID)
		if errors.Is(err, record.ErrNotFound) {
			return types.SearchDocument{}, false, nil
		}
		if err != nil {
			return types.SearchDocument{}, false, fmt.Errorf("resolving show %s: %w", n.EntityID, err)
		}
		return buildShowDocument(sh), true, nil

	case types.EntityEpisode:
		ep, err := c.store.GetEpisode(ctx, n.EntityID)
		if errors.Is(err, record.ErrNotFound) {
			return types.SearchDocument{}, false, nil
		}
		if err != nil {
			return types.SearchDocument{}, false, fmt.Errorf("resolving episode %s: %w", n.EntityID, err)
		}

		parent, err := c.store.GetShow(ctx, ep.ShowID)
		if errors.Is(err, record.ErrNotFound) {
			return types.SearchDocument{}, false, fmt.Errorf("episode %s references missing show %s", ep.ID, ep.ShowID)
		}
		if err != nil {
			return types.SearchDocument{}, false, fmt.Errorf("resolving parent show %s: %w", ep.ShowID, err)
		}
		return buildEpisodeDocument(ep, parent), true, nil

	default:
		return types.SearchDocument{}, false, fmt.Errorf("unknown entity type %q", n.EntityType)
	}
}

func (c *Consumer) applyUpsert(ctx context.Context, doc types.SearchDocument) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		return c.idx.Upsert(ctx, doc)
	}, c.attempts, c.baseDelay)
	if err != nil {
		return fmt.Errorf("indexing %s after %d attempts: %w", doc.Key(), c.attempts, err)
	}
	return nil
}

func (c *Consumer) applyDelete(ctx context.Context, n types.ChangeNotification) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		return c.idx.Delete(ctx, n.EntityType, n.EntityID)
	}, c.attempts, c.baseDelay)
	if err != nil {
		return fmt.Errorf("deleting %s after %d attempts: %w", n.Key(), c.attempts, err)
	}
	return nil
}

// invalidate wipes the search cache namespace. Failures are logged and
// swallowed; the cache is never a correctness dependency, and failing
// the notification here would redeliver an index write that already
// succeeded.
func (c *Consumer) invalidate(ctx context.Context) {
	err := retry.Do(ctx, func(ctx context.Context) error {
		return c.cache.DeleteByPrefix(ctx, SearchCachePrefix)
	}, c.attempts, c.baseDelay)
	if err != nil {
		log.Printf("sync: search cache invalidation failed: %v", err)
	}
}

// ProcessBatch handles one queue batch. Notifications are partitioned by
// entity key: work for the same (entityType, entityId) runs serially in
// arrival order, distinct keys run concurrently. Each delivery is acked
// or nak'd on its own, so one failure never aborts its siblings.
func (c *Consumer) ProcessBatch(ctx context.Context, batch []queue.Delivery) {
	partitions := make(map[string][]queue.Delivery)
	var order []string
	for _, d := range batch {
		key := d.Notification.Key()
		if _, seen := partitions[key]; !seen {
			order = append(order, key)
		}
		partitions[key] = append(partitions[key], d)
	}

	var wg gosync.WaitGroup
	for _, key := range order {
		deliveries := partitions[key]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, d := range deliveries {
				if err := c.Process(ctx, d.Notification); err != nil {
					log.Printf("sync: processing %s %s/%s: %v",
						d.Notification.Operation, d.Notification.EntityType, d.Notification.EntityID, err)
					if err := d.Nak(); err != nil {
						log.Printf("sync: nak failed: %v", err)
					}
					continue
				}
				if err := d.Ack(); err != nil {
					log.Printf("sync: ack failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()
}

// ResyncAll walks the entire record store and re-indexes every entity.
// Used for bootstrap and repair; reuses Process so all invariants hold.
func (c *Consumer) ResyncAll(ctx context.Context) error {
	shows, err := c.store.ListShows(ctx)
	if err != nil {
		return fmt.Errorf("listing shows for resync: %w", err)
	}
	for _, sh := range shows {
		n := types.ChangeNotification{EntityType: types.EntityShow, EntityID: sh.ID, Operation: types.OpUpdated}
		if err := c.Process(ctx, n); err != nil {
			return fmt.Errorf("resyncing show %s: %w", sh.ID, err)
		}
	}

	episodes, err := c.store.ListEpisodes(ctx)
	if err != nil {
		return fmt.Errorf("listing episodes for resync: %w", err)
	}
	for _, ep := range episodes {
		n := types.ChangeNotification{EntityType: types.EntityEpisode, EntityID: ep.ID, Operation: types.OpUpdated}
		if err := c.Process(ctx, n); err != nil {
			return fmt.Errorf("resyncing episode %s: %w", ep.ID, err)
		}
	}

	log.Printf("sync: resynced %d shows, %d episodes", len(shows), len(episodes))
	return nil
}
