package record

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showgrid/showgrid/internal/types"
)

// Notification channels fired by the commit triggers. The payload is
// JSON {"operation": "INSERT"|"UPDATE"|"DELETE", "id": "<uuid>"}.
const (
	showChannel    = "show_changes"
	episodeChannel = "episode_changes"
)

// NotifyFunc receives a decoded change notification from the database
// channel. It runs on the listener goroutine; returning an error only
// logs, since redelivery of NOTIFY payloads is not possible. That gap is
// why the queue path exists as a redundant producer.
type NotifyFunc func(ctx context.Context, n types.ChangeNotification) error

// Listener consumes Postgres LISTEN/NOTIFY change events on a dedicated
// connection. It is the DB-native half of the dual change-notification
// design: triggers fire synchronously on commit, independent of the
// application-enqueued queue message for the same write.
type Listener struct {
	dsn    string
	handle NotifyFunc
}

// NewListener creates a Listener. The connection is established when
// Run is called.
func NewListener(dsn string, handle NotifyFunc) *Listener {
	return &Listener{dsn: dsn, handle: handle}
}

// Run connects, subscribes to both change channels, and blocks consuming
// notifications until the context is cancelled. Connection errors trigger
// a reconnect with a short backoff; notifications delivered while
// disconnected are lost (the queue path covers that gap).
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("record: listener error, reconnecting: %v", err)
		}
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connecting listener: %w", err)
	}
	defer conn.Close(context.Background())

	for _, ch := range []string{showChannel, episodeChannel} {
		if _, err := conn.Exec(ctx, "LISTEN "+ch); err != nil {
			return fmt.Errorf("listening on %s: %w", ch, err)
		}
	}
	log.Printf("record: change listener subscribed to %s, %s", showChannel, episodeChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("waiting for notification: %w", err)
		}

		n, err := decodeNotification(notification.Channel, notification.Payload)
		if err != nil {
			log.Printf("record: dropping malformed notification on %s: %v", notification.Channel, err)
			continue
		}
		if err := l.handle(ctx, n); err != nil {
			log.Printf("record: handling %s %s/%s: %v", n.Operation, n.EntityType, n.EntityID, err)
		}
	}
}

// triggerPayload is the JSON the commit triggers emit via pg_notify.
type triggerPayload struct {
	Operation string `json:"operation"`
	ID        string `json:"id"`
}

func decodeNotification(channel, payload string) (types.ChangeNotification, error) {
	var p triggerPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return types.ChangeNotification{}, fmt.Errorf("decoding payload: %w", err)
	}

	var entityType types.EntityType
	switch channel {
	case showChannel:
		entityType = types.EntityShow
	case episodeChannel:
		entityType = types.EntityEpisode
	default:
		return types.ChangeNotification{}, fmt.Errorf("unexpected channel %q", channel)
	}

	var op types.Operation
	switch p.Operation {
	case "INSERT":
		op = types.OpCreated
	case "UPDATE":
		op = types.OpUpdated
	case "DELETE":
		op = types.OpDeleted
	default:
		return types.ChangeNotification{}, fmt.Errorf("unexpected operation %q", p.Operation)
	}

	n := types.ChangeNotification{EntityType: entityType, EntityID: p.ID, Operation: op}
	if err := n.Validate(); err != nil {
		return types.ChangeNotification{}, err
	}
	return n, nil
}

// EnsureTriggers installs the notify function and per-table triggers.
// Run during migration; safe to run repeatedly.
func EnsureTriggers(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION notify_content_change() RETURNS trigger AS $$
		DECLARE
			row_id TEXT;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				row_id := OLD.id;
			ELSE
				row_id := NEW.id;
			END IF;
			PERFORM pg_notify(TG_ARGV[0], json_build_object('operation', TG_OP, 'id', row_id)::text);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql;

		DROP TRIGGER IF EXISTS shows_notify_change ON shows;
		CREATE TRIGGER shows_notify_change
			AFTER INSERT OR UPDATE OR DELETE ON shows
			FOR EACH ROW EXECUTE FUNCTION notify_content_change('show_changes');

		DROP TRIGGER IF EXISTS episodes_notify_change ON episodes;
		CREATE TRIGGER episodes_notify_change
			AFTER INSERT OR UPDATE OR DELETE ON episodes
			FOR EACH ROW EXECUTE FUNCTION notify_content_change('episode_changes');
	`)
	if err != nil {
		return fmt.Errorf("installing change triggers: %w", err)
	}
	return nil
}
