package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/showgrid/showgrid/internal/types"
)

// fetchMaxWait bounds a single pull request. It also bounds how long
// Consume takes to notice a cancelled context, since cancellation is
// only checked between fetches.
const fetchMaxWait = 2 * time.Second

// JetStreamConfig configures the NATS-backed queue.
type JetStreamConfig struct {
	URL       string
	Stream    string
	Subject   string
	Durable   string
	BatchSize int
}

// JetStream implements Queue on a NATS JetStream stream with a durable
// pull consumer. Explicit acks give the at-least-once contract; Nak'd
// messages are redelivered under the consumer's backoff policy.
type JetStream struct {
	nc   *nats.Conn
	js   jetstream.JetStream
	cons jetstream.Consumer
	cfg  JetStreamConfig
}

// NewJetStream connects and ensures the stream and durable consumer exist.
func NewJetStream(ctx context.Context, cfg JetStreamConfig) (*JetStream, error) {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 10
	}

	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring stream %s: %w", cfg.Stream, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:   cfg.Durable,
		AckPolicy: jetstream.AckExplicitPolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring consumer %s: %w", cfg.Durable, err)
	}

	return &JetStream{nc: nc, js: js, cons: cons, cfg: cfg}, nil
}

// Close drains the underlying connection.
func (q *JetStream) Close() {
	q.nc.Close()
}

func (q *JetStream) SendIndexMessage(ctx context.Context, n types.ChangeNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification: %w", err)
	}
	if _, err := q.js.Publish(ctx, q.cfg.Subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", q.cfg.Subject, err)
	}
	return nil
}

func (q *JetStream) Consume(ctx context.Context, handler BatchHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fetched, err := q.cons.Fetch(q.cfg.BatchSize, jetstream.FetchMaxWait(fetchMaxWait))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			log.Printf("queue: fetch error: %v", err)
			continue
		}

		var batch []Delivery
		for msg := range fetched.Messages() {
			d, ok := q.decode(msg)
			if !ok {
				continue
			}
			batch = append(batch, d)
		}
		if err := fetched.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			log.Printf("queue: batch error: %v", err)
		}

		if len(batch) > 0 {
			handler(ctx, batch)
		}
	}
}

// decode unpacks a JetStream message. Malformed payloads are structurally
// unprocessable: they are logged and terminated so the server stops
// redelivering them.
func (q *JetStream) decode(msg jetstream.Msg) (Delivery, bool) {
	var n types.ChangeNotification
	if err := json.Unmarshal(msg.Data(), &n); err != nil {
		log.Printf("queue: terminating malformed message: %v", err)
		_ = msg.Term()
		return Delivery{}, false
	}
	if err := n.Validate(); err != nil {
		log.Printf("queue: terminating invalid notification: %v", err)
		_ = msg.Term()
		return Delivery{}, false
	}
	return NewDelivery(n, msg.Ack, func() error { return msg.Nak() }), true
}
