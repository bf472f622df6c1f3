package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

const HeaderEventType = "event_type"

type Source interface {
	// Drain claims up to limit events, passes them to fn and marks the ids fn
	// returns as published.
	Drain(ctx context.Context, limit int, fn func(context.Context, []Event) ([]string, error)) (int, error)
}

type Publisher interface {
	// Publish returns the ids that reached the broker.
	Publish(ctx context.Context, events []Event) ([]string, error)
}

type Relay struct {
	src      Source
	pub      Publisher
	log      *zap.Logger
	interval time.Duration
	batch    int
	// OnResult is called once per event with "published" or "failed".
	OnResult func(result string, n int)
}

func NewRelay(src Source, pub Publisher, log *zap.Logger, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{src: src, pub: pub, log: log, interval: interval, batch: 100}
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	r.log.Info("outbox relay started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return nil
		case <-t.C:
			// Keep draining while full batches come back.
			for {
				n, err := r.RunOnce(ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						r.log.Error("outbox relay", zap.Error(err))
					}
					break
				}
				if n < r.batch {
					break
				}
			}
		}
	}
}

// RunOnce relays a single batch and reports how many events were published.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	return r.src.Drain(ctx, r.batch, func(ctx context.Context, events []Event) ([]string, error) {
		ids, err := r.pub.Publish(ctx, events)
		if failed := len(events) - len(ids); failed > 0 {
			r.report("failed", failed)
			r.log.Warn("outbox events not published", zap.Int("failed", failed), zap.Error(err))
		}
		r.report("published", len(ids))
		return ids, err
	})
}

func (r *Relay) report(result string, n int) {
	if r.OnResult != nil && n > 0 {
		r.OnResult(result, n)
	}
}

// KafkaPublisher produces each event keyed by its aggregate id so that events
// of one order stay on one partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaPublisher{client: cl, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []Event) ([]string, error) {
	records := make([]*kgo.Record, len(events))
	byRecord := make(map[*kgo.Record]string, len(events))
	for i, e := range events {
		records[i] = Record(p.topic, e)
		byRecord[records[i]] = e.ID
	}
	// Results do not come back in input order.
	results := p.client.ProduceSync(ctx, records...)

	ids := make([]string, 0, len(events))
	for _, res := range results {
		if res.Err == nil {
			ids = append(ids, byRecord[res.Record])
		}
	}
	return ids, results.FirstErr()
}

func (p *KafkaPublisher) Close() { p.client.Close() }

// Record maps an event onto a Kafka record.
func Record(topic string, e Event) *kgo.Record {
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventType, Value: []byte(e.EventType)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}
}
