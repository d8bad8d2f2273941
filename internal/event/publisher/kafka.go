// Package publisher delivers committed ledger events to external consumers.
//
// The Kafka publisher is the durable fan-out path: downstream scanners and
// wallets tail the topic to discover transfers addressed to them via routing
// tags. Delivery is at-least-once; consumers deduplicate on event ID.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"veilpay/internal/event"
)

// Kafka publishes events to a single topic, keyed by routing tag so that all
// transfers addressed to one receiver land in one partition in order.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer and ensures the topic exists. Returns nil when
// no brokers are configured (Kafka fan-out disabled).
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &Kafka{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	// Already-exists is the expected steady state on restart.
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Publish sends a batch of events synchronously and returns the first
// delivery error. On error the caller leaves the batch unacknowledged and the
// relay retries it on the next tick.
func (k *Kafka) Publish(ctx context.Context, events []*event.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev.ToWire())
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   ev.RoutingTag[:],
			Value: payload,
		})
	}
	if err := k.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce events: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}
