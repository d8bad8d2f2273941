//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"veilpay/internal/event"
	"veilpay/internal/event/publisher"
	"veilpay/pkg/testutil/containers"
)

func TestKafkaPublishRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "veilpay.events.test"

	pub, err := publisher.NewKafka(ctx, []string{broker}, topic)
	require.NoError(t, err)
	require.NotNil(t, pub)
	defer pub.Close()

	ev := event.NewPrivateTransfer([32]byte{1}, [32]byte{2}, 254, time.Now().UTC())
	ev.Seq = 1
	require.NoError(t, pub.Publish(ctx, []*event.Event{ev}))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, ev.RoutingTag[:], records[0].Key)

	var wire event.Wire
	require.NoError(t, json.Unmarshal(records[0].Value, &wire))
	require.Equal(t, ev.ID.String(), wire.ID)
	require.Equal(t, uint64(1), wire.Height)
	require.Equal(t, string(event.KindPrivateTransfer), wire.Kind)
}

// Re-creating the publisher against an existing topic must succeed.
func TestKafkaTopicAlreadyExists(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "veilpay.events.exists"

	first, err := publisher.NewKafka(ctx, []string{broker}, topic)
	require.NoError(t, err)
	first.Close()

	second, err := publisher.NewKafka(ctx, []string{broker}, topic)
	require.NoError(t, err)
	second.Close()
}
