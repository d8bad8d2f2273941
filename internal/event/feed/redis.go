// Package feed maintains the low-latency recent-events view in Redis.
//
// The feed is a capped list: the relay pushes each committed event once and
// trims the tail, so light clients can poll the newest entries without
// holding a Kafka consumer or hitting the primary store.
package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"veilpay/internal/event"
	platformredis "veilpay/internal/platform/redis"
)

const key = "veilpay:events:recent"

// Redis is the capped recent-events list. Best-effort: the relay logs feed
// failures but does not retry them, because Kafka is the durable path.
type Redis struct {
	client *platformredis.Client
	limit  int64
}

func NewRedis(client *platformredis.Client, limit int) *Redis {
	return &Redis{client: client, limit: int64(limit)}
}

// Push prepends events (oldest first, so the newest ends up at the head) and
// trims the list to the configured cap.
func (f *Redis) Push(ctx context.Context, events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}

	payloads := make([]interface{}, 0, len(events))
	for _, ev := range events {
		p, err := json.Marshal(ev.ToWire())
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.ID, err)
		}
		payloads = append(payloads, p)
	}

	pipe := f.client.TxPipeline()
	pipe.LPush(ctx, key, payloads...)
	pipe.LTrim(ctx, key, 0, f.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push events to feed: %w", err)
	}
	return nil
}

// Recent returns up to limit wire-encoded events, newest first.
func (f *Redis) Recent(ctx context.Context, limit int) ([]event.Wire, error) {
	if limit <= 0 || int64(limit) > f.limit {
		limit = int(f.limit)
	}
	raw, err := f.client.LRange(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}
	out := make([]event.Wire, 0, len(raw))
	for _, item := range raw {
		var w event.Wire
		if err := json.Unmarshal([]byte(item), &w); err != nil {
			return nil, fmt.Errorf("decode feed entry: %w", err)
		}
		out = append(out, w)
	}
	return out, nil
}
