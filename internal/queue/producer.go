package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Task types carried on the stream.
const (
	TaskDeleteBlob = "delete_blob"
)

// Producer publishes background tasks onto the Redis stream the worker
// binary consumes.
type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

// EnqueueDeleteBlob schedules removal of an object. Record deletion has
// already happened by the time this runs; blob removal is deferred and
// at-least-once.
func (p *Producer) EnqueueDeleteBlob(ctx context.Context, bucket, key string) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload := map[string]any{
		"type":   TaskDeleteBlob,
		"bucket": bucket,
		"object": key,
	}
	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: payload,
	}).Result(); err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
