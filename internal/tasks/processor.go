package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"thumbforge/internal/queue"
)

// BlobRemover is the slice of the object store the processor needs.
type BlobRemover interface {
	Remove(ctx context.Context, bucket, key string) error
}

// Processor executes deferred tasks the API enqueued.
type Processor struct {
	blobs  BlobRemover
	logger zerolog.Logger
}

type taskPayload struct {
	Type   string `json:"type"`
	Bucket string `json:"bucket"`
	Object string `json:"object"`
}

func NewProcessor(blobs BlobRemover, logger zerolog.Logger) *Processor {
	return &Processor{
		blobs:  blobs,
		logger: logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload taskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case queue.TaskDeleteBlob:
		return p.handleDeleteBlob(ctx, payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func (p *Processor) handleDeleteBlob(ctx context.Context, payload taskPayload) error {
	if payload.Bucket == "" || payload.Object == "" {
		p.logger.Warn().Str("bucket", payload.Bucket).Str("object", payload.Object).Msg("incomplete delete task")
		return nil
	}

	if err := p.blobs.Remove(ctx, payload.Bucket, payload.Object); err != nil {
		return fmt.Errorf("remove blob: %w", err)
	}

	p.logger.Debug().Str("bucket", payload.Bucket).Str("object", payload.Object).Msg("blob removed")
	return nil
}

func decodePayload(values map[string]interface{}, out *taskPayload) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
