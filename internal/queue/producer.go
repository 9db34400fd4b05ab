package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"mnemos.app/archive/internal/model"
)

// Producer publishes per-batch ingestion statistics to a stream so external
// dashboards can follow archive growth without polling the database.
type Producer interface {
	PublishBatch(ctx context.Context, stats model.BatchStats) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) PublishBatch(ctx context.Context, stats model.BatchStats) error {
	fields := map[string]any{
		"source_id":  stats.SourceID,
		"seen":       stats.Seen,
		"created":    stats.Created,
		"duplicates": stats.Duplicates,
		"unparsed":   stats.Unparsed,
		"position":   stats.Position,
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("publish batch stats: %w", err)
	}

	p.logger.InfoContext(ctx, "published batch stats", "source_id", stats.SourceID, "seen", stats.Seen, "created", stats.Created, "duplicates", stats.Duplicates, "unparsed", stats.Unparsed)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
