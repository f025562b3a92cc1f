// Package events publishes run-lifecycle events to a Redis stream so other
// services can react to sync outcomes. Publishing is optional and best
// effort: a broker outage must never fail a sync run.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type EventType string

const (
	EventTypeRunStarted   EventType = "RUN_STARTED"
	EventTypeRunCompleted EventType = "RUN_COMPLETED"
	EventTypeRunFailed    EventType = "RUN_FAILED"
)

type Event struct {
	EventID    string    `json:"event_id"`
	EventType  EventType `json:"event_type"`
	Timestamp  time.Time `json:"timestamp"`
	RunID      string    `json:"run_id"`
	Attempts   int       `json:"attempts,omitempty"`
	RowsSynced int       `json:"rows_synced,omitempty"`
	Artifact   string    `json:"artifact,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// RedisClient is the slice of the Redis API the publisher uses (for testing).
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

type Publisher struct {
	client RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		logger: slog.Default().With("component", "events"),
	}
}

func (p *Publisher) Close() error {
	return p.client.Close()
}

// Publish appends the event to the stream, assigning an event ID and a
// timestamp when absent.
func (p *Publisher) Publish(ctx context.Context, evt *Event) error {
	if evt.EventID == "" {
		evt.EventID = uuid.New().String()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event_type": string(evt.EventType),
			"payload":    string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event to stream %s: %w", p.stream, err)
	}

	p.logger.Debug("event published", "type", evt.EventType, "run_id", evt.RunID)
	return nil
}
