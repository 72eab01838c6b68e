package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/gridgame-coordinator/internal/entity"
)

const DefaultEventChannel = "gridgame:events"

type EventRepository interface {
	Publish(ctx context.Context, event entity.Event) error
	Subscribe(ctx context.Context) (<-chan entity.Event, func() error, error)
}

// dbEvent fans game events out over Redis pub/sub. Nothing is stored.
type dbEvent struct {
	client  *redis.Client
	channel string
}

func NewEventRepository(client *redis.Client, channel string) EventRepository {
	if channel == "" {
		channel = DefaultEventChannel
	}

	return &dbEvent{
		client:  client,
		channel: channel,
	}
}

func (that *dbEvent) Publish(ctx context.Context, event entity.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe returns decoded events until the returned close func is called or ctx is done.
func (that *dbEvent) Subscribe(ctx context.Context) (<-chan entity.Event, func() error, error) {
	pubsub := that.client.Subscribe(ctx, that.channel)

	// wait for the subscription to be confirmed so no event published afterwards is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", that.channel, err)
	}

	events := make(chan entity.Event)

	go func() {
		defer close(events)

		for msg := range pubsub.Channel() {
			var event entity.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, pubsub.Close, nil
}

// NopEventRepository drops every event. Used when Redis is disabled.
type NopEventRepository struct{}

func (NopEventRepository) Publish(context.Context, entity.Event) error {
	return nil
}
