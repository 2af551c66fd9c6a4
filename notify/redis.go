package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChangeEvent is the payload published for every change
type ChangeEvent struct {
	URI string    `json:"uri"`
	At  time.Time `json:"at"`
}

// ChangesChannel returns the Redis channel carrying changes for an authority
func ChangesChannel(authority string) string {
	return fmt.Sprintf("todolist:%s:changes", authority)
}

// RedisPublisher is an Observer that republishes changes on a Redis channel
// so observers in other processes can react.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRedisPublisher creates a publisher for the given authority.
func NewRedisPublisher(opts *redis.Options, authority string, logger *slog.Logger) (*RedisPublisher, error) {
	if authority == "" {
		return nil, fmt.Errorf("authority cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{
		rdb:     redis.NewClient(opts),
		channel: ChangesChannel(authority),
		timeout: 2 * time.Second,
		logger:  logger,
	}, nil
}

// Ping verifies Redis connectivity
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}

// Changed publishes the change. Publishing failures are logged and never
// reach the caller; the local write has already succeeded.
func (p *RedisPublisher) Changed(uri string) {
	if err := p.Publish(context.Background(), uri); err != nil {
		p.logger.Warn("failed to publish change", "uri", uri, "channel", p.channel, "error", err)
	}
}

// Publish sends a change event for uri
func (p *RedisPublisher) Publish(ctx context.Context, uri string) error {
	payload, err := json.Marshal(ChangeEvent{URI: uri, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscription delivers change events published by any process
type Subscription struct {
	events chan ChangeEvent
	errors chan error
	cancel context.CancelFunc
	once   sync.Once
}

// Events returns the channel of change events
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

// Errors returns the channel of decode errors
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe listens for change events on the publisher's channel.
// The subscription is confirmed before Subscribe returns, so events published
// afterwards are not missed. Caller must Close it.
func (p *RedisPublisher) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := p.rdb.Subscribe(ctx, p.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", p.channel, err)
	}

	events := make(chan ChangeEvent, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(events)
		defer close(errs)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errs <- fmt.Errorf("failed to unmarshal change event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case events <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: events, errors: errs, cancel: cancel}, nil
}
