package collection

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultInvalidationChannel carries "origin key" messages.
	DefaultInvalidationChannel = "mentordesk.collections.bump"
	versionKeyPrefix           = "mentordesk:version:"
)

// Invalidator publishes collection writes over redis pub/sub and bumps a
// per-key version counter, so a server and a worker sharing one backend can
// drop stale in-memory copies.
type Invalidator struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *slog.Logger
}

// NewInvalidator constructs an Invalidator. An empty channel uses the default.
func NewInvalidator(client *redis.Client, channel string, logger *slog.Logger) *Invalidator {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{client: client, channel: channel, origin: uuid.NewString(), logger: logger}
}

// Bump increments the key's version and announces the write.
func (i *Invalidator) Bump(ctx context.Context, key string) error {
	if i == nil || i.client == nil {
		return nil
	}
	if err := i.client.Incr(ctx, versionKeyPrefix+key).Err(); err != nil {
		return err
	}
	return i.client.Publish(ctx, i.channel, i.origin+" "+key).Err()
}

// Version returns the key's write counter, zero when never written.
func (i *Invalidator) Version(ctx context.Context, key string) (int64, error) {
	if i == nil || i.client == nil {
		return 0, nil
	}
	ver, err := i.client.Get(ctx, versionKeyPrefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return ver, err
}

// Listen subscribes to bumps from other processes and calls fn with each key
// until ctx is cancelled. Messages this Invalidator published are skipped.
func (i *Invalidator) Listen(ctx context.Context, fn func(ctx context.Context, key string)) error {
	if i == nil || i.client == nil {
		return nil
	}
	pubsub := i.client.Subscribe(ctx, i.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				origin, key, found := strings.Cut(msg.Payload, " ")
				if !found || key == "" {
					i.logger.Warn("malformed invalidation", slog.String("payload", msg.Payload))
					continue
				}
				if origin == i.origin {
					continue
				}
				fn(ctx, key)
			}
		}
	}()
	return nil
}
