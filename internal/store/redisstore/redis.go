// Package redisstore keeps collection payloads as redis string values.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mentordesk/mentordesk/internal/collection"
)

const defaultPrefix = "mentordesk:collection:"

// Store is a collection.Repository backed by redis GET/SET.
type Store struct {
	client *redis.Client
	prefix string
}

// New wraps client. An empty prefix uses "mentordesk:collection:".
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Load fetches the payload under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, collection.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %s: %w", key, err)
	}
	return payload, nil
}

// Save stores the payload under key without expiry.
func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", key, err)
	}
	return nil
}
