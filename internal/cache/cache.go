package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Store is a string key-value store on top of a gocache store.
type Store struct {
	cache  *cache.Cache[any]
	closer func() error
}

// NewMemory creates a process-local store backed by go-cache.
func NewMemory() *Store {
	// never expire items, the documents live as long as the process
	gocacheClient := gocache.New(gocache.NoExpiration, gocache.NoExpiration)
	gocacheStore := go_store.NewGoCache(gocacheClient)
	return &Store{
		cache:  cache.New[any](gocacheStore),
		closer: func() error { return nil },
	}
}

// NewRedis creates a store backed by the redis server at addr.
func NewRedis(addr string) *Store {
	redisClient := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	redisStore := redis_store.NewRedis(redisClient)
	return &Store{
		cache:  cache.New[any](redisStore),
		closer: redisClient.Close,
	}
}

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}

	switch v := value.(type) {
	case string:
		return v, true, nil
	case []byte:
		return string(v), true, nil
	case nil:
		return "", false, nil
	default:
		return "", false, fmt.Errorf("unexpected value type %T for key %s", value, key)
	}
}

// Set stores value under key without expiration.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.cache.Set(ctx, key, value)
}

// Delete removes key from the store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.cache.Delete(ctx, key); err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.closer()
}

func isNotFound(err error) bool {
	var notFound *store.NotFound
	return errors.As(err, &notFound) || errors.Is(err, store.NotFound{}) || errors.Is(err, redis.Nil)
}
