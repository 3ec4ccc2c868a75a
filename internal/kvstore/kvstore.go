// Package kvstore stores whole JSON documents in a string-keyed key-value backend.
//
// A document that is missing or cannot be decoded is treated as absent and
// replaced by its fallback value, so corrupt storage never stops the app.
// Errors reported by the backend itself are never swallowed.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/cache"
	"github.com/jon4hz/quizdeck/internal/config"
	"github.com/jon4hz/quizdeck/internal/database"
)

// Backend is a synchronous string-keyed store.
type Backend interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend.
	Close() error
}

var (
	_ Backend = (*cache.Store)(nil)
	_ Backend = (*database.Client)(nil)
)

// Open creates the backend selected by cfg.
func Open(cfg *config.StorageConfig) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Type {
	case config.StorageTypeMemory:
		backend = cache.NewMemory()
	case config.StorageTypeRedis:
		backend = cache.NewRedis(cfg.RedisURL)
	case config.StorageTypeSQLite:
		backend, err = database.New(cfg.Path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}

	log.Debug("Opened storage backend", "type", cfg.Type, "namespace", cfg.Namespace)

	if cfg.Namespace != "" {
		backend = Namespaced(backend, cfg.Namespace)
	}
	return backend, nil
}

type namespaced struct {
	Backend
	prefix string
}

// Namespaced prefixes every key of backend with prefix and a colon.
func Namespaced(backend Backend, prefix string) Backend {
	return &namespaced{Backend: backend, prefix: prefix + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.Backend.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.Backend.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.Backend.Delete(ctx, n.prefix+key)
}

// Document is a JSON value of type T stored under a single key.
type Document[T any] struct {
	backend  Backend
	key      string
	fallback func() T
}

// NewDocument creates a document for key. fallback builds the value used
// when the key is missing or holds malformed JSON.
func NewDocument[T any](backend Backend, key string, fallback func() T) *Document[T] {
	if fallback == nil {
		fallback = func() T { return *new(T) }
	}
	return &Document[T]{
		backend:  backend,
		key:      key,
		fallback: fallback,
	}
}

// Load reads the document. found is false if the key is missing or its
// content could not be decoded; the fallback value is returned in that case.
func (d *Document[T]) Load(ctx context.Context) (value T, found bool, err error) {
	raw, ok, err := d.backend.Get(ctx, d.key)
	if err != nil {
		return d.fallback(), false, fmt.Errorf("failed to read %s: %w", d.key, err)
	}
	if !ok {
		return d.fallback(), false, nil
	}

	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		log.Warn("Ignoring malformed stored document", "key", d.key, "error", err)
		return d.fallback(), false, nil
	}
	return value, true, nil
}

// Save replaces the document with value.
func (d *Document[T]) Save(ctx context.Context, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", d.key, err)
	}
	if err := d.backend.Set(ctx, d.key, string(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", d.key, err)
	}
	return nil
}

// Remove deletes the document.
func (d *Document[T]) Remove(ctx context.Context) error {
	if err := d.backend.Delete(ctx, d.key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", d.key, err)
	}
	return nil
}
