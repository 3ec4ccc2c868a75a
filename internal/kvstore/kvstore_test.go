package kvstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jon4hz/quizdeck/internal/config"
	"github.com/jon4hz/quizdeck/internal/kvstore"
	"github.com/jon4hz/quizdeck/internal/kvstore/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ kvstore.Backend = (*mock.MockBackend)(nil)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDocument_Load(t *testing.T) {
	fallback := func() []doc { return []doc{} }

	tests := []struct {
		name      string
		raw       *string
		want      []doc
		wantFound bool
	}{
		{
			name:      "missing key",
			raw:       nil,
			want:      []doc{},
			wantFound: false,
		},
		{
			name:      "malformed json",
			raw:       strPtr(`[{"name": "a"`),
			want:      []doc{},
			wantFound: false,
		},
		{
			name:      "wrong shape",
			raw:       strPtr(`{"name": "a"}`),
			want:      []doc{},
			wantFound: false,
		},
		{
			name:      "stored value",
			raw:       strPtr(`[{"name":"a","count":2}]`),
			want:      []doc{{Name: "a", Count: 2}},
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mock.NewMockBackend()
			if tt.raw != nil {
				backend.Put("docs", *tt.raw)
			}

			got, found, err := kvstore.NewDocument(backend, "docs", fallback).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocument_BackendErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	backend := mock.NewMockBackend()
	d := kvstore.NewDocument[doc](backend, "doc", nil)
	unavailable := errors.New("storage unavailable")

	backend.GetError = unavailable
	_, _, err := d.Load(ctx)
	assert.ErrorIs(t, err, unavailable)

	backend.SetError = unavailable
	assert.ErrorIs(t, d.Save(ctx, doc{Name: "x"}), unavailable)

	backend.DeleteError = unavailable
	assert.ErrorIs(t, d.Remove(ctx), unavailable)

	// the document recovers once the backend does
	backend.Reset()
	require.NoError(t, d.Save(ctx, doc{Name: "x"}))
	got, found, err := d.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc{Name: "x"}, got)
}

func TestDocument_SaveAndRemove(t *testing.T) {
	ctx := context.Background()
	backend := mock.NewMockBackend()
	d := kvstore.NewDocument[doc](backend, "doc", nil)

	require.NoError(t, d.Save(ctx, doc{Name: "quiz", Count: 3}))
	raw, ok := backend.Raw("doc")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"quiz","count":3}`, raw)

	require.NoError(t, d.Remove(ctx))
	_, ok = backend.Raw("doc")
	assert.False(t, ok)

	// removing a missing document is fine
	require.NoError(t, d.Remove(ctx))
}

func TestNamespaced(t *testing.T) {
	ctx := context.Background()
	backend := mock.NewMockBackend()
	ns := kvstore.Namespaced(backend, "alice")

	require.NoError(t, ns.Set(ctx, "quizScores", "[]"))
	_, ok := backend.Raw("alice:quizScores")
	assert.True(t, ok)

	value, found, err := ns.Get(ctx, "quizScores")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", value)

	_, found, err = kvstore.Namespaced(backend, "bob").Get(ctx, "quizScores")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, ns.Delete(ctx, "quizScores"))
	_, ok = backend.Raw("alice:quizScores")
	assert.False(t, ok)

	require.NoError(t, ns.Close())
	assert.True(t, backend.Closed())
}

func TestNamespaced_CloseError(t *testing.T) {
	backend := mock.NewMockBackend()
	backend.CloseError = errors.New("close failed")

	assert.ErrorIs(t, kvstore.Namespaced(backend, "alice").Close(), backend.CloseError)
	assert.True(t, backend.Closed())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		backend, err := kvstore.Open(&config.StorageConfig{Type: config.StorageTypeMemory})
		require.NoError(t, err)
		defer backend.Close() //nolint:errcheck

		require.NoError(t, backend.Set(ctx, "k", "v"))
		value, found, err := backend.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", value)
	})

	t.Run("sqlite with namespace", func(t *testing.T) {
		backend, err := kvstore.Open(&config.StorageConfig{
			Type:      config.StorageTypeSQLite,
			Path:      t.TempDir() + "/quizdeck.db",
			Namespace: "test",
		})
		require.NoError(t, err)
		defer backend.Close() //nolint:errcheck

		require.NoError(t, backend.Set(ctx, "k", "v"))
		value, found, err := backend.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "v", value)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := kvstore.Open(&config.StorageConfig{Type: "etcd"})
		assert.Error(t, err)
	})
}

func strPtr(s string) *string {
	return &s
}
