package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yski/yski-client/internal/client/storage"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dashboard_test.db")

	s, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func TestNew_RunsMigrations(t *testing.T) {
	s := setupTestStorage(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'kv'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "kv", name)
}

func TestKV_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	kv := setupTestStorage(t).Namespace("sessions")

	_, err := kv.Get(ctx, "yski-auth:abc")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, kv.Put(ctx, "yski-auth:abc", []byte(`{"version":1}`)))
	got, err := kv.Get(ctx, "yski-auth:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":1}`), got)

	// upsert
	require.NoError(t, kv.Put(ctx, "yski-auth:abc", []byte(`{"version":1,"state":{}}`)))
	got, err = kv.Get(ctx, "yski-auth:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"version":1,"state":{}}`), got)

	require.NoError(t, kv.Delete(ctx, "yski-auth:abc"))
	_, err = kv.Get(ctx, "yski-auth:abc")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, kv.Delete(ctx, "yski-auth:abc"))
}

func TestKV_NamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	require.NoError(t, s.Namespace("a").Put(ctx, "k", []byte("1")))
	require.NoError(t, s.Namespace("b").Put(ctx, "k", []byte("2")))

	a, err := s.Namespace("a").Get(ctx, "k")
	require.NoError(t, err)
	b, err := s.Namespace("b").Get(ctx, "k")
	require.NoError(t, err)

	assert.Equal(t, []byte("1"), a)
	assert.Equal(t, []byte("2"), b)
}

func TestStorage_Prune(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)
	kv := s.Namespace("sessions")

	require.NoError(t, kv.Put(ctx, "fresh", []byte("1")))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, ?)`,
		"sessions", "stale", []byte("2"), time.Now().Add(-48*time.Hour).Unix(),
	)
	require.NoError(t, err)

	n, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = kv.Get(ctx, "stale")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = kv.Get(ctx, "fresh")
	assert.NoError(t, err)
}
