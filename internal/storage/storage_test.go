package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	db, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]KV{
		"memory": NewMemory(),
		"badger": db,
	}
}

func TestKV(t *testing.T) {
	ctx := context.Background()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put(ctx, "task/0002", []byte("b")))
			require.NoError(t, kv.Put(ctx, "task/0001", []byte("a")))
			require.NoError(t, kv.Put(ctx, "meta/seq", []byte("2")))

			v, err := kv.Get(ctx, "task/0001")
			require.NoError(t, err)
			assert.Equal(t, "a", string(v))

			keys, err := kv.Keys(ctx, "task/")
			require.NoError(t, err)
			assert.Equal(t, []string{"task/0001", "task/0002"}, keys)

			require.NoError(t, kv.Put(ctx, "task/0001", []byte("a2")))
			v, err = kv.Get(ctx, "task/0001")
			require.NoError(t, err)
			assert.Equal(t, "a2", string(v))

			require.NoError(t, kv.Delete(ctx, "task/0001"))
			_, err = kv.Get(ctx, "task/0001")
			assert.ErrorIs(t, err, ErrKeyNotFound)
			require.NoError(t, kv.Delete(ctx, "task/0001"), "deleting twice is fine")

			assert.ErrorIs(t, kv.Put(ctx, "", nil), ErrKeyEmpty)
			_, err = kv.Get(ctx, "")
			assert.ErrorIs(t, err, ErrKeyEmpty)
		})
	}
}

func TestBadgerSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, "task/0001", []byte(`{"id":"1"}`)))
	require.NoError(t, db.Close())

	db, err = OpenBadger(dir)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get(ctx, "task/0001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(v))
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("abc")
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[0] = 'x'

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}
