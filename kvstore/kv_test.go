package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh store per implementation
func backends(t *testing.T) map[string]Store {
	t.Helper()

	b, err := NewBadger(BadgerOptions{InMemory: true})
	require.NoError(t, err, "Expected in-memory badger to open")

	stores := map[string]Store{
		"memory": NewMemory(),
		"badger": b,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestKey(t *testing.T) {
	t.Run("Encode and decode key", func(t *testing.T) {
		k := Key{"term", "language", "00000000000000000001"}
		assert.Equal(t, "term:language:00000000000000000001", k.String())
		assert.Equal(t, k, decodeKey(k.encode()))
	})

	t.Run("Prefix ends with separator", func(t *testing.T) {
		assert.Equal(t, []byte("rel:"), Key{"rel"}.prefix())
		assert.Nil(t, Key{}.prefix())
	})
}

func TestStoreGetSetDelete(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run("Get set and delete on "+name, func(t *testing.T) {
			key := Key{"entity", "a"}

			_, err := s.Get(ctx, key)
			assert.ErrorIs(t, err, ErrKeyNotFound, "Expected missing key")

			require.NoError(t, s.Set(ctx, key, []byte("one")))
			got, err := s.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), got)

			require.NoError(t, s.Set(ctx, key, []byte("two")))
			got, err = s.Get(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), got, "Expected overwrite")

			require.NoError(t, s.Delete(ctx, key))
			_, err = s.Get(ctx, key)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			assert.NoError(t, s.Delete(ctx, Key{"entity", "missing"}), "Expected delete of missing key to succeed")
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run("List by prefix on "+name, func(t *testing.T) {
			require.NoError(t, s.BatchSet(ctx, []Entry{
				{Key: Key{"rel", "2"}, Value: []byte("b")},
				{Key: Key{"rel", "1"}, Value: []byte("a")},
				{Key: Key{"relidx", "x", "1"}},
				{Key: Key{"term", "gender", "1"}, Value: []byte("g")},
			}))

			var keys []string
			var values []string
			for entry, err := range s.List(ctx, Key{"rel"}) {
				require.NoError(t, err)
				keys = append(keys, entry.Key.String())
				values = append(values, string(entry.Value))
			}
			assert.Equal(t, []string{"rel:1", "rel:2"}, keys, "Expected sorted keys below the prefix only")
			assert.Equal(t, []string{"a", "b"}, values)
		})

		t.Run("List stops early on "+name, func(t *testing.T) {
			count := 0
			for range s.List(ctx, Key{}) {
				count++
				break
			}
			assert.Equal(t, 1, count)
		})
	}
}

func TestNewBadger(t *testing.T) {
	t.Run("Directory is required on disk", func(t *testing.T) {
		_, err := NewBadger(BadgerOptions{})
		assert.Error(t, err)
	})

	t.Run("Open on disk", func(t *testing.T) {
		b, err := NewBadger(BadgerOptions{Dir: t.TempDir()})
		require.NoError(t, err)
		ctx := context.Background()
		require.NoError(t, b.Set(ctx, Key{"a"}, []byte("1")))
		require.NoError(t, b.Close())
	})
}
