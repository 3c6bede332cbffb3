// Package kvstore is the embedded entity store of the catalog.
//
// Entities, relationships and vocabularies are kept as JSON values under
// hierarchical keys (e.g. ["entity", "<bbid>"]) in a key-value Store. Two
// stores are provided: BadgerDB for persistent and in-memory runs and a map
// based Memory store for tests.
package kvstore

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrKeyNotFound is returned by Get when a key does not exist
var ErrKeyNotFound = errors.New("kv: key not found")

// Separator joins key segments in storage. Segments must not contain it.
const Separator byte = ':'

// Key is a hierarchical path, e.g. Key{"term", "language", "00000000000000000001"}
type Key []string

func (k Key) String() string {
	return strings.Join(k, string(Separator))
}

func (k Key) encode() []byte {
	return []byte(k.String())
}

// prefix returns the encoded key followed by the separator,
// so Key{"rel"} does not match "relidx:...". An empty key matches everything.
func (k Key) prefix() []byte {
	if len(k) == 0 {
		return nil
	}
	return append(k.encode(), Separator)
}

func decodeKey(b []byte) Key {
	parts := bytes.Split(b, []byte{Separator})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}

// Entry is a key-value pair
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path based keys
type Store interface {
	// Get returns ErrKeyNotFound for missing keys
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	// Delete does not fail for missing keys
	Delete(ctx context.Context, key Key) error
	// List yields the entries below prefix in lexicographic key order
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]
	// BatchSet stores all entries atomically
	BatchSet(ctx context.Context, entries []Entry) error
	Close() error
}
