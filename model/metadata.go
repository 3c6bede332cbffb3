package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/helper"
)

// Metadata holds the kind specific scalar fields of an entity.
// It is stored as JSONB in PostgreSQL and as plain JSON in the kv store.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if s, ok := value.(Metadata); ok {
		*m = Metadata(s)
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}

// String returns the string stored under key, or "" if absent or not a string
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns the integer stored under key.
// JSON numbers decode as float64, so whole floats are accepted too.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// BBID returns the entity identifier stored under key
func (m Metadata) BBID(key string) (uuid.UUID, bool) {
	s := m.String(key)
	if !IsBBID(s) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// SetInt stores i under key, or removes key when i is nil
func (m Metadata) SetInt(key string, i *int) {
	if i == nil {
		delete(m, key)
		return
	}
	m[key] = *i
}

// SetString stores s under key, or removes key when s is empty
func (m Metadata) SetString(key string, s string) {
	if len(s) == 0 {
		delete(m, key)
		return
	}
	m[key] = s
}
