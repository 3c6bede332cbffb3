package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/siherrmann/bibliograph/helper"
)

// jsonb reads and writes a JSONB column through encoding/json.
// A NULL column leaves the target untouched.
type jsonb struct {
	v interface{}
}

// Value implements the driver.Valuer interface for database storage
func (j jsonb) Value() (driver.Value, error) {
	b, err := json.Marshal(j.v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (j jsonb) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, j.v)
	case string:
		return json.Unmarshal([]byte(v), j.v)
	default:
		return helper.NewError("jsonb scan", fmt.Errorf("unsupported type %T", value))
	}
}
