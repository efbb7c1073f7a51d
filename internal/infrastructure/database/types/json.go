package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON stores a document of type T in a JSON column.
type JSON[T any] struct {
	V     T
	Valid bool
}

// NewJSON wraps v for writing.
func NewJSON[T any](v T) JSON[T] {
	return JSON[T]{V: v, Valid: true}
}

// Scan implements sql.Scanner.
func (j *JSON[T]) Scan(src any) error {
	var zero T
	j.V = zero
	j.Valid = false
	if src == nil {
		return nil
	}
	switch data := src.(type) {
	case []byte:
		if len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, &j.V); err != nil {
			return err
		}
	case string:
		if data == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(data), &j.V); err != nil {
			return err
		}
	default:
		return fmt.Errorf("JSON: unsupported src type %T", src)
	}
	j.Valid = true
	return nil
}

// Value implements driver.Valuer. Documents are written as text so sqlite keeps them readable.
func (j JSON[T]) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
