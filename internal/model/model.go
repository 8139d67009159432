// Package model defines the data models for the application.
// Persisted models use GORM with SQLite; payload types mirror the JSON document embedded in report pages.
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a custom type for storing JSON maps in SQLite
type JSONMap map[string]interface{}

// Value implements driver.Valuer interface
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	data, err := json.Marshal(j)
	return string(data), err
}

// Scan implements sql.Scanner interface
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// Float returns a pointer to v, for building payloads in code.
func Float(v float64) *float64 {
	return &v
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}

// AllModels returns all models for auto-migration
func AllModels() []interface{} {
	return []interface{}{
		&Report{},
	}
}
