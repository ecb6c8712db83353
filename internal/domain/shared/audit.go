package shared

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StatusChange is one entry in an aggregate's status audit trail
type StatusChange struct {
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason,omitempty"`
}

// NewStatusChange records a status transition at the current time
func NewStatusChange(from, to, actor, reason string) StatusChange {
	return StatusChange{
		Timestamp: time.Now(),
		From:      from,
		To:        to,
		Actor:     actor,
		Reason:    reason,
	}
}

// StatusChanges is a status audit trail that implements GORM
// Scanner/Valuer for JSONB storage
type StatusChanges []StatusChange

// Value implements driver.Valuer for JSONB storage
func (s StatusChanges) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for reading from JSONB
func (s *StatusChanges) Scan(value interface{}) error {
	if value == nil {
		*s = StatusChanges{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan StatusChanges: unsupported type")
	}

	if len(bytes) == 0 {
		*s = StatusChanges{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}
