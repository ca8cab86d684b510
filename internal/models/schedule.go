package models

import (
	"encoding/json"
	"time"
)

// Schedule task types.
const (
	TaskBackup = "backup"
	TaskPrune  = "prune"
)

// Schedule represents a single automated task: a recurring backup run or a
// retention prune of old backups.
type Schedule struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CronExpression string          `json:"cronExpression"` // e.g., "0 4 * * *" for 4 AM daily
	TaskType       string          `json:"taskType"`       // "backup" or "prune"
	PayloadJSON    string          `json:"-"`              // Stored as JSON object string
	Payload        json.RawMessage `json:"payload"`        // Exposed to clients
	IsActive       bool            `json:"isActive"`
	LastRunAt      *time.Time      `json:"lastRunAt"`
	NextRunAt      *time.Time      `json:"nextRunAt"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// PrepareForDB ensures the payload is in its JSON string form before saving.
func (s *Schedule) PrepareForDB() {
	if s.Payload != nil {
		s.PayloadJSON = string(s.Payload)
	}
}

// PrepareForAPI ensures the stored JSON string is exposed as a raw payload.
func (s *Schedule) PrepareForAPI() {
	if s.PayloadJSON != "" {
		s.Payload = []byte(s.PayloadJSON)
	}
}
