package models

import "time"

// Backup is one row of backup history: a completed run of the engine and
// where its output lives.
type Backup struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Path               string    `json:"-"` // Internal use, not exposed to client
	SizeBytes          int64     `json:"sizeBytes"`
	FileCount          int       `json:"fileCount"`
	Compress           bool      `json:"compress"`
	Folders            []string  `json:"folders"`
	ExcludedExtensions []string  `json:"excludedExtensions"`
	CreatedAt          time.Time `json:"createdAt"`
}
