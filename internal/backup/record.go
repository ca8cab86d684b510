package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MetadataEntryName is the fixed name of the metadata entry inside a
// compressed archive.
const MetadataEntryName = "backup_metadata.json"

// Record captures what a single backup run contained: when it ran, how much
// data it covered, and the options it ran with.
type Record struct {
	Timestamp          time.Time `json:"timestamp"`
	SizeInBytes        int64     `json:"size_in_bytes"`
	FileCount          int       `json:"file_count"`
	Folders            []string  `json:"folders"`
	Compress           bool      `json:"compress"`
	ExcludedExtensions []string  `json:"excluded_extensions"`

	// JSONSizeInBytes is the byte length of the record's own serialized
	// form, learned after the record has been written out. Not serialized
	// itself.
	JSONSizeInBytes int64 `json:"-"`
}

// NewRecord snapshots the options and totals at the current wall-clock time.
func NewRecord(opts *Options, sizeInBytes int64, fileCount int) *Record {
	excluded := append([]string{}, opts.ExcludedExtensions...)
	return &Record{
		Timestamp:          time.Now(),
		SizeInBytes:        sizeInBytes,
		FileCount:          fileCount,
		Folders:            FolderNames(opts.Folders),
		Compress:           opts.Compress,
		ExcludedExtensions: excluded,
	}
}

// FileName returns the deterministic sidecar name for this record, derived
// from its timestamp.
func (r *Record) FileName() string {
	return fmt.Sprintf("backup_metadata_%s.json", r.Timestamp.Format("20060102150405"))
}

// MarshalIndent renders the record as indented JSON.
func (r *Record) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, &SerializationError{Err: err}
	}
	return data, nil
}

// WriteJSON serializes the record to path, then records the written file's
// size into JSONSizeInBytes.
func (r *Record) WriteJSON(path string) error {
	data, err := r.MarshalIndent()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing metadata file: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("sizing metadata file: %w", err)
	}
	r.JSONSizeInBytes = info.Size()
	return nil
}

// ReadRecord parses a metadata file written by WriteJSON.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &SerializationError{Err: err}
	}
	r.JSONSizeInBytes = int64(len(data))
	return &r, nil
}
