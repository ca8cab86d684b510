package backup

import "errors"

var (
	// ErrNoFolders is returned when a backup run is requested with no
	// folders selected. Enumerating an empty selection is still a valid
	// no-op; running a backup of it is not.
	ErrNoFolders = errors.New("backup: no folders selected")

	// ErrSameSourceDest is returned when source root and destination
	// resolve to the same path.
	ErrSameSourceDest = errors.New("backup: source and destination are the same path")
)

// SerializationError wraps a failure to encode or decode a metadata record.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return "backup: metadata serialization failed: " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
