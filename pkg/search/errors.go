package search

import "errors"

var (
	// ErrNotFound is returned when a record does not exist in the index.
	ErrNotFound = errors.New("record not found in search index")

	// ErrInvalidQuery is returned for malformed queries.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrBackendUnavailable is returned when the backend cannot be reached.
	ErrBackendUnavailable = errors.New("search backend unavailable")

	// ErrIndexingFailed is returned when records could not be indexed.
	ErrIndexingFailed = errors.New("failed to index record")
)

// Error is a search error carrying the failed operation.
type Error struct {
	Op  string
	Err error
	Msg string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
