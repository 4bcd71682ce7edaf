package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for database operations.
var (
	ErrStorageUnavailable = errors.New("db: storage unavailable")
	ErrIndexConflict      = errors.New("db: index conflict")
	ErrQuery              = errors.New("db: malformed query")
)

// ErrCollectionNotFound is a StorageUnavailable condition: reports have
// nothing to read and indexes have nothing to cover.
var ErrCollectionNotFound = fmt.Errorf("%w: collection not found", ErrStorageUnavailable)

// Op constants name the store command for error context.
const (
	OpConnect         = "CONNECT"
	OpPing            = "PING"
	OpCreateIndex     = "CREATE_INDEX"
	OpListIndexes     = "LIST_INDEXES"
	OpIndexInfo       = "INDEX_INFO"
	OpAggregate       = "AGGREGATE"
	OpListCollections = "LIST_COLLECTIONS"
	OpScan            = "SCAN"
	OpHGetAll         = "HGETALL"
	OpHSet            = "HSET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Unavailable wraps err as a StorageUnavailable failure of op.
func Unavailable(op string, err error) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrStorageUnavailable, err)}
}

// IndexConflictError reports an existing index whose keys differ from the
// requested declaration.
type IndexConflictError struct {
	Name      string
	Existing  []IndexKey
	Requested []IndexKey
}

func (e *IndexConflictError) Error() string {
	return fmt.Sprintf("%s: %q exists with keys %s, requested %s",
		ErrIndexConflict.Error(), e.Name, FormatKeys(e.Existing), FormatKeys(e.Requested))
}

func (e *IndexConflictError) Unwrap() error { return ErrIndexConflict }

// NewIndexConflict creates an index conflict error.
func NewIndexConflict(name string, existing, requested []IndexKey) error {
	return &IndexConflictError{Name: name, Existing: existing, Requested: requested}
}
