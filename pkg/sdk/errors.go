package wikirank

import "github.com/kailas-cloud/wikirank/internal/db"

// Sentinel errors re-exported from the storage layer.
// Use errors.Is() to check.
var (
	ErrStorageUnavailable = db.ErrStorageUnavailable
	ErrCollectionNotFound = db.ErrCollectionNotFound
	ErrIndexConflict      = db.ErrIndexConflict
	ErrQuery              = db.ErrQuery
)
