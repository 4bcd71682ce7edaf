package mongodb

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kailas-cloud/wikirank/internal/db"
)

// Server error codes the store distinguishes.
const (
	codeUnauthorized          = 13
	codeAuthenticationFailed  = 18
	codeNamespaceNotFound     = 26
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// wrapErr classifies a driver error. Server replies are query faults,
// except auth failures and a missing namespace; everything else (network,
// server selection, timeouts, a disconnected client) is StorageUnavailable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var se mongo.ServerError
	if errors.As(err, &se) && !mongo.IsNetworkError(err) && !mongo.IsTimeout(err) {
		switch {
		case se.HasErrorCode(codeNamespaceNotFound):
			return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrCollectionNotFound, err)}
		case se.HasErrorCode(codeIndexOptionsConflict), se.HasErrorCode(codeIndexKeySpecsConflict):
			return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrIndexConflict, err)}
		case se.HasErrorCode(codeUnauthorized), se.HasErrorCode(codeAuthenticationFailed):
			return db.Unavailable(op, err)
		default:
			return &db.Error{Op: op, Err: fmt.Errorf("%w: %w", db.ErrQuery, err)}
		}
	}

	return db.Unavailable(op, err)
}
