package drafts

import (
	"context"
	"errors"
)

// ErrDraftNotFound is returned by a DraftStore when no snapshot exists under a key
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore is the recoverable keyed store that wizard snapshots are written to.
// Values are opaque JSON documents.
type DraftStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
