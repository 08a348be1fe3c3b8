package draftstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"eventwizard/internal/drafts"

	"github.com/dgraph-io/badger"
)

// Badger keeps snapshots in an embedded on-disk key value store, which suits a
// single instance deployment without Redis or PostgreSQL.
type Badger struct {
	db     *badger.DB
	ttl    time.Duration
	closed atomic.Bool
}

// OpenBadger opens (or creates) the database directory at path
func OpenBadger(path string, ttl time.Duration) (*Badger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", path, err)
	}
	return &Badger{db: db, ttl: ttl}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, drafts.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	return value, nil
}

func (b *Badger) Set(_ context.Context, key string, value []byte) error {
	entry := badger.NewEntry([]byte(key), value)
	if b.ttl > 0 {
		entry = entry.WithTTL(b.ttl)
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	}); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

func (b *Badger) Delete(_ context.Context, key string) error {
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

func (b *Badger) Ping(context.Context) error {
	if b.closed.Load() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (b *Badger) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}
