package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "snapshot:"

// BadgerStore keeps snapshots as values in a badger database.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open badger database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens a badger database at dir with badger's own logging disabled.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

func (s *BadgerStore) Save(ctx context.Context, name string, v any) error {
	data, err := Encode(name, v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerKeyPrefix+name), data); err != nil {
			return fmt.Errorf("set snapshot: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) Load(ctx context.Context, name string, v any) error {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return err
	}

	_, err = Decode(data, v)
	return err
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Open returns the store for backend rooted at dir and a closer for any
// resources it holds. Unknown backends fall back to files.
func Open(backend, dir string) (Store, func() error, error) {
	if backend == BackendBadger {
		db, err := OpenBadger(dir)
		if err != nil {
			return nil, nil, err
		}
		return NewBadgerStore(db), db.Close, nil
	}
	fs, err := NewFileStore(dir)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() error { return nil }, nil
}
