package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Badger is a KV backed by an embedded Badger database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database in dir.
func OpenBadger(dir string) (*Badger, error) {
	return openBadger(badger.DefaultOptions(dir))
}

// OpenBadgerInMemory opens a Badger database that never touches disk.
func OpenBadgerInMemory() (*Badger, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*Badger, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, wrap("badger", "open", "", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("badger", "get", key, err)
	}
	return value, true, nil
}

func (b *Badger) Set(_ context.Context, key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	return wrap("badger", "set", key, err)
}

func (b *Badger) Remove(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return wrap("badger", "remove", key, err)
}

func (b *Badger) Close() error {
	return b.db.Close()
}
