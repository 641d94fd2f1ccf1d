package internal

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV stores items in an embedded Badger database
type BadgerKV struct {
	db *badger.DB
}

// OpenBadgerKV opens a Badger database in dir; an empty dir opens an
// in-memory instance
func OpenBadgerKV(dir string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &StorageError{Key: dir, Op: "open", Err: err}
	}
	return &BadgerKV{db: db}, nil
}

func (b *BadgerKV) GetItem(key string) (string, bool, error) {
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
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Key: key, Op: "get", Err: err}
	}
	return string(value), true, nil
}

func (b *BadgerKV) SetItem(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return &StorageError{Key: key, Op: "set", Err: err}
	}
	return nil
}

func (b *BadgerKV) RemoveItem(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return &StorageError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

func (b *BadgerKV) Close() error {
	return b.db.Close()
}

var _ KeyValueStore = (*BadgerKV)(nil)
