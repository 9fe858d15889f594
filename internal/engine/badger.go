package engine

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

// BadgerEngine is the production Engine, backed by an embedded badger LSM
// tree. Badger's update transactions already track every key read via
// Txn.Get and fail Commit with a conflict error if another transaction wrote
// one of them first, which is exactly the get-for-update fencing the
// transactional contract needs.
type BadgerEngine struct {
	db *badger.DB
}

// OpenBadger opens (creating if necessary) a badger store at dir.
func OpenBadger(dir string) (*BadgerEngine, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerEngine{db: db}, nil
}

func (e *BadgerEngine) Close() error {
	return e.db.Close()
}

func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (e *BadgerEngine) Put(ctx context.Context, key, value []byte) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (e *BadgerEngine) MultiGet(ctx context.Context, keys [][]byte) ([][]byte, error) {
	results := make([][]byte, len(keys))
	err := e.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(key)
			if err == badger.ErrKeyNotFound {
				results[i] = nil
				continue
			}
			if err != nil {
				return err
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			results[i] = value
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (e *BadgerEngine) Update(ctx context.Context, fn func(Txn) error) error {
	err := e.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
	if err == badger.ErrConflict {
		return ErrConflict
	}
	return err
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) GetForUpdate(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (t *badgerTxn) Put(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *badgerTxn) Delete(key []byte) error {
	return t.txn.Delete(key)
}
