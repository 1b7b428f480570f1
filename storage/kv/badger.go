package kv

import (
	"context"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core"
)

type badgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (core.KeyValueStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger store")
	}
	return &badgerStore{db: db}, nil
}

func (s *badgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Cause(err) == badger.ErrKeyNotFound {
			return nil, core.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "getting key")
	}
	return val, nil
}

func (s *badgerStore) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	return errors.Wrap(err, "setting key")
}

func (s *badgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return errors.Wrap(err, "deleting key")
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
