// Package repositories bundles a BadgerDB implementation of the
// contract.DataStore surface so the server runs stand-alone. A deployment
// backed by the full relational store swaps this out behind the same
// interface.
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
)

var _ contract.DataStore = (*Store)(nil)

type Store struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStore(db *badger.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) put(key string, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

func (s *Store) get(key string, out any) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, out)
		})
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
