package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

func (s *Store) PersistNotification(_ context.Context, n realtime.Notification) (realtime.Notification, error) {
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()

	key := fmt.Sprintf("notif:%s:%019d:%s", n.RecipientID, n.CreatedAt.UnixNano(), n.ID)
	if err := s.put(key, n); err != nil {
		return realtime.Notification{}, err
	}
	return n, nil
}

// FindRecentNotification walks the recipient's notifications newest-first
// and stops at the first record older than since: the padded-timestamp key
// bounds the scan to the dedup lookback instead of the whole history.
func (s *Store) FindRecentNotification(_ context.Context, recipient, notifType, sender, title string, since time.Time) (realtime.Notification, error) {
	var found *realtime.Notification
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("notif:%s:", recipient))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var n realtime.Notification
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &n)
			})
			if err != nil {
				return err
			}
			if n.CreatedAt.Before(since) {
				return nil
			}
			if n.Type == notifType && n.SenderID == sender && n.Title == title {
				found = &n
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return realtime.Notification{}, err
	}
	if found == nil {
		return realtime.Notification{}, apperrors.ErrNotFound
	}
	return *found, nil
}

// NotificationsForUser returns up to limit most recent notifications,
// newest first.
func (s *Store) NotificationsForUser(_ context.Context, userID string, limit int) ([]realtime.Notification, error) {
	var raw [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("notif:%s:", userID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			raw = append(raw, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decodeAll[realtime.Notification](raw)
}

func decodeAll[T any](raw [][]byte) ([]T, error) {
	var firstErr error
	out := lo.FilterMap(raw, func(bytes []byte, _ int) (T, bool) {
		var item T
		if err := json.Unmarshal(bytes, &item); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			var zero T
			return zero, false
		}
		return item, true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
