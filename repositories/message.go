package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
)

// PersistMessage assigns the server-side id and timestamp, then stores the
// message. The key is "msg:{chat_id}:{timestamp_padded}:{uuid}":
//  1. the 19-digit zero padding makes lexicographic order chronological;
//  2. the UUID acts as a collision disconnector if two messages land on
//     the same nanosecond.
func (s *Store) PersistMessage(_ context.Context, msg realtime.Message) (realtime.Message, error) {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()
	if msg.Type == "" {
		msg.Type = "text"
	}

	key := fmt.Sprintf("msg:%s:%019d:%s", msg.ChatID, msg.CreatedAt.UnixNano(), msg.ID)
	if err := s.put(key, msg); err != nil {
		return realtime.Message{}, err
	}
	return msg, nil
}

// MessagesForChat returns up to limit most recent messages of a chat,
// newest first, by walking the padded-timestamp keys in reverse.
func (s *Store) MessagesForChat(_ context.Context, chatID string, limit int) ([]realtime.Message, error) {
	var raw [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for the prefix, then walk back.
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
	return decodeAll[realtime.Message](raw)
}
