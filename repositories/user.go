package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

func (s *Store) CreateUser(_ context.Context, user realtime.User) error {
	return s.put("user:"+user.ID, user)
}

func (s *Store) FindUserByID(_ context.Context, id string) (realtime.User, error) {
	var user realtime.User
	found, err := s.get("user:"+id, &user)
	if err != nil {
		return realtime.User{}, err
	}
	if !found {
		return realtime.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

// AddChatParticipant enrolls a user in a chat. One key per membership so
// participant lookup is a bounded prefix scan and removal is a single
// delete, never a read-modify-write of a member list.
func (s *Store) AddChatParticipant(_ context.Context, chatID, userID string) error {
	return s.put(memberKey(chatID, userID), userID)
}

func (s *Store) RemoveChatParticipant(_ context.Context, chatID, userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(memberKey(chatID, userID)))
	})
}

func (s *Store) FindChatParticipants(_ context.Context, chatID string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("chatmember:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, string(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(keys, func(key string, _ int) string {
		return key[strings.LastIndex(key, ":")+1:]
	}), nil
}

func (s *Store) PersistLocation(_ context.Context, userID string, loc realtime.Location) error {
	return s.put("loc:"+userID, loc)
}

// FindLocation returns the user's last persisted position, if any.
func (s *Store) FindLocation(_ context.Context, userID string) (realtime.Location, bool, error) {
	var loc realtime.Location
	found, err := s.get("loc:"+userID, &loc)
	if err != nil {
		return realtime.Location{}, false, err
	}
	return loc, found, nil
}

func memberKey(chatID, userID string) string {
	return fmt.Sprintf("chatmember:%s:%s", chatID, userID)
}
