package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

var _ contract.DataStore = (*StubDataStore)(nil)

// StubDataStore is a hand-rolled in-memory DataStore for tests that
// exercise whole flows (gateway, fan-out) where scripting every gomock
// expectation would drown the scenario.
type StubDataStore struct {
	mu            sync.Mutex
	users         map[string]realtime.User
	participants  map[string][]string
	messages      []realtime.Message
	notifications []realtime.Notification
	locations     map[string]realtime.Location
	now           func() time.Time
}

func NewStubDataStore() *StubDataStore {
	return &StubDataStore{
		users:        make(map[string]realtime.User),
		participants: make(map[string][]string),
		locations:    make(map[string]realtime.Location),
		now:          time.Now,
	}
}

func (s *StubDataStore) AddUser(u realtime.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *StubDataStore) SetParticipants(chatID string, userIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[chatID] = userIDs
}

func (s *StubDataStore) Messages() []realtime.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]realtime.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *StubDataStore) Notifications() []realtime.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]realtime.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *StubDataStore) Location(userID string) (realtime.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locations[userID]
	return loc, ok
}

func (s *StubDataStore) FindUserByID(_ context.Context, id string) (realtime.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return realtime.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *StubDataStore) FindChatParticipants(_ context.Context, chatID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participants[chatID], nil
}

func (s *StubDataStore) PersistMessage(_ context.Context, msg realtime.Message) (realtime.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = uuid.New()
	msg.CreatedAt = s.now().UTC()
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *StubDataStore) PersistNotification(_ context.Context, n realtime.Notification) (realtime.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = s.now().UTC()
	s.notifications = append(s.notifications, n)
	return n, nil
}

func (s *StubDataStore) FindRecentNotification(_ context.Context, recipient, notifType, sender, title string, since time.Time) (realtime.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if n.RecipientID == recipient && n.Type == notifType && n.SenderID == sender &&
			n.Title == title && !n.CreatedAt.Before(since) {
			return n, nil
		}
	}
	return realtime.Notification{}, apperrors.ErrNotFound
}

func (s *StubDataStore) PersistLocation(_ context.Context, userID string, loc realtime.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[userID] = loc
	return nil
}
