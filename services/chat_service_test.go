package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
	"github.com/mekaushikranjan/ConnectLocal-sub002/mocks"
)

type fakeMembership struct {
	mu       sync.Mutex
	channels map[string]map[string]struct{}
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{channels: make(map[string]map[string]struct{})}
}

func (f *fakeMembership) Subscribed(connID, channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.channels[channel][connID]
	return ok
}

func (f *fakeMembership) Attach(_ context.Context, connID, channel string, _ contract.EventSink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channels[channel] == nil {
		f.channels[channel] = make(map[string]struct{})
	}
	f.channels[channel][connID] = struct{}{}
	return nil
}

func (f *fakeMembership) Leave(_ context.Context, connID, channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.channels[channel], connID)
}

type recordedPublish struct {
	channel string
	event   realtime.ServerEvent
	exclude string
}

type fakePublisher struct {
	mu        sync.Mutex
	published []recordedPublish
	fail      bool
}

func (f *fakePublisher) Publish(_ context.Context, channel string, event realtime.ServerEvent, excludeConnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return apperrors.ErrBrokerUnavailable
	}
	f.published = append(f.published, recordedPublish{channel: channel, event: event, exclude: excludeConnID})
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]realtime.Notification
}

func (f *fakeNotifier) DispatchAll(_ context.Context, batch []realtime.Notification) []realtime.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return batch
}

func aliceSession() realtime.Session {
	return realtime.Session{
		User:   realtime.User{ID: "alice", DisplayName: "Alice"},
		ConnID: "conn-alice",
	}
}

func TestChatService_SendMessage(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*ChatService, *mocks.StubDataStore, *fakeMembership, *fakePublisher, *fakeNotifier) {
		store := mocks.NewStubDataStore()
		store.SetParticipants("chat_42", "alice", "bob", "carol")
		membership := newFakeMembership()
		publisher := &fakePublisher{}
		notifier := &fakeNotifier{}
		svc := NewChatService(store, membership, publisher, notifier, slog.Default())
		return svc, store, membership, publisher, notifier
	}

	t.Run("should persist then fan out with the sender excluded", func(t *testing.T) {
		req := require.New(t)
		svc, store, membership, publisher, _ := setup(t)
		req.NoError(membership.Attach(ctx, "conn-alice", realtime.ChatChannel("chat_42"), nil))

		stored, err := svc.SendMessage(ctx, aliceSession(), realtime.SendMessagePayload{
			RoomID: "chat_42", Content: "hello",
		})
		req.NoError(err)
		req.False(stored.CreatedAt.IsZero(), "server-assigned timestamp")
		req.Len(store.Messages(), 1)

		req.Len(publisher.published, 1)
		pub := publisher.published[0]
		req.Equal(realtime.ChatChannel("chat_42"), pub.channel)
		req.Equal(realtime.EventNewMessage, pub.event.Event)
		req.Equal("conn-alice", pub.exclude)
	})

	t.Run("should notify every participant but the sender", func(t *testing.T) {
		req := require.New(t)
		svc, _, membership, _, notifier := setup(t)
		req.NoError(membership.Attach(ctx, "conn-alice", realtime.ChatChannel("chat_42"), nil))

		_, err := svc.SendMessage(ctx, aliceSession(), realtime.SendMessagePayload{
			RoomID: "chat_42", Content: "hello",
		})
		req.NoError(err)

		req.Len(notifier.batches, 1)
		recipients := make([]string, 0, len(notifier.batches[0]))
		for _, n := range notifier.batches[0] {
			recipients = append(recipients, n.RecipientID)
			req.Equal("new_message", n.Type)
			req.Equal("alice", n.SenderID)
		}
		req.ElementsMatch([]string{"bob", "carol"}, recipients)
	})

	t.Run("should refuse a sender that has not joined the room", func(t *testing.T) {
		req := require.New(t)
		svc, store, _, publisher, _ := setup(t)

		_, err := svc.SendMessage(ctx, aliceSession(), realtime.SendMessagePayload{
			RoomID: "chat_42", Content: "hi",
		})
		req.ErrorIs(err, apperrors.ErrRoomForbidden)
		req.Empty(store.Messages())
		req.Empty(publisher.published)
	})

	t.Run("should not fan out when persistence fails", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		store := mocks.NewMockDataStore(ctrl)
		membership := newFakeMembership()
		publisher := &fakePublisher{}
		svc := NewChatService(store, membership, publisher, &fakeNotifier{}, slog.Default())
		req.NoError(membership.Attach(ctx, "conn-alice", realtime.ChatChannel("chat_42"), nil))

		store.EXPECT().
			PersistMessage(gomock.Any(), gomock.Any()).
			Return(realtime.Message{}, fmt.Errorf("disk full"))

		_, err := svc.SendMessage(ctx, aliceSession(), realtime.SendMessagePayload{
			RoomID: "chat_42", Content: "hi",
		})
		req.ErrorIs(err, apperrors.ErrPersistence)
		req.Empty(publisher.published, "no fan-out of content that does not exist durably")
	})

	t.Run("should succeed even when the broker rejects the publish", func(t *testing.T) {
		req := require.New(t)
		svc, store, membership, publisher, _ := setup(t)
		publisher.fail = true
		req.NoError(membership.Attach(ctx, "conn-alice", realtime.ChatChannel("chat_42"), nil))

		stored, err := svc.SendMessage(ctx, aliceSession(), realtime.SendMessagePayload{
			RoomID: "chat_42", Content: "hello",
		})
		req.NoError(err, "durable write already happened; fan-out is best effort")
		req.Len(store.Messages(), 1)
		req.NotEmpty(stored.ID)
	})
}

func TestChatService_Typing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	store := mocks.NewStubDataStore()
	membership := newFakeMembership()
	publisher := &fakePublisher{}
	svc := NewChatService(store, membership, publisher, &fakeNotifier{}, slog.Default())

	req.ErrorIs(svc.Typing(ctx, aliceSession(), "chat_1", true), apperrors.ErrRoomForbidden)

	req.NoError(membership.Attach(ctx, "conn-alice", realtime.ChatChannel("chat_1"), nil))
	req.NoError(svc.Typing(ctx, aliceSession(), "chat_1", true))

	req.Len(publisher.published, 1)
	data := publisher.published[0].event.Data.(realtime.TypingEvent)
	req.True(data.Typing)
	req.Equal("alice", data.UserID)

	req.NoError(svc.Typing(ctx, aliceSession(), "chat_1", false))
	data = publisher.published[1].event.Data.(realtime.TypingEvent)
	req.False(data.Typing)
}

func TestChatService_UpdateLocation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	store := mocks.NewStubDataStore()
	membership := newFakeMembership()
	svc := NewChatService(store, membership, &fakePublisher{}, &fakeNotifier{}, slog.Default())
	session := aliceSession()

	channel, err := svc.UpdateLocation(ctx, session, nil, "", realtime.Location{
		Latitude: 12.97, Longitude: 77.59, City: "Bengaluru",
	})
	req.NoError(err)
	req.Equal(realtime.LocationChannel("bengaluru"), channel)
	req.True(membership.Subscribed("conn-alice", channel))

	loc, ok := store.Location("alice")
	req.True(ok)
	req.Equal("Bengaluru", loc.City)

	// Moving city leaves the old room and joins the new one.
	next, err := svc.UpdateLocation(ctx, session, nil, channel, realtime.Location{
		Latitude: 19.07, Longitude: 72.87, City: "Mumbai",
	})
	req.NoError(err)
	req.Equal(realtime.LocationChannel("mumbai"), next)
	req.False(membership.Subscribed("conn-alice", channel))
	req.True(membership.Subscribed("conn-alice", next))

	// Same city again is a no-op for membership.
	same, err := svc.UpdateLocation(ctx, session, nil, next, realtime.Location{
		Latitude: 19.08, Longitude: 72.88, City: "Mumbai",
	})
	req.NoError(err)
	req.Equal(next, same)
}
