package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
	"github.com/mekaushikranjan/ConnectLocal-sub002/mocks"
)

type stubPresence struct {
	online map[string]bool
}

func (s stubPresence) IsOnline(_ context.Context, userID string) bool {
	return s.online[userID]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []realtime.ServerEvent
	chans  []string
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, event realtime.ServerEvent, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.chans = append(p.chans, channel)
	return nil
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist and deliver live to an online recipient", func(t *testing.T) {
		req := require.New(t)
		store := mocks.NewStubDataStore()
		publisher := &recordingPublisher{}
		presence := stubPresence{online: map[string]bool{"bob": true}}
		d := NewDispatcher(store, presence, publisher, slog.Default(), 10*time.Second)

		stored, err := d.Dispatch(ctx, realtime.Notification{
			RecipientID: "bob",
			SenderID:    "alice",
			Type:        "new_message",
			Title:       "New message from Alice",
			Body:        "hello",
		})
		req.NoError(err)
		req.False(stored.CreatedAt.IsZero(), "store assigns the timestamp")
		req.Len(store.Notifications(), 1)
		req.Len(publisher.events, 1)
		req.Equal(realtime.UserChannel("bob"), publisher.chans[0])
		req.Equal(realtime.EventNewNotification, publisher.events[0].Event)
	})

	t.Run("should skip live delivery for an offline recipient", func(t *testing.T) {
		req := require.New(t)
		store := mocks.NewStubDataStore()
		publisher := &recordingPublisher{}
		d := NewDispatcher(store, stubPresence{online: map[string]bool{}}, publisher, slog.Default(), 10*time.Second)

		_, err := d.Dispatch(ctx, realtime.Notification{
			RecipientID: "carol",
			Type:        "mention",
			Title:       "You were mentioned",
		})
		req.NoError(err)
		req.Len(store.Notifications(), 1, "durable record satisfies later retrieval")
		req.Empty(publisher.events)
	})

	t.Run("should suppress an equivalent notification inside the dedup window", func(t *testing.T) {
		req := require.New(t)
		store := mocks.NewStubDataStore()
		publisher := &recordingPublisher{}
		presence := stubPresence{online: map[string]bool{"bob": true}}
		d := NewDispatcher(store, presence, publisher, slog.Default(), 10*time.Second)

		n := realtime.Notification{RecipientID: "bob", SenderID: "alice", Type: "new_message", Title: "New message from Alice"}

		first, err := d.Dispatch(ctx, n)
		req.NoError(err)
		second, err := d.Dispatch(ctx, n)
		req.NoError(err)

		req.Equal(first.ID, second.ID, "existing record returned, no duplicate")
		req.Len(store.Notifications(), 1)
		req.Len(publisher.events, 1, "at most one live delivery")
	})

	t.Run("should deliver again once the dedup window has elapsed", func(t *testing.T) {
		req := require.New(t)
		store := mocks.NewStubDataStore()
		publisher := &recordingPublisher{}
		d := NewDispatcher(store, stubPresence{online: map[string]bool{}}, publisher, slog.Default(), 10*time.Second)

		n := realtime.Notification{RecipientID: "bob", SenderID: "alice", Type: "new_message", Title: "New message from Alice"}

		first, err := d.Dispatch(ctx, n)
		req.NoError(err)

		// The clock jumps past the window; the same tuple is legitimate again.
		d.now = func() time.Time { return time.Now().Add(time.Minute) }
		second, err := d.Dispatch(ctx, n)
		req.NoError(err)

		req.NotEqual(first.ID, second.ID)
		req.Len(store.Notifications(), 2)
	})

	t.Run("should distinguish tuples differing in any dedup field", func(t *testing.T) {
		req := require.New(t)
		store := mocks.NewStubDataStore()
		publisher := &recordingPublisher{}
		d := NewDispatcher(store, stubPresence{online: map[string]bool{}}, publisher, slog.Default(), 10*time.Second)

		base := realtime.Notification{RecipientID: "bob", SenderID: "alice", Type: "new_message", Title: "New message from Alice"}
		_, err := d.Dispatch(ctx, base)
		req.NoError(err)

		other := base
		other.SenderID = "carol"
		_, err = d.Dispatch(ctx, other)
		req.NoError(err)

		req.Len(store.Notifications(), 2)
	})
}

func TestDispatcher_PersistFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	req := require.New(t)
	store := mocks.NewMockDataStore(ctrl)
	publisher := &recordingPublisher{}
	d := NewDispatcher(store, stubPresence{online: map[string]bool{}}, publisher, slog.Default(), 10*time.Second)

	store.EXPECT().
		FindRecentNotification(gomock.Any(), "bob", "mention", "", "t", gomock.Any()).
		Return(realtime.Notification{}, apperrors.ErrNotFound)
	store.EXPECT().
		PersistNotification(gomock.Any(), gomock.Any()).
		Return(realtime.Notification{}, fmt.Errorf("disk full"))

	_, err := d.Dispatch(ctx, realtime.Notification{RecipientID: "bob", Type: "mention", Title: "t"})
	req.ErrorIs(err, apperrors.ErrPersistence)
	req.Empty(publisher.events, "no live delivery for content that does not exist durably")
}

func TestDispatcher_DispatchAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()

	req := require.New(t)
	store := mocks.NewMockDataStore(ctrl)
	publisher := &recordingPublisher{}
	d := NewDispatcher(store, stubPresence{online: map[string]bool{}}, publisher, slog.Default(), 10*time.Second)

	// bob's persistence fails; carol's must still go through.
	store.EXPECT().
		FindRecentNotification(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(realtime.Notification{}, apperrors.ErrNotFound).
		Times(2)
	store.EXPECT().
		PersistNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n realtime.Notification) (realtime.Notification, error) {
			if n.RecipientID == "bob" {
				return realtime.Notification{}, fmt.Errorf("constraint violation")
			}
			return n, nil
		}).
		Times(2)

	delivered := d.DispatchAll(ctx, []realtime.Notification{
		{RecipientID: "bob", Type: "new_message", Title: "msg"},
		{RecipientID: "carol", Type: "new_message", Title: "msg"},
	})

	req.Len(delivered, 1)
	req.Equal("carol", delivered[0].RecipientID)
}
