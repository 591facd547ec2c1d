//go:generate go run go.uber.org/mock/mockgen -destination=../mocks/mock_contract.go -package=mocks github.com/mekaushikranjan/ConnectLocal-sub002/contract DataStore,EventSink
package contract

import (
	"context"
	"reflect"
	"time"

	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one local connection's delivery endpoint. Deliver must not
// block the caller; a sink that cannot keep up drops or disconnects.
type EventSink interface {
	Deliver(e realtime.ServerEvent) error
}

// BrokerMessage is one pub/sub payload received from a subscribed channel.
type BrokerMessage struct {
	Channel string
	Payload []byte
}

// Subscription is a live pub/sub receiver whose channel set can change
// while messages flow.
type Subscription interface {
	Add(ctx context.Context, channels ...string) error
	Remove(ctx context.Context, channels ...string) error
	Messages() <-chan BrokerMessage
	Close() error
}

// Broker is the shared key-value + pub/sub infrastructure used for
// cross-process coordination. It is only ever used for atomic single-key
// operations and pub/sub, never for long-held locks.
type Broker interface {
	// IncrWithExpiry atomically increments key and, when the increment
	// created the counter, arms its expiry. It returns the new count and
	// the remaining window.
	IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	Refresh(ctx context.Context, key string, ttl time.Duration) error
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context) Subscription
}

// DataStore is the narrow surface of the relational backend the core
// consumes. Implementations are assumed transactional and definitive;
// a failure is non-retryable for that single operation.
type DataStore interface {
	FindUserByID(ctx context.Context, id string) (realtime.User, error)
	FindChatParticipants(ctx context.Context, chatID string) ([]string, error)
	PersistMessage(ctx context.Context, msg realtime.Message) (realtime.Message, error)
	PersistNotification(ctx context.Context, n realtime.Notification) (realtime.Notification, error)
	// FindRecentNotification returns the newest notification matching the
	// dedup tuple created at or after since, or ErrNotFound.
	FindRecentNotification(ctx context.Context, recipient, notifType, sender, title string, since time.Time) (realtime.Notification, error)
	PersistLocation(ctx context.Context, userID string, loc realtime.Location) error
}
