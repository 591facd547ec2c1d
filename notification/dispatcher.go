// Package notification creates durable notification records and delivers
// them live to recipients that are online somewhere in the cluster.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

// PresenceReader answers whether a recipient is reachable live.
type PresenceReader interface {
	IsOnline(ctx context.Context, userID string) bool
}

// Publisher pushes a live event on a broker channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, event realtime.ServerEvent, excludeConnID string) error
}

type Dispatcher struct {
	store       contract.DataStore
	presence    PresenceReader
	publisher   Publisher
	log         *slog.Logger
	dedupWindow time.Duration
	now         func() time.Time
}

func NewDispatcher(store contract.DataStore, presence PresenceReader, publisher Publisher,
	log *slog.Logger, dedupWindow time.Duration) *Dispatcher {
	return &Dispatcher{
		store:       store,
		presence:    presence,
		publisher:   publisher,
		log:         log,
		dedupWindow: dedupWindow,
		now:         time.Now,
	}
}

// Dispatch persists one notification and delivers it live when the
// recipient is online. An equivalent notification created within the
// dedup window suppresses the new one: the existing record is returned,
// nothing is re-delivered. Outside the window duplicates are legitimate.
func (d *Dispatcher) Dispatch(ctx context.Context, n realtime.Notification) (realtime.Notification, error) {
	since := d.now().Add(-d.dedupWindow)
	existing, err := d.store.FindRecentNotification(ctx, n.RecipientID, n.Type, n.SenderID, n.Title, since)
	if err == nil {
		d.log.Debug("Suppressing duplicate notification",
			"recipient", n.RecipientID, "type", n.Type, "title", n.Title)
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		// A broken dedup lookup must not lose the notification itself.
		d.log.Warn("Dedup lookup failed, dispatching anyway", "recipient", n.RecipientID, "error", err)
	}

	stored, err := d.store.PersistNotification(ctx, n)
	if err != nil {
		return realtime.Notification{}, fmt.Errorf("%w: notification for %s: %v",
			apperrors.ErrPersistence, n.RecipientID, err)
	}

	// Live delivery only for online recipients; for the rest the durable
	// record satisfies later retrieval.
	if d.presence.IsOnline(ctx, stored.RecipientID) {
		event := realtime.ServerEvent{Event: realtime.EventNewNotification, Data: stored}
		if err := d.publisher.Publish(ctx, realtime.UserChannel(stored.RecipientID), event, ""); err != nil {
			d.log.Warn("Live notification delivery failed, durable record kept",
				"recipient", stored.RecipientID, "error", err)
		}
	}
	return stored, nil
}

// DispatchAll fans a batch out per recipient. One recipient's failure
// never aborts the rest; errors are logged and the successful records
// returned.
func (d *Dispatcher) DispatchAll(ctx context.Context, batch []realtime.Notification) []realtime.Notification {
	delivered := make([]realtime.Notification, 0, len(batch))
	for _, n := range batch {
		stored, err := d.Dispatch(ctx, n)
		if err != nil {
			d.log.Error("Notification dispatch failed", "recipient", n.RecipientID, "type", n.Type, "error", err)
			continue
		}
		delivered = append(delivered, stored)
	}
	return delivered
}

