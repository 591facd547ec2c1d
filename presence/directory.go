// Package presence tracks which users are online across the cluster.
// The broker holds the authoritative view (TTL-bounded keys identifying
// the owning process); a local map answers delivery lookups for
// connections owned by this process without a broker round-trip.
package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
)

const keyPrefix = "presence:"

type Directory struct {
	mu     sync.Mutex
	broker contract.Broker
	log    *slog.Logger
	nodeID string
	ttl    time.Duration

	// Connection count per locally connected user. A user with two
	// devices on this process has a count of 2 and stays online until
	// the last one disconnects.
	local map[string]int
}

func NewDirectory(broker contract.Broker, log *slog.Logger, nodeID string, ttl time.Duration) *Directory {
	return &Directory{
		broker: broker,
		log:    log,
		nodeID: nodeID,
		ttl:    ttl,
		local:  make(map[string]int),
	}
}

func (d *Directory) TTL() time.Duration {
	return d.ttl
}

// MarkOnline records a new live connection for the user. The broker write
// is best effort: on an outage presence degrades to per-process visibility
// instead of rejecting the connection.
func (d *Directory) MarkOnline(ctx context.Context, userID string) {
	d.mu.Lock()
	d.local[userID]++
	d.mu.Unlock()

	if err := d.broker.SetWithTTL(ctx, keyPrefix+userID, d.nodeID, d.ttl); err != nil {
		d.log.Warn("Presence write failed, user visible locally only", "user_id", userID, "error", err)
	}
}

// MarkOffline releases one connection for the user. The broker entry is
// deleted only when no local connection remains; an entry owned by another
// process self-heals through TTL expiry, never through our delete.
func (d *Directory) MarkOffline(ctx context.Context, userID string) {
	d.mu.Lock()
	remaining := d.local[userID] - 1
	if remaining <= 0 {
		delete(d.local, userID)
		remaining = 0
	} else {
		d.local[userID] = remaining
	}
	d.mu.Unlock()

	if remaining > 0 {
		return
	}
	if err := d.broker.Delete(ctx, keyPrefix+userID); err != nil {
		d.log.Warn("Presence delete failed, entry will expire by TTL", "user_id", userID, "error", err)
	}
}

// IsOnline answers cluster-wide. A locally connected user is online without
// asking the broker; otherwise the broker entry decides. On a broker outage
// the answer falls back to local knowledge.
func (d *Directory) IsOnline(ctx context.Context, userID string) bool {
	d.mu.Lock()
	_, localOnline := d.local[userID]
	d.mu.Unlock()
	if localOnline {
		return true
	}

	_, found, err := d.broker.Get(ctx, keyPrefix+userID)
	if err != nil {
		d.log.Warn("Presence read failed, answering from local view", "user_id", userID, "error", err)
		return false
	}
	return found
}

// RefreshAll re-arms the TTL of every locally connected user's entry.
// Called periodically by the heartbeat worker so a crashed process stops
// claiming its users online within one TTL interval.
func (d *Directory) RefreshAll(ctx context.Context) {
	d.mu.Lock()
	users := make([]string, 0, len(d.local))
	for userID := range d.local {
		users = append(users, userID)
	}
	d.mu.Unlock()

	for _, userID := range users {
		// SetWithTTL instead of a bare EXPIRE: it also recreates an entry
		// that expired during a broker outage.
		if err := d.broker.SetWithTTL(ctx, keyPrefix+userID, d.nodeID, d.ttl); err != nil {
			d.log.Warn("Presence refresh failed", "user_id", userID, "error", err)
			return
		}
	}
}

// LocalCount reports how many distinct users this process currently owns.
func (d *Directory) LocalCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.local)
}
