// Package rooms tracks which local connections are subscribed to which
// channels and multiplexes broker-wide broadcasts into local delivery.
package rooms

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

type memberSet map[string]contract.EventSink

// Manager is the local half of the fan-out path. It performs a two-step
// bookkeeping on join/leave:
//  1. the connection is recorded against the channel for local delivery;
//  2. the process subscribes to the channel's broker feed on the first
//     local member and unsubscribes after the last one leaves, so the
//     channel set a process listens to never outgrows its connections.
type Manager struct {
	mu           sync.RWMutex
	log          *slog.Logger
	store        contract.DataStore
	subscription contract.Subscription

	// channel -> connection id -> sink. Delivery is per connection, not
	// per user: two devices of one user each get their own entry.
	members map[string]memberSet
	// connection id -> set of channels, for disconnect cleanup.
	byConn map[string]map[string]struct{}
}

func NewManager(log *slog.Logger, store contract.DataStore, subscription contract.Subscription) *Manager {
	return &Manager{
		log:          log,
		store:        store,
		subscription: subscription,
		members:      make(map[string]memberSet),
		byConn:       make(map[string]map[string]struct{}),
	}
}

// Join subscribes a connection to a chat channel after checking the user
// really is a participant. The client's claim is never trusted alone.
func (m *Manager) Join(ctx context.Context, session realtime.Session, chatID string, sink contract.EventSink) error {
	participants, err := m.store.FindChatParticipants(ctx, chatID)
	if err != nil {
		return fmt.Errorf("%w: participants of %s: %v", apperrors.ErrPersistence, chatID, err)
	}
	if !contains(participants, session.User.ID) {
		return apperrors.ErrRoomForbidden
	}
	return m.Attach(ctx, session.ConnID, realtime.ChatChannel(chatID), sink)
}

// Attach records the subscription without an authorization check. Used for
// channels the connection is entitled to by construction: its own user
// channel and location channels derived from its persisted position.
func (m *Manager) Attach(ctx context.Context, connID, channel string, sink contract.EventSink) error {
	m.mu.Lock()
	set, exists := m.members[channel]
	if !exists {
		set = make(memberSet)
		m.members[channel] = set
	}
	set[connID] = sink
	if _, ok := m.byConn[connID]; !ok {
		m.byConn[connID] = make(map[string]struct{})
	}
	m.byConn[connID][channel] = struct{}{}
	first := !exists
	m.mu.Unlock()

	if first {
		if err := m.subscription.Add(ctx, channel); err != nil {
			// Local delivery still works; cross-process fan-out for this
			// channel degrades until the broker comes back.
			m.log.Warn("Channel subscribe failed, local delivery only", "channel", channel, "error", err)
		}
	}
	return nil
}

// Leave removes one connection from a channel. The process drops the
// broker feed once no local connection remains subscribed.
func (m *Manager) Leave(ctx context.Context, connID, channel string) {
	m.mu.Lock()
	last := m.removeLocked(connID, channel)
	m.mu.Unlock()

	if last {
		if err := m.subscription.Remove(ctx, channel); err != nil {
			m.log.Warn("Channel unsubscribe failed", "channel", channel, "error", err)
		}
	}
}

// DisconnectAll removes every subscription held by a connection. Called
// from the gateway's teardown path; subsequent publishes to those rooms
// are no longer delivered to the connection.
func (m *Manager) DisconnectAll(ctx context.Context, connID string) {
	m.mu.Lock()
	var emptied []string
	for channel := range m.byConn[connID] {
		if m.removeLocked(connID, channel) {
			emptied = append(emptied, channel)
		}
	}
	delete(m.byConn, connID)
	m.mu.Unlock()

	if len(emptied) > 0 {
		if err := m.subscription.Remove(ctx, emptied...); err != nil {
			m.log.Warn("Channel unsubscribe failed on disconnect", "error", err)
		}
	}
}

// removeLocked deletes the membership entry and reports whether the
// channel lost its last local member. Caller holds the write lock.
func (m *Manager) removeLocked(connID, channel string) bool {
	set, ok := m.members[channel]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if conns, ok := m.byConn[connID]; ok {
		delete(conns, channel)
	}
	if len(set) == 0 {
		delete(m.members, channel)
		return true
	}
	return false
}

// BroadcastLocal delivers an event to every local connection subscribed to
// the channel, except the excluded connection (the event's origin, which
// already knows its own action). Only the fan-out receive path calls this.
func (m *Manager) BroadcastLocal(channel string, event realtime.ServerEvent, excludeConnID string) {
	m.mu.RLock()
	set := m.members[channel]
	sinks := make([]contract.EventSink, 0, len(set))
	for connID, sink := range set {
		if connID == excludeConnID {
			continue
		}
		sinks = append(sinks, sink)
	}
	m.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Deliver(event); err != nil {
			m.log.Debug("Local delivery failed", "channel", channel, "error", err)
		}
	}
}

// Subscribed reports whether the connection currently holds the channel.
func (m *Manager) Subscribed(connID, channel string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.members[channel]
	if !ok {
		return false
	}
	_, ok = set[connID]
	return ok
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
