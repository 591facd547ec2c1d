// Package fanout is the cross-process broadcast primitive. An event
// published on a channel reaches every process subscribed to it; each
// process then re-delivers to its own local connections only, so no
// central relay exists and no connection is served twice.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/domain/realtime"
)

// envelope is the wire form of a fan-out publish. ExcludeConn names the
// originating connection so the origin process can skip it on re-delivery;
// the id is meaningless on every other process and harmlessly ignored.
type envelope struct {
	Event       realtime.ServerEvent `json:"event"`
	ExcludeConn string               `json:"exclude_conn,omitempty"`
}

type Engine struct {
	broker contract.Broker
	log    *slog.Logger
}

func NewEngine(broker contract.Broker, log *slog.Logger) *Engine {
	return &Engine{broker: broker, log: log}
}

// Publish sends an event to a channel, fire-and-forget: it returns once
// the broker accepts the publish, never waiting for remote delivery. The
// durable write backing the event must already have succeeded; publishing
// first would advertise content that does not exist on read-back.
func (e *Engine) Publish(ctx context.Context, channel string, event realtime.ServerEvent, excludeConnID string) error {
	payload, err := json.Marshal(envelope{Event: event, ExcludeConn: excludeConnID})
	if err != nil {
		return fmt.Errorf("encode fanout event: %w", err)
	}
	return e.broker.Publish(ctx, channel, payload)
}

// LocalBroadcaster is the delivery side the receiver hands decoded events
// to, satisfied by rooms.Manager.
type LocalBroadcaster interface {
	BroadcastLocal(channel string, event realtime.ServerEvent, excludeConnID string)
}

var _ contract.Worker = (*Receiver)(nil)

// Receiver drains the process's broker subscription and re-delivers each
// event to local connections. Exactly one Receiver runs per process,
// wired at startup under the supervisor.
type Receiver struct {
	subscription contract.Subscription
	local        LocalBroadcaster
	log          *slog.Logger
}

func NewReceiver(subscription contract.Subscription, local LocalBroadcaster, log *slog.Logger) *Receiver {
	return &Receiver{subscription: subscription, local: local, log: log}
}

func (r *Receiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("Stopping fanout receiver")
			return ctx.Err()
		case msg, ok := <-r.subscription.Messages():
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal(msg.Payload, &env); err != nil {
				r.log.Warn("Dropping undecodable fanout payload", "channel", msg.Channel, "error", err)
				continue
			}
			r.local.BroadcastLocal(msg.Channel, env.Event, env.ExcludeConn)
		}
	}
}
