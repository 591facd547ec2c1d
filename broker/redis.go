// Package broker implements the contract.Broker interface on top of Redis.
// The core only needs atomic single-key operations (INCR with expiry,
// SET with TTL) and pub/sub channels; everything cross-process goes
// through this client.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	apperrors "github.com/mekaushikranjan/ConnectLocal-sub002/errors"
)

// Broker calls use short timeouts so that an unreachable Redis degrades
// per-feature (fail open) instead of blocking connection handling.
const defaultCallTimeout = 2 * time.Second

var _ contract.Broker = (*RedisBroker)(nil)

type RedisBroker struct {
	client      *redis.Client
	log         *slog.Logger
	callTimeout time.Duration
}

func NewRedisBroker(client *redis.Client, log *slog.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log, callTimeout: defaultCallTimeout}
}

// IncrWithExpiry increments the counter for key and arms its expiry when the
// increment produced 1, i.e. the first hit of a new window. A counter left
// without TTL by a crash between INCR and EXPIRE is re-armed on the next hit.
func (b *RedisBroker) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	count, err := b.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: incr %s: %v", apperrors.ErrBrokerUnavailable, key, err)
	}

	if count == 1 {
		if err := b.client.PExpire(ctx, key, window).Err(); err != nil {
			return count, window, fmt.Errorf("%w: pexpire %s: %v", apperrors.ErrBrokerUnavailable, key, err)
		}
		return count, window, nil
	}

	remaining, err := b.client.PTTL(ctx, key).Result()
	if err != nil {
		return count, window, fmt.Errorf("%w: pttl %s: %v", apperrors.ErrBrokerUnavailable, key, err)
	}
	if remaining < 0 {
		// Counter exists without expiry: a previous first hit crashed
		// between INCR and EXPIRE. Re-arm so the window can end.
		if err := b.client.PExpire(ctx, key, window).Err(); err != nil {
			return count, window, fmt.Errorf("%w: pexpire %s: %v", apperrors.ErrBrokerUnavailable, key, err)
		}
		remaining = window
	}
	return count, remaining, nil
}

func (b *RedisBroker) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", apperrors.ErrBrokerUnavailable, key, err)
	}
	return nil
}

func (b *RedisBroker) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	value, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", apperrors.ErrBrokerUnavailable, key, err)
	}
	return value, true, nil
}

func (b *RedisBroker) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", apperrors.ErrBrokerUnavailable, key, err)
	}
	return nil
}

func (b *RedisBroker) Refresh(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	if err := b.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("%w: expire %s: %v", apperrors.ErrBrokerUnavailable, key, err)
	}
	return nil
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish %s: %v", apperrors.ErrBrokerUnavailable, channel, err)
	}
	return nil
}

// Subscribe opens a pub/sub receiver with an initially empty channel set.
// Channels are added and removed as local room subscriptions come and go.
func (b *RedisBroker) Subscribe(ctx context.Context) contract.Subscription {
	pubsub := b.client.Subscribe(ctx)
	sub := &redisSubscription{
		pubsub:   pubsub,
		messages: make(chan contract.BrokerMessage, subscriptionBuffer),
		log:      b.log,
	}
	go sub.pump(ctx)
	return sub
}

const subscriptionBuffer = 256

type redisSubscription struct {
	pubsub   *redis.PubSub
	messages chan contract.BrokerMessage
	log      *slog.Logger
}

// pump adapts the go-redis message stream into the contract channel.
// It exits when the pub/sub connection is closed or the context ends.
func (s *redisSubscription) pump(ctx context.Context) {
	defer close(s.messages)
	incoming := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-incoming:
			if !ok {
				return
			}
			select {
			case s.messages <- contract.BrokerMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			default:
				s.log.Warn("Subscription buffer full, dropping broker message", "channel", msg.Channel)
			}
		}
	}
}

func (s *redisSubscription) Add(ctx context.Context, channels ...string) error {
	if err := s.pubsub.Subscribe(ctx, channels...); err != nil {
		return fmt.Errorf("%w: subscribe: %v", apperrors.ErrBrokerUnavailable, err)
	}
	return nil
}

func (s *redisSubscription) Remove(ctx context.Context, channels ...string) error {
	if err := s.pubsub.Unsubscribe(ctx, channels...); err != nil {
		return fmt.Errorf("%w: unsubscribe: %v", apperrors.ErrBrokerUnavailable, err)
	}
	return nil
}

func (s *redisSubscription) Messages() <-chan contract.BrokerMessage {
	return s.messages
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
