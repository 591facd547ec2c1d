package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitor(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("should aggregate counters into a snapshot", func(t *testing.T) {
		m := NewMonitor(log, time.Minute, func() int { return 3 })
		m.EventDelivered()
		m.EventDelivered()
		m.EventDropped()
		m.MessageSent()

		s := m.Stats()
		require.Equal(t, 3, s.LocalConnections)
		require.EqualValues(t, 2, s.EventsDelivered)
		require.EqualValues(t, 1, s.EventsDropped)
		require.EqualValues(t, 1, s.MessagesSent)
	})

	t.Run("should compute the rate against the previous snapshot", func(t *testing.T) {
		m := NewMonitor(log, time.Minute, func() int { return 0 })
		m.EventDelivered()
		first := m.Stats()
		require.Positive(t, first.DeliveryRate)

		// No new deliveries since the last snapshot.
		time.Sleep(10 * time.Millisecond)
		second := m.Stats()
		require.Zero(t, second.DeliveryRate)
	})

	t.Run("should stop when the context is canceled", func(t *testing.T) {
		m := NewMonitor(log, 5*time.Millisecond, func() int { return 0 })
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- m.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("monitor did not stop")
		}
	})
}
