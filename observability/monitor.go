package observability

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// Snapshot aggregates the gateway counters with process-level stats.
type Snapshot struct {
	LocalConnections int     `json:"local_connections"`
	EventsDelivered  uint64  `json:"events_delivered"`
	EventsDropped    uint64  `json:"events_dropped"`
	MessagesSent     uint64  `json:"messages_sent"`
	DeliveryRate     float64 `json:"delivery_rate"` // events/s since the last snapshot
	AllocMemMb       uint64  `json:"alloc_mem_mb"`
	NumGoroutine     int     `json:"num_goroutine"`
	NumGC            uint32  `json:"num_gc"`
}

// Monitor keeps live delivery counters and periodically logs a snapshot.
// Counter methods are safe for concurrent use from every connection.
type Monitor struct {
	log        *slog.Logger
	interval   time.Duration
	localCount func() int

	delivered uint64
	dropped   uint64
	messages  uint64

	lastDelivered uint64
	lastCheck     time.Time
}

func NewMonitor(log *slog.Logger, interval time.Duration, localCount func() int) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		log:        log,
		interval:   interval,
		localCount: localCount,
		lastCheck:  time.Now(),
	}
}

func (m *Monitor) EventDelivered() { atomic.AddUint64(&m.delivered, 1) }
func (m *Monitor) EventDropped()   { atomic.AddUint64(&m.dropped, 1) }
func (m *Monitor) MessageSent()    { atomic.AddUint64(&m.messages, 1) }

// Stats computes the current snapshot and resets the rate window.
func (m *Monitor) Stats() Snapshot {
	delivered := atomic.LoadUint64(&m.delivered)

	now := time.Now()
	elapsed := now.Sub(m.lastCheck).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(delivered-m.lastDelivered) / elapsed
	}
	m.lastDelivered = delivered
	m.lastCheck = now

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Snapshot{
		LocalConnections: m.localCount(),
		EventsDelivered:  delivered,
		EventsDropped:    atomic.LoadUint64(&m.dropped),
		MessagesSent:     atomic.LoadUint64(&m.messages),
		DeliveryRate:     rate,
		AllocMemMb:       mem.Alloc / 1024 / 1024,
		NumGoroutine:     runtime.NumGoroutine(),
		NumGC:            mem.NumGC,
	}
}

// Run logs a snapshot at every interval until the context ends.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := m.Stats()
			m.log.Info("Gateway stats",
				"connections", s.LocalConnections,
				"delivered", s.EventsDelivered,
				"dropped", s.EventsDropped,
				"messages", s.MessagesSent,
				"rate_per_s", s.DeliveryRate,
				"alloc_mb", s.AllocMemMb,
				"goroutines", s.NumGoroutine,
				"gc_cycles", s.NumGC,
			)
		}
	}
}
