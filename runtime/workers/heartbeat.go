package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/mekaushikranjan/ConnectLocal-sub002/contract"
	"github.com/mekaushikranjan/ConnectLocal-sub002/presence"
)

var _ contract.Worker = (*PresenceHeartbeat)(nil)

// PresenceHeartbeat refreshes the broker TTL of every locally connected
// user. The cadence is a fraction of the TTL so a single missed beat never
// lets a live user expire, while a crashed process stops claiming its
// users within one TTL interval.
type PresenceHeartbeat struct {
	directory *presence.Directory
	log       *slog.Logger
	interval  time.Duration
}

func NewPresenceHeartbeat(directory *presence.Directory, log *slog.Logger) *PresenceHeartbeat {
	return &PresenceHeartbeat{
		directory: directory,
		log:       log,
		interval:  directory.TTL() / 3,
	}
}

func (w *PresenceHeartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping presence heartbeat")
			return ctx.Err()
		case <-ticker.C:
			w.directory.RefreshAll(ctx)
		}
	}
}
