package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"grantscope/internal/domain"
)

// Janitor periodically fails pending snapshots whose import was
// abandoned: a collector that died mid-push leaves a pending row that
// would otherwise block nothing but confuse operators forever.
type Janitor struct {
	snapshots domain.SnapshotRepository
	ttl       time.Duration
	schedule  string
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewJanitor creates a Janitor. ttl is how long a snapshot may stay
// pending; schedule is a cron spec (e.g. "@every 5m").
func NewJanitor(snapshots domain.SnapshotRepository, ttl time.Duration, schedule string, logger *slog.Logger) *Janitor {
	return &Janitor{
		snapshots: snapshots,
		ttl:       ttl,
		schedule:  schedule,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start registers the sweep job and starts the scheduler.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		j.Sweep(ctx)
	}); err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts the scheduler without interrupting a running sweep.
func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Sweep fails all pending snapshots older than the TTL.
func (j *Janitor) Sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.ttl)
	n, err := j.snapshots.FailStalePending(ctx, cutoff, "import abandoned: snapshot stayed pending past the deadline")
	if err != nil {
		j.logger.Error("stale snapshot sweep failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.Info("swept stale pending snapshots", "count", n, "older_than", j.ttl.String())
	}
}
