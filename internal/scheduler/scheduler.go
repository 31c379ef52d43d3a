package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Periodic runs Job once immediately and then every Interval. Job runs on the
// calling goroutine, so runs never overlap; ticks that fire while a run is in
// progress are dropped.
type Periodic struct {
	Interval time.Duration
	Job      func(ctx context.Context)
	Logger   *zap.Logger
}

// Run blocks until ctx is cancelled. A cancellation never interrupts a run in
// progress from here; it is observed between runs.
func (p *Periodic) Run(ctx context.Context) error {
	// Run immediately once at startup
	p.runOnce(ctx)

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("scheduler stopped", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Periodic) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	p.Job(ctx)
	p.Logger.Debug("scheduled run finished",
		zap.Duration("took", time.Since(started)),
		zap.Time("next", started.Add(p.Interval)),
	)
}
