package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// go test -v --run TestPeriodicRunsImmediately
func TestPeriodicRunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	p := &Periodic{
		Interval: time.Hour,
		Logger:   zap.NewNop(),
		Job: func(context.Context) {
			runs.Add(1)
			cancel()
		},
	}

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), runs.Load())
}

// go test -v --run TestPeriodicRepeatsWithoutOverlap
func TestPeriodicRepeatsWithoutOverlap(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var runs, active, overlaps atomic.Int32
	p := &Periodic{
		Interval: 5 * time.Millisecond,
		Logger:   zap.NewNop(),
		Job: func(context.Context) {
			if active.Add(1) > 1 {
				overlaps.Add(1)
			}
			time.Sleep(15 * time.Millisecond) // longer than the interval
			active.Add(-1)
			if runs.Add(1) == 3 {
				cancel()
			}
		},
	}

	_ = p.Run(ctx)
	assert.Equal(t, int32(3), runs.Load())
	assert.Zero(t, overlaps.Load())
}

// go test -v --run TestPeriodicSkipsCancelledContext
func TestPeriodicSkipsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	p := &Periodic{Interval: time.Hour, Logger: zap.NewNop(), Job: func(context.Context) { called = true }}

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.False(t, called)
}
