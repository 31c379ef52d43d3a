package sweep

import (
	"errors"
	"time"

	"profitsweeper/internal/ledger"

	"go.uber.org/zap"
)

// SettlementSource reports the settlement time of the last logged trade.
type SettlementSource interface {
	LastSettlement() (time.Time, error)
}

// Window is where a cycle's closed P&L query begins.
type Window struct {
	Start time.Time
	// Recorded is true when Start is the settlement time of a trade that is
	// already in the trade log.
	Recorded bool
}

// StartMillis is Start in epoch milliseconds, as sent to the venue.
func (w Window) StartMillis() int64 {
	return w.Start.UnixMilli()
}

// WindowTracker derives the next query window from the trade log.
type WindowTracker struct {
	Source   SettlementSource
	Lookback time.Duration
	Logger   *zap.Logger
}

// ResumePoint returns the last logged settlement time, or now minus the
// lookback when the log has no usable last row. Read and parse failures fall
// back to the lookback and are never returned.
func (w *WindowTracker) ResumePoint(now time.Time) Window {
	fallback := Window{Start: now.Add(-w.Lookback)}

	last, err := w.Source.LastSettlement()
	switch {
	case err == nil:
		return Window{Start: last, Recorded: true}
	case errors.Is(err, ledger.ErrNoRecords):
		w.Logger.Debug("no prior trades, using lookback", zap.Time("start", fallback.Start))
	default:
		w.Logger.Warn("unreadable last trade, using lookback", zap.Time("start", fallback.Start), zap.Error(err))
	}
	return fallback
}
