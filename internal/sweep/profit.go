package sweep

import (
	"context"
	"slices"
	"time"

	"profitsweeper/internal/ledger"
	"profitsweeper/pkg/bybit"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Profit is either a known amount or Unknown. Zero is a known amount.
type Profit struct {
	amount decimal.Decimal
	known  bool
}

func UnknownProfit() Profit { return Profit{} }

func KnownProfit(amount decimal.Decimal) Profit { return Profit{amount: amount, known: true} }

// Amount returns the profit and whether it is known.
func (p Profit) Amount() (decimal.Decimal, bool) { return p.amount, p.known }

func (p Profit) IsKnown() bool { return p.known }

func (p Profit) String() string {
	if !p.known {
		return "unknown"
	}
	return p.amount.String()
}

// ClosedPnLFetcher is the venue call the aggregator needs.
type ClosedPnLFetcher interface {
	GetClosedPnL(ctx context.Context, category bybit.Category, start, end time.Time) ([]ledger.TradeRecord, error)
}

// Aggregator sums realized profit over the trailing lookback and records every
// counted trade.
type Aggregator struct {
	Venue    ClosedPnLFetcher
	Trades   ledger.TradeAppender
	Category bybit.Category
	Lookback time.Duration
	Logger   *zap.Logger
}

// Aggregate fetches closed positions from window.Start to now, keeps those
// settled within the lookback ending at now, appends them to the trade log
// oldest first and returns their summed P&L. Any failure yields UnknownProfit.
func (a *Aggregator) Aggregate(ctx context.Context, window Window, now time.Time) (Profit, []ledger.TradeRecord) {
	// A resume point older than the lookback would only fetch trades the
	// filter drops.
	start := window.Start
	if cutoff := now.Add(-a.Lookback); start.Before(cutoff) {
		start = cutoff
	}

	fetched, err := a.Venue.GetClosedPnL(ctx, a.Category, start, now)
	if err != nil {
		a.Logger.Error("failed to fetch closed pnl", zap.Time("start", start), zap.Error(err))
		return UnknownProfit(), nil
	}

	kept := a.filter(fetched, window, now)

	total := decimal.Zero
	for _, t := range kept {
		total = total.Add(t.ClosedPnL)
	}

	if err := a.Trades.AppendTrades(ctx, kept); err != nil {
		a.Logger.Error("failed to append trades", zap.Int("count", len(kept)), zap.Error(err))
		return UnknownProfit(), nil
	}
	tradesRecorded.Add(float64(len(kept)))

	a.Logger.Info("aggregated closed pnl",
		zap.Time("start", start),
		zap.Int("fetched", len(fetched)),
		zap.Int("counted", len(kept)),
		zap.String("profit", total.String()),
	)
	return KnownProfit(total), kept
}

// filter applies the trailing lookback to every trade. When the window starts
// at an already logged trade, anything settled within that trade's logged
// second is treated as recorded and dropped. The log keeps whole seconds, so a
// trade settling later in that same second after the previous fetch is lost.
func (a *Aggregator) filter(trades []ledger.TradeRecord, window Window, now time.Time) []ledger.TradeRecord {
	cutoff := now.Add(-a.Lookback)

	kept := make([]ledger.TradeRecord, 0, len(trades))
	for _, t := range trades {
		if t.SettledAt.Before(cutoff) {
			continue
		}
		if window.Recorded && !t.SettledAt.Truncate(time.Second).After(window.Start) {
			continue
		}
		kept = append(kept, t)
	}

	// Venue pages are newest first; the log must stay non-decreasing.
	slices.SortStableFunc(kept, func(x, y ledger.TradeRecord) int {
		return x.SettledAt.Compare(y.SettledAt)
	})
	return kept
}
