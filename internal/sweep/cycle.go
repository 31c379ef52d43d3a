package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"profitsweeper/internal/ledger"

	"go.uber.org/zap"
)

// StatusTimeLayout prefixes every status line.
const StatusTimeLayout = "2006-01-02 15:04:05 UTC"

// Outcome is how a cycle ended.
type Outcome int

const (
	OutcomeTransferred Outcome = iota
	OutcomeNothingToTransfer
	OutcomeTransferFailed
	OutcomeProfitUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTransferred:
		return "transferred"
	case OutcomeNothingToTransfer:
		return "nothing_to_transfer"
	case OutcomeTransferFailed:
		return "transfer_failed"
	case OutcomeProfitUnknown:
		return "profit_unknown"
	default:
		return "unknown_outcome_" + strconv.Itoa(int(o))
	}
}

// Report describes one finished cycle.
type Report struct {
	Outcome    Outcome
	StartedAt  time.Time
	Window     Window
	Profit     Profit
	Trades     []ledger.TradeRecord
	Percentage float64
	Transfer   ledger.TransferRecord
	Err        error
}

// StatusLine is the single console line a cycle prints.
func (r Report) StatusLine() string {
	ts := r.StartedAt.UTC().Format(StatusTimeLayout)

	switch r.Outcome {
	case OutcomeTransferred:
		line := fmt.Sprintf("%s: Profit transfer of $%s (%s%%) - successful",
			ts, r.Transfer.Amount.StringFixed(2), strconv.FormatFloat(r.Percentage, 'f', -1, 64))
		if errors.Is(r.Err, ErrTransferNotRecorded) {
			line += " (not recorded in transfer log)"
		}
		return line
	case OutcomeNothingToTransfer:
		return ts + ": Nothing to transfer"
	case OutcomeTransferFailed:
		return ts + ": Profit transfer failed"
	default:
		return ts + ": Error calculating profit. No transfer attempted."
	}
}

// Cycle runs resume point, aggregation and transfer once per invocation.
type Cycle struct {
	Window     *WindowTracker
	Aggregator *Aggregator
	Issuer     *Issuer
	Percentage float64
	Out        io.Writer
	Logger     *zap.Logger
	// Now is the cycle clock; time.Now when nil.
	Now func() time.Time
}

// Run executes one cycle to completion and prints its status line. Nothing is
// carried over between runs except what the logs hold.
func (c *Cycle) Run(ctx context.Context) Report {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	startedAt := now().UTC()

	report := c.run(ctx, startedAt)

	cyclesTotal.WithLabelValues(report.Outcome.String()).Inc()
	cycleDurationSeconds.Observe(now().Sub(startedAt).Seconds())

	line := report.StatusLine()
	if _, err := fmt.Fprintln(c.Out, line); err != nil {
		c.Logger.Warn("failed to print status line", zap.Error(err))
	}
	c.Logger.Info("cycle finished",
		zap.Stringer("outcome", report.Outcome),
		zap.Stringer("profit", report.Profit),
		zap.Int("trades", len(report.Trades)),
		zap.Error(report.Err),
	)
	return report
}

func (c *Cycle) run(ctx context.Context, startedAt time.Time) Report {
	report := Report{StartedAt: startedAt, Percentage: c.Percentage}

	report.Window = c.Window.ResumePoint(startedAt)
	report.Profit, report.Trades = c.Aggregator.Aggregate(ctx, report.Window, startedAt)

	profit, known := report.Profit.Amount()
	if !known {
		report.Outcome = OutcomeProfitUnknown
		return report
	}
	lastProfit.Set(profit.InexactFloat64())

	transfer, err := c.Issuer.Issue(ctx, profit, c.Percentage)
	report.Transfer = transfer
	report.Err = err

	switch {
	case err == nil, errors.Is(err, ErrTransferNotRecorded):
		report.Outcome = OutcomeTransferred
	case errors.Is(err, ErrNothingToTransfer):
		report.Outcome = OutcomeNothingToTransfer
		report.Err = nil
	default:
		report.Outcome = OutcomeTransferFailed
	}
	return report
}
