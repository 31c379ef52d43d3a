package sweep

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"profitsweeper/internal/ledger"
	"profitsweeper/pkg/bybit"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fakeVenue records calls and replays canned responses.
type fakeVenue struct {
	trades   []ledger.TradeRecord
	fetchErr error
	// ranged serves only trades settled within the queried range, reading a
	// zero end as the seven days after start like the venue does.
	ranged bool

	transferResult *bybit.TransferResult
	transferErr    error

	fetchStarts []time.Time
	fetchEnds   []time.Time
	transfers   []bybit.TransferRequest
}

func (f *fakeVenue) GetClosedPnL(_ context.Context, category bybit.Category, start, end time.Time) ([]ledger.TradeRecord, error) {
	f.fetchStarts = append(f.fetchStarts, start)
	f.fetchEnds = append(f.fetchEnds, end)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if !f.ranged {
		return f.trades, nil
	}

	if end.IsZero() {
		end = start.Add(7 * 24 * time.Hour)
	}
	var out []ledger.TradeRecord
	for _, t := range f.trades {
		if !t.SettledAt.Before(start) && !t.SettledAt.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeVenue) CreateInternalTransfer(_ context.Context, req bybit.TransferRequest) (*bybit.TransferResult, error) {
	f.transfers = append(f.transfers, req)
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	if f.transferResult != nil {
		return f.transferResult, nil
	}
	return &bybit.TransferResult{TransferID: req.TransferID, Status: bybit.TransferStatusSuccess}, nil
}

func trade(settled time.Time, pnl, orderID string) ledger.TradeRecord {
	return ledger.TradeRecord{
		SettledAt: settled,
		Symbol:    "BTCUSDT",
		ClosedPnL: decimal.RequireFromString(pnl),
		OrderID:   orderID,
	}
}

// newLedger points at files in a fresh directory without creating them.
func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	dir := t.TempDir()
	return &ledger.Ledger{
		Trades:    ledger.NewTradeLog(filepath.Join(dir, "last_hour_trades.csv")),
		Transfers: ledger.NewTransferLog(filepath.Join(dir, "profit_transfers.csv")),
	}
}

// dataRows returns the rows after the header, or nil when the file is absent.
func dataRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}

type failingRecorder struct{ err error }

func (f failingRecorder) AppendTrades(context.Context, []ledger.TradeRecord) error { return f.err }

func (f failingRecorder) AppendTransfer(context.Context, ledger.TransferRecord) error { return f.err }
