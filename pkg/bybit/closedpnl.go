package bybit

import (
	"fmt"
	"strconv"
	"time"

	"profitsweeper/internal/ledger"

	"github.com/shopspring/decimal"
)

// ParseClosedPnLList converts closed-pnl rows into trade records.
// A malformed row fails the whole list rather than being skipped, so no
// realized profit goes missing unnoticed.
func ParseClosedPnLList(raw []ClosedPnLItem) ([]ledger.TradeRecord, error) {
	out := make([]ledger.TradeRecord, 0, len(raw))

	for i, item := range raw {
		updated, err := strconv.ParseInt(item.UpdatedTime, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d (order %s): updatedTime %q: %w", i, item.OrderID, item.UpdatedTime, err)
		}
		pnl, err := decimal.NewFromString(item.ClosedPnL)
		if err != nil {
			return nil, fmt.Errorf("row %d (order %s): closedPnl %q: %w", i, item.OrderID, item.ClosedPnL, err)
		}

		out = append(out, ledger.TradeRecord{
			SettledAt: time.UnixMilli(updated).UTC(),
			Symbol:    item.Symbol,
			ClosedPnL: pnl,
			OrderID:   item.OrderID,
		})
	}
	return out, nil
}
