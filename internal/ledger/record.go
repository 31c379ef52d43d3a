package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TradeTimeLayout is how settlement times are stored in the trade log (UTC, no zone suffix).
	TradeTimeLayout = "2006-01-02 15:04:05"
	// TransferTimeLayout is how transfer times are stored in the transfer log.
	TransferTimeLayout = "2006-01-02 15:04:05 UTC"
)

var (
	TradeHeader    = []string{"updatedTime", "symbol", "closedPnl", "orderId"}
	TransferHeader = []string{"transferTime", "symbol", "amount", "transactionId"}
)

// TradeRecord is one closed position as reported by the venue.
type TradeRecord struct {
	SettledAt time.Time
	Symbol    string
	ClosedPnL decimal.Decimal
	OrderID   string
}

func (r TradeRecord) row() []string {
	return []string{
		r.SettledAt.UTC().Format(TradeTimeLayout),
		r.Symbol,
		r.ClosedPnL.String(),
		r.OrderID,
	}
}

// TransferRecord is one inter-account transfer the venue acknowledged.
type TransferRecord struct {
	TransferredAt time.Time
	Coin          string
	Amount        decimal.Decimal
	TransactionID string
}

func (r TransferRecord) row() []string {
	return []string{
		r.TransferredAt.UTC().Format(TransferTimeLayout),
		r.Coin,
		r.Amount.StringFixed(2),
		r.TransactionID,
	}
}

type TradeAppender interface {
	AppendTrades(ctx context.Context, trades []TradeRecord) error
}

type TransferAppender interface {
	AppendTransfer(ctx context.Context, transfer TransferRecord) error
}

// Recorder persists both kinds of records.
type Recorder interface {
	TradeAppender
	TransferAppender
}
