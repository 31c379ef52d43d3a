package postgres

import (
	"time"

	"profitsweeper/internal/ledger"

	"github.com/shopspring/decimal"
)

// TradeRecordRow mirrors one trade log row.
type TradeRecordRow struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	OrderID   string    `gorm:"type:text;not null;index:idx_trade_order_settled,unique"`
	SettledAt time.Time `gorm:"type:timestamptz;not null;index:idx_trade_order_settled,unique;index:idx_trade_settled_at"`

	Symbol    string          `gorm:"type:text;not null;index:idx_trade_symbol"`
	ClosedPnL decimal.Decimal `gorm:"column:closed_pnl;type:numeric(30,10);not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (TradeRecordRow) TableName() string {
	return "trade_record"
}

// TransferRecordRow mirrors one transfer log row.
type TransferRecordRow struct {
	ID uint `gorm:"primaryKey"`

	TransactionID string          `gorm:"type:text;not null;uniqueIndex:idx_transfer_transaction_id"`
	TransferredAt time.Time       `gorm:"type:timestamptz;not null;index:idx_transfer_transferred_at"`
	Coin          string          `gorm:"type:varchar(16);not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

func (TransferRecordRow) TableName() string {
	return "transfer_record"
}

// ToTradeRecordRow converts a trade log record for DB insertion.
func ToTradeRecordRow(t ledger.TradeRecord) *TradeRecordRow {
	return &TradeRecordRow{
		OrderID:   t.OrderID,
		SettledAt: t.SettledAt.UTC(),
		Symbol:    t.Symbol,
		ClosedPnL: t.ClosedPnL,
	}
}

func ToTransferRecordRow(t ledger.TransferRecord) *TransferRecordRow {
	return &TransferRecordRow{
		TransactionID: t.TransactionID,
		TransferredAt: t.TransferredAt.UTC(),
		Coin:          t.Coin,
		Amount:        t.Amount,
	}
}
