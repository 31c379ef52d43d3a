package postgres

import (
	"context"
	"fmt"

	"profitsweeper/internal/ledger"

	"gorm.io/gorm/clause"
)

// AppendTrades inserts trades, skipping any (order, settlement) pair already
// stored so a replayed cycle does not duplicate rows.
func (p *PostgresClient) AppendTrades(ctx context.Context, trades []ledger.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	rows := make([]*TradeRecordRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, ToTradeRecordRow(t))
	}

	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "order_id"},
			{Name: "settled_at"},
		},
		DoNothing: true,
	}).Create(&rows)

	if tx.Error != nil {
		return fmt.Errorf("insert trades: %w", tx.Error)
	}
	return nil
}

func (p *PostgresClient) AppendTransfer(ctx context.Context, transfer ledger.TransferRecord) error {
	tx := p.DB.WithContext(ctx).Create(ToTransferRecordRow(transfer))
	if tx.Error != nil {
		return fmt.Errorf("insert transfer %s: %w", transfer.TransactionID, tx.Error)
	}
	return nil
}
