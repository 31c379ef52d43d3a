package ledger

import (
	"context"

	"go.uber.org/zap"
)

// Mirror writes to Primary and copies every successful write to Secondary.
// Primary is the source of truth: its errors are returned, Secondary's are
// only logged.
type Mirror struct {
	Primary   Recorder
	Secondary Recorder
	Logger    *zap.Logger
}

func (m *Mirror) AppendTrades(ctx context.Context, trades []TradeRecord) error {
	if err := m.Primary.AppendTrades(ctx, trades); err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}
	if err := m.Secondary.AppendTrades(ctx, trades); err != nil {
		m.Logger.Warn("failed to mirror trades", zap.Int("count", len(trades)), zap.Error(err))
	}
	return nil
}

func (m *Mirror) AppendTransfer(ctx context.Context, transfer TransferRecord) error {
	if err := m.Primary.AppendTransfer(ctx, transfer); err != nil {
		return err
	}
	if err := m.Secondary.AppendTransfer(ctx, transfer); err != nil {
		m.Logger.Warn("failed to mirror transfer",
			zap.String("transaction_id", transfer.TransactionID), zap.Error(err))
	}
	return nil
}
