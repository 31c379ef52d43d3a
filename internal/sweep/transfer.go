package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profitsweeper/internal/ledger"
	"profitsweeper/pkg/bybit"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrNothingToTransfer means the computed amount was zero or negative; the
	// venue was not called.
	ErrNothingToTransfer = errors.New("nothing to transfer")
	// ErrTransferNotRecorded means the venue confirmed the transfer but the
	// transfer log append failed.
	ErrTransferNotRecorded = errors.New("transfer confirmed but not recorded")
)

// InternalTransferer is the venue call the issuer needs.
type InternalTransferer interface {
	CreateInternalTransfer(ctx context.Context, req bybit.TransferRequest) (*bybit.TransferResult, error)
}

// Issuer moves a share of profit between two accounts and records the
// transfer once the venue acknowledges it.
type Issuer struct {
	Venue       InternalTransferer
	Transfers   ledger.TransferAppender
	Coin        string
	FromAccount bybit.AccountType
	ToAccount   bybit.AccountType
	Logger      *zap.Logger

	// NewToken generates the idempotency key; uuid.NewString when nil.
	NewToken func() string
	// Now stamps the transfer record; time.Now when nil.
	Now func() time.Time
}

// TransferAmount is round(profit * percentage / 100, 2), half away from zero.
func TransferAmount(profit decimal.Decimal, percentage float64) decimal.Decimal {
	return profit.Mul(decimal.NewFromFloat(percentage)).Div(decimal.NewFromInt(100)).Round(2)
}

// Issue transfers percentage of profit. It makes at most one venue call and
// appends the transfer record only after the venue confirms success.
func (i *Issuer) Issue(ctx context.Context, profit decimal.Decimal, percentage float64) (ledger.TransferRecord, error) {
	amount := TransferAmount(profit, percentage)
	if !amount.IsPositive() {
		return ledger.TransferRecord{}, ErrNothingToTransfer
	}

	req := bybit.TransferRequest{
		TransferID:      i.token(),
		Coin:            i.Coin,
		Amount:          amount.StringFixed(2),
		FromAccountType: i.FromAccount,
		ToAccountType:   i.ToAccount,
	}

	result, err := i.Venue.CreateInternalTransfer(ctx, req)
	if err != nil {
		transfersFailed.Inc()
		i.Logger.Error("internal transfer failed",
			zap.String("transfer_id", req.TransferID),
			zap.String("amount", req.Amount),
			zap.Error(err),
		)
		return ledger.TransferRecord{}, fmt.Errorf("transfer %s %s: %w", req.Amount, req.Coin, err)
	}

	record := ledger.TransferRecord{
		TransferredAt: i.now().UTC(),
		Coin:          i.Coin,
		Amount:        amount,
		TransactionID: result.TransferID,
	}
	transferredAmount.Add(amount.InexactFloat64())

	if err := i.Transfers.AppendTransfer(ctx, record); err != nil {
		i.Logger.Error("transfer confirmed but not recorded",
			zap.String("transaction_id", record.TransactionID),
			zap.String("amount", req.Amount),
			zap.Error(err),
		)
		return record, fmt.Errorf("%w: %v", ErrTransferNotRecorded, err)
	}

	i.Logger.Info("internal transfer recorded",
		zap.String("transaction_id", record.TransactionID),
		zap.String("amount", req.Amount),
		zap.String("coin", i.Coin),
		zap.String("from", string(i.FromAccount)),
		zap.String("to", string(i.ToAccount)),
	)
	return record, nil
}

func (i *Issuer) token() string {
	if i.NewToken != nil {
		return i.NewToken()
	}
	return uuid.NewString()
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}
