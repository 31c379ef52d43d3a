package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

// ErrNoRecords is returned when a log holds nothing past its header.
var ErrNoRecords = errors.New("log has no records")

// csvFile is an append-only CSV file with a fixed header row. The file is
// opened and closed on every call.
type csvFile struct {
	path   string
	header []string
}

// ensureHeader creates the file with its header, or adds the header to an
// existing empty file. Existing content is left untouched.
func (f csvFile) ensureHeader() error {
	return f.append(nil)
}

func (f csvFile) append(rows [][]string) error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(f.header); err != nil {
			return fmt.Errorf("write header to %s: %w", f.path, err)
		}
	}
	// Not transactional: rows flushed before a failure stay in the file.
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("append to %s: %w", f.path, err)
	}

	return file.Close()
}

// lastRow returns the final data row. A missing file, an empty file and a
// header-only file all yield ErrNoRecords.
func (f csvFile) lastRow() ([]string, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	var last []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.path, err)
		}
		last = row
	}

	if last == nil || slices.Equal(last, f.header) {
		return nil, ErrNoRecords
	}
	return last, nil
}

func (f csvFile) rows() ([][]string, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	all, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(all) > 0 && slices.Equal(all[0], f.header) {
		all = all[1:]
	}
	return all, nil
}

// TradeLog is the execution log: every trade observed by a cycle, oldest first.
type TradeLog struct {
	file csvFile
}

func NewTradeLog(path string) *TradeLog {
	return &TradeLog{file: csvFile{path: path, header: TradeHeader}}
}

func (l *TradeLog) Path() string { return l.file.path }

func (l *TradeLog) EnsureHeader() error { return l.file.ensureHeader() }

func (l *TradeLog) AppendTrades(_ context.Context, trades []TradeRecord) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, t.row())
	}
	return l.file.append(rows)
}

// LastSettlement parses the settlement time of the last row.
func (l *TradeLog) LastSettlement() (time.Time, error) {
	row, err := l.file.lastRow()
	if err != nil {
		return time.Time{}, err
	}
	if len(row) == 0 {
		return time.Time{}, ErrNoRecords
	}

	ts, err := time.ParseInLocation(TradeTimeLayout, row[0], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last settlement %q: %w", row[0], err)
	}
	return ts, nil
}

// TransferLog records every acknowledged transfer.
type TransferLog struct {
	file csvFile
}

func NewTransferLog(path string) *TransferLog {
	return &TransferLog{file: csvFile{path: path, header: TransferHeader}}
}

func (l *TransferLog) Path() string { return l.file.path }

func (l *TransferLog) EnsureHeader() error { return l.file.ensureHeader() }

func (l *TransferLog) AppendTransfer(_ context.Context, transfer TransferRecord) error {
	return l.file.append([][]string{transfer.row()})
}

// Count returns the number of recorded transfers.
func (l *TransferLog) Count() (int, error) {
	rows, err := l.file.rows()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Ledger pairs the trade log and the transfer log.
type Ledger struct {
	Trades    *TradeLog
	Transfers *TransferLog
}

// Open prepares both logs, creating them with headers when absent.
func Open(tradePath, transferPath string) (*Ledger, error) {
	l := &Ledger{
		Trades:    NewTradeLog(tradePath),
		Transfers: NewTransferLog(transferPath),
	}
	if err := l.Trades.EnsureHeader(); err != nil {
		return nil, err
	}
	if err := l.Transfers.EnsureHeader(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Ledger) AppendTrades(ctx context.Context, trades []TradeRecord) error {
	return l.Trades.AppendTrades(ctx, trades)
}

func (l *Ledger) AppendTransfer(ctx context.Context, transfer TransferRecord) error {
	return l.Transfers.AppendTransfer(ctx, transfer)
}

func (l *Ledger) LastSettlement() (time.Time, error) {
	return l.Trades.LastSettlement()
}
