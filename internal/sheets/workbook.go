package sheets

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"customer_insights/internal/customers"
)

// Workbook serves each worksheet of an XLSX file as a named transaction source.
type Workbook struct {
	mu     sync.Mutex
	file   *excelize.File
	logger *zap.Logger
}

// OpenWorkbook opens the XLSX file at path.
func OpenWorkbook(path string, logger *zap.Logger) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return newWorkbook(f, logger), nil
}

// ReadWorkbook reads an XLSX workbook from r.
func ReadWorkbook(r io.Reader, logger *zap.Logger) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	return newWorkbook(f, logger), nil
}

func newWorkbook(f *excelize.File, logger *zap.Logger) *Workbook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workbook{file: f, logger: logger}
}

// Sheets lists the worksheet names in workbook order.
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.GetSheetList()
}

// Load returns the transactions of worksheet name. The first row is the header.
func (w *Workbook) Load(_ context.Context, name string) ([]customers.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if idx, err := w.file.GetSheetIndex(name); err != nil || idx == -1 {
		return nil, fmt.Errorf("worksheet %q: %w", name, customers.ErrSourceNotFound)
	}
	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", name, err)
	}
	txs, err := tableTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("worksheet %q: %w", name, err)
	}
	w.logger.Debug("worksheet loaded", zap.String("sheet", name), zap.Int("rows", len(txs)))
	return txs, nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}
