// Package memory is a TransactionExporter that keeps rows in process memory.
// It stands in for Google Sheets when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"finmind/internal/core"
	"finmind/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: [][]any{sheets.Header}}
}

// AppendTransaction stores the row and returns a synthetic A1 reference.
func (e *Exporter) AppendTransaction(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, sheets.Row(t))
	n := len(e.rows)
	return fmt.Sprintf("mem!A%d:F%d", n, n), nil
}

// Rows returns a copy of every row including the header.
func (e *Exporter) Rows() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.rows))
	for i, r := range e.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
