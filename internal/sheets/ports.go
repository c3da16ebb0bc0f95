// Package sheets defines the spreadsheet export port used by the sync worker.
package sheets

import (
	"context"

	"finmind/internal/core"
)

// TransactionExporter writes one transaction as a spreadsheet row and returns
// a reference to where it landed.
type TransactionExporter interface {
	AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
}

// Header is the column layout of an exported row.
var Header = []any{"Date", "Type", "Category", "Description", "Amount", "ID"}

// Row renders t in Header order. The amount is a plain decimal string so the
// sheet parses it with its own locale.
func Row(t core.Transaction) []any {
	return []any{
		t.Date.String(),
		string(t.Type),
		t.Category,
		t.Description,
		t.Amount.StringFixed(2),
		t.ID,
	}
}
