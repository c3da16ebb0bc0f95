package aggregate

import (
	"github.com/shopspring/decimal"

	"finmind/internal/core"
)

// DefaultRecent is how many transactions the dashboard lists.
const DefaultRecent = 10

// Summary is everything the dashboard view renders for one user.
type Summary struct {
	TotalIncome      decimal.Decimal    `json:"total_income"`
	TotalExpenses    decimal.Decimal    `json:"total_expenses"`
	NetBalance       decimal.Decimal    `json:"net_balance"`
	ByCategory       []CategoryAmount   `json:"by_category"`
	Weekly           Series             `json:"weekly"`
	Recent           []core.Transaction `json:"recent"`
	TransactionCount int                `json:"transaction_count"`
}

// Summarize builds the dashboard summary. ts is expected newest-first, as the
// stores return it; Recent keeps the first n entries.
func Summarize(ts []core.Transaction, n int) Summary {
	income := TotalByType(ts, core.Income)
	expenses := TotalByType(ts, core.Expense)

	if n < 0 {
		n = 0
	}
	if n > len(ts) {
		n = len(ts)
	}
	recent := make([]core.Transaction, n)
	copy(recent, ts[:n])

	return Summary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		NetBalance:       income.Sub(expenses),
		ByCategory:       ByCategory(ts),
		Weekly:           WeeklySeries(),
		Recent:           recent,
		TransactionCount: len(ts),
	}
}
