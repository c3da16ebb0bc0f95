// Package aggregate derives dashboard figures from a transaction collection.
//
// Every function here is pure: it reads the slice it is given, never mutates
// it, performs no I/O and cannot fail. Inputs are assumed to have passed
// core.Transaction.Validate at the boundary.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"finmind/internal/core"
)

// TotalByType sums the amounts of all transactions of the given type.
func TotalByType(ts []core.Transaction, typ core.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, t := range ts {
		if t.Type == typ {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CategoryTotals sums expense amounts per category. Keys are the exact
// category labels, so "groceries" and "Groceries" are distinct.
func CategoryTotals(ts []core.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range ts {
		if t.Type != core.Expense {
			continue
		}
		if sum, ok := out[t.Category]; ok {
			out[t.Category] = sum.Add(t.Amount)
		} else {
			out[t.Category] = t.Amount
		}
	}
	return out
}

// NetBalance is total income minus total expenses.
func NetBalance(ts []core.Transaction) decimal.Decimal {
	return TotalByType(ts, core.Income).Sub(TotalByType(ts, core.Expense))
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
	Color   string          `json:"color"`
}

// Palette is the pie chart color cycle.
var Palette = []string{"#3B82F6", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6", "#EC4899"}

// ByCategory turns CategoryTotals into a slice ordered by amount descending,
// then name, with each entry's share of total expenses and a palette color.
func ByCategory(ts []core.Transaction) []CategoryAmount {
	totals := CategoryTotals(ts)
	out := make([]CategoryAmount, 0, len(totals))
	overall := decimal.Zero
	for name, amt := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
		overall = overall.Add(amt)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	hundred := decimal.NewFromInt(100)
	for i := range out {
		if overall.IsPositive() {
			out[i].Percent = out[i].Amount.Mul(hundred).DivRound(overall, 1)
		}
		out[i].Color = Palette[i%len(Palette)]
	}
	return out
}
