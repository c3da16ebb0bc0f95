package aggregate

import (
	"github.com/shopspring/decimal"

	"finmind/internal/core"
)

// BudgetStatus reports how much of a budget the current period has used.
type BudgetStatus struct {
	Budget      core.Budget     `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	Remaining   decimal.Decimal `json:"remaining"`
	PercentUsed decimal.Decimal `json:"percent_used"`
	Over        bool            `json:"over"`
}

// BudgetProgress matches each budget against expenses of the same category
// whose date falls in the budget's period containing asOf: the ISO week for
// weekly budgets, the calendar month for monthly and the year for yearly.
func BudgetProgress(ts []core.Transaction, budgets []core.Budget, asOf core.Date) []BudgetStatus {
	hundred := decimal.NewFromInt(100)
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		spent := decimal.Zero
		for _, t := range ts {
			if t.Type != core.Expense || t.Category != b.Category {
				continue
			}
			if inPeriod(t.Date, asOf, b.Period) {
				spent = spent.Add(t.Amount)
			}
		}
		st := BudgetStatus{
			Budget:    b,
			Spent:     spent,
			Remaining: b.Amount.Sub(spent),
			Over:      spent.GreaterThan(b.Amount),
		}
		if b.Amount.IsPositive() {
			st.PercentUsed = spent.Mul(hundred).DivRound(b.Amount, 1)
		}
		out = append(out, st)
	}
	return out
}

func inPeriod(d, asOf core.Date, p core.BudgetPeriod) bool {
	switch p {
	case core.Weekly:
		y1, w1 := d.ISOWeek()
		y2, w2 := asOf.ISOWeek()
		return y1 == y2 && w1 == w2
	case core.Monthly:
		return d.Year() == asOf.Year() && d.Month() == asOf.Month()
	case core.Yearly:
		return d.Year() == asOf.Year()
	}
	return false
}
