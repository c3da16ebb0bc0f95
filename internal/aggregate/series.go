package aggregate

import "github.com/shopspring/decimal"

// Series is a labelled income/expense chart projection.
type Series struct {
	Labels   []string          `json:"labels"`
	Income   []decimal.Decimal `json:"income"`
	Expenses []decimal.Decimal `json:"expenses"`
}

var (
	weeklyLabels   = []string{"Week 1", "Week 2", "Week 3", "Week 4"}
	weeklyIncome   = []int64{4000, 0, 0, 0}
	weeklyExpenses = []int64{300, 320, 280, 220}
)

// WeeklySeries returns the fixed four-week income vs expenses projection.
// It is synthetic and not bucketed from dated transactions; callers that need
// real weekly totals must not rely on it.
func WeeklySeries() Series {
	s := Series{
		Labels:   append([]string(nil), weeklyLabels...),
		Income:   make([]decimal.Decimal, len(weeklyIncome)),
		Expenses: make([]decimal.Decimal, len(weeklyExpenses)),
	}
	for i, v := range weeklyIncome {
		s.Income[i] = decimal.NewFromInt(v)
	}
	for i, v := range weeklyExpenses {
		s.Expenses[i] = decimal.NewFromInt(v)
	}
	return s
}
