package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finmind/internal/core"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(typ core.TransactionType, amount, category string) core.Transaction {
	return core.Transaction{
		Type:        typ,
		Amount:      dec(amount),
		Category:    category,
		Description: category,
		Date:        core.NewDate(2025, 10, 1),
	}
}

func exampleLedger() []core.Transaction {
	return []core.Transaction{
		tx(core.Income, "4000", "Salary"),
		tx(core.Expense, "450", "Groceries"),
		tx(core.Expense, "320", "Dining"),
	}
}

func TestEndToEndExample(t *testing.T) {
	ts := exampleLedger()

	assert.True(t, TotalByType(ts, core.Income).Equal(dec("4000")))
	assert.True(t, TotalByType(ts, core.Expense).Equal(dec("770")))
	assert.True(t, NetBalance(ts).Equal(dec("3230")))

	want := map[string]decimal.Decimal{"Groceries": dec("450"), "Dining": dec("320")}
	if diff := cmp.Diff(want, CategoryTotals(ts), decimalEqual); diff != "" {
		t.Errorf("CategoryTotals mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyInput(t *testing.T) {
	assert.True(t, TotalByType(nil, core.Income).IsZero())
	assert.True(t, TotalByType(nil, core.Expense).IsZero())
	assert.True(t, NetBalance(nil).IsZero())
	assert.Empty(t, CategoryTotals(nil))
	assert.Empty(t, ByCategory(nil))
}

func TestNetBalanceIdentity(t *testing.T) {
	ledgers := [][]core.Transaction{
		nil,
		exampleLedger(),
		{tx(core.Expense, "10.10", "A"), tx(core.Expense, "0.20", "A")},
		{tx(core.Income, "1.01", "Salary"), tx(core.Income, "2.02", "Bonus")},
	}
	for _, ts := range ledgers {
		income := TotalByType(ts, core.Income)
		expense := TotalByType(ts, core.Expense)
		assert.False(t, income.IsNegative())
		assert.False(t, expense.IsNegative())
		assert.True(t, NetBalance(ts).Equal(income.Sub(expense)))
	}
}

func TestCategoryTotalsKeys(t *testing.T) {
	ts := []core.Transaction{
		tx(core.Expense, "1.10", "Groceries"),
		tx(core.Expense, "2.20", "groceries"),
		tx(core.Expense, "3.30", "Groceries"),
		tx(core.Income, "100", "Refund"),
	}
	got := CategoryTotals(ts)
	require.Len(t, got, 2)
	assert.True(t, got["Groceries"].Equal(dec("4.40")))
	assert.True(t, got["groceries"].Equal(dec("2.20")))
	_, hasIncome := got["Refund"]
	assert.False(t, hasIncome, "income categories must not appear")
}

func TestByCategoryOrderingAndColors(t *testing.T) {
	ts := append(exampleLedger(),
		tx(core.Expense, "200", "Transport"),
		tx(core.Expense, "200", "Entertainment"),
	)
	got := ByCategory(ts)
	require.Len(t, got, 4)

	names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
	assert.Equal(t, []string{"Groceries", "Dining", "Entertainment", "Transport"}, names)
	assert.Equal(t, Palette[0], got[0].Color)
	assert.Equal(t, Palette[3], got[3].Color)
	// 450 / 1170
	assert.True(t, got[0].Percent.Equal(dec("38.5")), "got %s", got[0].Percent)
}

func TestWeeklySeriesIsFixed(t *testing.T) {
	want := Series{
		Labels:   []string{"Week 1", "Week 2", "Week 3", "Week 4"},
		Income:   []decimal.Decimal{dec("4000"), dec("0"), dec("0"), dec("0")},
		Expenses: []decimal.Decimal{dec("300"), dec("320"), dec("280"), dec("220")},
	}
	s := WeeklySeries()
	if diff := cmp.Diff(want, s, decimalEqual); diff != "" {
		t.Errorf("WeeklySeries mismatch (-want +got):\n%s", diff)
	}

	s.Labels[0] = "mutated"
	assert.Equal(t, "Week 1", WeeklySeries().Labels[0])
}

func TestSummarize(t *testing.T) {
	ts := exampleLedger()
	s := Summarize(ts, 2)

	assert.True(t, s.TotalIncome.Equal(dec("4000")))
	assert.True(t, s.TotalExpenses.Equal(dec("770")))
	assert.True(t, s.NetBalance.Equal(dec("3230")))
	assert.Equal(t, 3, s.TransactionCount)
	require.Len(t, s.Recent, 2)
	assert.Equal(t, "Salary", s.Recent[0].Category)
	require.Len(t, s.ByCategory, 2)

	assert.Len(t, Summarize(ts, 50).Recent, 3)
	assert.Empty(t, Summarize(ts, -1).Recent)
}

func TestBudgetProgress(t *testing.T) {
	asOf := core.NewDate(2025, 10, 15)
	ts := []core.Transaction{
		{Type: core.Expense, Amount: dec("120"), Category: "Dining", Date: core.NewDate(2025, 10, 14)},
		{Type: core.Expense, Amount: dec("200"), Category: "Dining", Date: core.NewDate(2025, 10, 2)},
		{Type: core.Expense, Amount: dec("99"), Category: "Dining", Date: core.NewDate(2025, 9, 30)},
		{Type: core.Income, Amount: dec("500"), Category: "Dining", Date: core.NewDate(2025, 10, 14)},
	}
	budgets := []core.Budget{
		{Category: "Dining", Amount: dec("300"), Period: core.Monthly},
		{Category: "Dining", Amount: dec("150"), Period: core.Weekly},
		{Category: "Dining", Amount: dec("1000"), Period: core.Yearly},
		{Category: "Travel", Amount: dec("50"), Period: core.Monthly},
	}

	got := BudgetProgress(ts, budgets, asOf)
	require.Len(t, got, 4)

	assert.True(t, got[0].Spent.Equal(dec("320")))
	assert.True(t, got[0].Over)
	assert.True(t, got[0].Remaining.Equal(dec("-20")))

	assert.True(t, got[1].Spent.Equal(dec("120")), "weekly got %s", got[1].Spent)
	assert.True(t, got[1].PercentUsed.Equal(dec("80")))

	assert.True(t, got[2].Spent.Equal(dec("419")))
	assert.False(t, got[2].Over)

	assert.True(t, got[3].Spent.IsZero())
}
