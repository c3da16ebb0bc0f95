package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"finmind/internal/core"
	"finmind/internal/ports"
)

// SeedTransactions returns the demo ledger a new account starts with, oldest
// first.
func SeedTransactions(userID string) []core.Transaction {
	mk := func(typ core.TransactionType, amount int64, category, description string, day int) core.Transaction {
		return core.Transaction{
			UserID:      userID,
			Type:        typ,
			Amount:      decimal.NewFromInt(amount),
			Category:    category,
			Description: description,
			Date:        core.NewDate(2025, 10, day),
		}
	}
	return []core.Transaction{
		mk(core.Income, 4000, "Salary", "Monthly salary", 1),
		mk(core.Expense, 450, "Groceries", "Weekly shopping", 2),
		mk(core.Expense, 320, "Dining", "Restaurants", 3),
		mk(core.Expense, 200, "Transport", "Gas and metro", 3),
		mk(core.Expense, 150, "Entertainment", "Movies and games", 4),
	}
}

// Seed adds the demo ledger for userID to store, so the newest seed entry
// lists first.
func Seed(ctx context.Context, store ports.TransactionStore, userID string) error {
	for _, t := range SeedTransactions(userID) {
		if err := store.AddTransaction(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
