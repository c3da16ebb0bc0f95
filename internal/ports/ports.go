// Package ports declares the storage contracts the services depend on. Both
// the in-memory ledger and the SQLite repository implement all of them.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"finmind/internal/core"
)

var ErrNotFound = errors.New("not found")

type (
	// TransactionStore holds per-user transactions. ListTransactions returns
	// them newest-first: most recently added at index 0.
	TransactionStore interface {
		AddTransaction(ctx context.Context, t core.Transaction) error
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	}

	// ChatLog is an append-only per-user message sequence in insertion order.
	ChatLog interface {
		AppendMessage(ctx context.Context, userID string, m core.ChatMessage) error
		ListMessages(ctx context.Context, userID string) ([]core.ChatMessage, error)
	}

	// BudgetStore keeps at most one budget per (user, category, period);
	// saving an existing combination replaces its amount.
	BudgetStore interface {
		SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	}

	// SentimentRecorder keeps the history of sentiment lookups.
	SentimentRecorder interface {
		RecordSentiment(ctx context.Context, s SentimentSnapshot) error
		ListSentiment(ctx context.Context, userID string) ([]SentimentSnapshot, error)
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionStore
		ChatLog
		BudgetStore
		SentimentRecorder
	}
)

// SentimentSource tags where a recorded score came from.
type SentimentSource string

const (
	SourceNews     SentimentSource = "news"
	SourceSocial   SentimentSource = "social"
	SourceCombined SentimentSource = "combined"
)

func (s SentimentSource) Valid() bool {
	switch s {
	case SourceNews, SourceSocial, SourceCombined:
		return true
	}
	return false
}

// SentimentSnapshot is one row of sentiment lookup history.
type SentimentSnapshot struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id,omitempty"`
	Symbol    string          `json:"symbol"`
	Score     decimal.Decimal `json:"sentiment_score"`
	Source    SentimentSource `json:"source"`
	CreatedAt time.Time       `json:"created_at"`
}
