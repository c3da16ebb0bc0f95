// Package ledger is the in-memory backend. A single mutex serializes every
// mutation, so the store has exactly one logical owner at a time.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"finmind/internal/core"
	"finmind/internal/ports"
)

type Store struct {
	mu        sync.Mutex
	txs       map[string][]core.Transaction
	messages  map[string][]core.ChatMessage
	budgets   map[string][]core.Budget
	sentiment map[string][]ports.SentimentSnapshot
	now       func() time.Time
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		txs:       make(map[string][]core.Transaction),
		messages:  make(map[string][]core.ChatMessage),
		budgets:   make(map[string][]core.Budget),
		sentiment: make(map[string][]ports.SentimentSnapshot),
		now:       time.Now,
	}
}

// AddTransaction prepends t to the user's list.
func (s *Store) AddTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.txs[t.UserID]
	next := make([]core.Transaction, 0, len(cur)+1)
	next = append(next, t)
	next = append(next, cur...)
	s.txs[t.UserID] = next
	return nil
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs[userID]...), nil
}

func (s *Store) AppendMessage(_ context.Context, userID string, m core.ChatMessage) error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[userID] = append(s.messages[userID], m)
	return nil
}

func (s *Store) ListMessages(_ context.Context, userID string) ([]core.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.ChatMessage(nil), s.messages[userID]...), nil
}

// SaveBudget inserts b or replaces the amount of the existing budget with the
// same category and period.
func (s *Store) SaveBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.budgets[b.UserID]
	for i, cur := range list {
		if cur.Category == b.Category && cur.Period == b.Period {
			cur.Amount = b.Amount
			cur.UpdatedAt = now
			list[i] = cur
			return cur, nil
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt, b.UpdatedAt = now, now
	s.budgets[b.UserID] = append(list, b)
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.budgets[userID]...), nil
}

func (s *Store) RecordSentiment(_ context.Context, snap ports.SentimentSnapshot) error {
	if !snap.Source.Valid() {
		return fmt.Errorf("invalid sentiment source %q", snap.Source)
	}
	if strings.TrimSpace(snap.Symbol) == "" {
		return fmt.Errorf("empty symbol")
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentiment[snap.UserID] = append(s.sentiment[snap.UserID], snap)
	return nil
}

func (s *Store) ListSentiment(_ context.Context, userID string) ([]ports.SentimentSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.SentimentSnapshot(nil), s.sentiment[userID]...), nil
}
