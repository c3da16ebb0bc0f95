package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"finmind/internal/aggregate"
	"finmind/internal/cache"
	"finmind/internal/core"
	flog "finmind/internal/log"
	"finmind/internal/ports"
)

// SummaryTTL bounds how stale a cached dashboard summary can get.
const SummaryTTL = 5 * time.Minute

// Publisher announces newly stored transactions. The AMQP client implements
// it; a nil Publisher disables publishing.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, t core.Transaction) error
}

// TransactionInput is the raw form of a new transaction as it arrives from a
// request or the command line.
type TransactionInput struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// BudgetInput is the raw form of a budget upsert.
type BudgetInput struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Period   string `json:"period"`
}

// TransactionService orchestrates ledger operations across the store, the
// summary cache and the event publisher.
type TransactionService struct {
	store     ports.TransactionStore
	budgets   ports.BudgetStore
	publisher Publisher
	summaries *cache.LRUCache[aggregate.Summary]
	logger    *slog.Logger
	now       func() time.Time
}

func NewTransactionService(store ports.TransactionStore, budgets ports.BudgetStore, pub Publisher, summaries *cache.LRUCache[aggregate.Summary], logger *slog.Logger) *TransactionService {
	if summaries == nil {
		summaries = cache.NewLRUCache[aggregate.Summary](1000, SummaryTTL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionService{
		store:     store,
		budgets:   budgets,
		publisher: pub,
		summaries: summaries,
		logger:    logger.With(flog.FieldComponent, flog.ComponentLedger),
		now:       time.Now,
	}
}

// SummaryCache exposes the cache so it can be registered with a cleanup
// manager.
func (s *TransactionService) SummaryCache() *cache.LRUCache[aggregate.Summary] {
	return s.summaries
}

func summaryKey(userID string) string { return "summary:" + userID }

// ParseTransaction turns raw input into a validated transaction for userID.
// An empty date means today.
func ParseTransaction(userID string, in TransactionInput) (core.Transaction, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date := core.Today()
	if strings.TrimSpace(in.Date) != "" {
		if date, err = core.ParseDate(in.Date); err != nil {
			return core.Transaction{}, err
		}
	}
	t := core.Transaction{
		UserID:      userID,
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(in.Type))),
		Amount:      amount,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Date:        date,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Create stores a new transaction and announces it. Publishing is best
// effort: once the store accepts the row the call succeeds.
func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	t, err := ParseTransaction(userID, in)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now().UTC()

	if err := s.store.AddTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.summaries.Delete(summaryKey(userID))

	fields := flog.NewFields().
		WithOperation(flog.OpCreate).
		WithUser(userID).
		WithTransaction(t.ID, string(t.Type), t.Amount.String(), t.Category)
	s.logger.InfoContext(ctx, "Transaction created", fields...)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping transaction event", flog.FieldTransaction, t.ID)
		return t, nil
	}
	if err := s.publisher.PublishTransactionCreated(ctx, t); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event", fields.WithError(err)...)
	}
	return t, nil
}

// List returns the user's transactions newest-first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	ts, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return ts, nil
}

// Summary returns the dashboard aggregates, served from cache while fresh.
func (s *TransactionService) Summary(ctx context.Context, userID string) (aggregate.Summary, error) {
	key := summaryKey(userID)
	if sum, ok := s.summaries.Get(key); ok {
		return sum, nil
	}
	ts, err := s.List(ctx, userID)
	if err != nil {
		return aggregate.Summary{}, err
	}
	sum := aggregate.Summarize(ts, aggregate.DefaultRecent)
	s.summaries.Set(key, sum)
	return sum, nil
}

// SaveBudget validates and upserts a budget for userID.
func (s *TransactionService) SaveBudget(ctx context.Context, userID string, in BudgetInput) (core.Budget, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		UserID:   userID,
		Category: strings.TrimSpace(in.Category),
		Amount:   amount,
		Period:   core.BudgetPeriod(strings.ToLower(strings.TrimSpace(in.Period))),
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	saved, err := s.budgets.SaveBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return saved, nil
}

// Budgets reports progress on each of the user's budgets for the periods
// containing asOf.
func (s *TransactionService) Budgets(ctx context.Context, userID string, asOf core.Date) ([]aggregate.BudgetStatus, error) {
	bs, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	ts, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.BudgetProgress(ts, bs, asOf), nil
}
