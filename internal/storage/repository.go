// Package storage is the SQLite backend. Amounts and scores are stored as
// decimal TEXT and timestamps as RFC 3339 TEXT so nothing is lost to float
// conversion.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finmind/internal/auth"
	"finmind/internal/core"
	"finmind/internal/ports"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.Store    = (*SQLiteRepository)(nil)
	_ auth.UserStore = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, category, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, string(t.Type), t.Amount.String(), t.Category, t.Description,
		t.Date.String(), t.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.String(),
		"category", t.Category)
	return nil
}

const transactionColumns = `id, user_id, type, amount, category, description, date, created_at`

// ListTransactions returns the user's transactions, most recently inserted
// first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// GetTransaction returns ports.ErrNotFound when id is unknown.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ports.ErrNotFound
	}
	return t, err
}

// PendingSync returns up to limit transactions not yet exported, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE synced_at IS NULL ORDER BY rowid ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	return r.updateSync(ctx, `UPDATE transactions SET synced_at = ?, sync_error = NULL WHERE id = ?`,
		r.now().UTC().Format(timeLayout), id)
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string, syncErr error) error {
	return r.updateSync(ctx, `UPDATE transactions SET sync_error = ? WHERE id = ?`, syncErr.Error(), id)
}

func (r *SQLiteRepository) updateSync(ctx context.Context, query string, value, id string) error {
	res, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("update sync state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SyncState reports whether id has been exported and the last recorded
// export error, if any.
func (r *SQLiteRepository) SyncState(ctx context.Context, id string) (synced bool, lastErr string, err error) {
	var syncedAt, msg sql.NullString
	err = r.db.QueryRowContext(ctx, `SELECT synced_at, sync_error FROM transactions WHERE id = ?`, id).Scan(&syncedAt, &msg)
	if errors.Is(err, sql.ErrNoRows) {
		return false, "", ports.ErrNotFound
	}
	if err != nil {
		return false, "", fmt.Errorf("read sync state: %w", err)
	}
	return syncedAt.Valid, msg.String, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                            core.Transaction
		typ, amount, date, createdAt string
	)
	if err := s.Scan(&t.ID, &t.UserID, &typ, &amount, &t.Category, &t.Description, &date, &createdAt); err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount: %w", t.ID, err)
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s date: %w", t.ID, err)
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s created_at: %w", t.ID, err)
	}
	return t, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AppendMessage(ctx context.Context, userID string, m core.ChatMessage) error {
	if !m.Role.Valid() {
		return fmt.Errorf("invalid role %q", m.Role)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID, userID, string(m.Role), m.Content, m.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListMessages(ctx context.Context, userID string) ([]core.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, role, content, created_at FROM chat_messages WHERE user_id = ? ORDER BY rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var out []core.ChatMessage
	for rows.Next() {
		var (
			m        core.ChatMessage
			role, ts string
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = core.Role(role)
		if m.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("chat message %s timestamp: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveBudget upserts on (user, category, period).
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := r.now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category, amount, period, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category, period) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at`,
		b.ID, b.UserID, b.Category, b.Amount.String(), string(b.Period), now, now)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND category = ? AND period = ?`, b.UserID, b.Category, string(b.Period))
	return scanBudget(row)
}

const budgetColumns = `id, user_id, category, amount, period, created_at, updated_at`

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBudget(s scanner) (core.Budget, error) {
	var (
		b                                core.Budget
		amount, period, created, updated string
	)
	if err := s.Scan(&b.ID, &b.UserID, &b.Category, &amount, &period, &created, &updated); err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Period = core.BudgetPeriod(period)
	var err error
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Budget{}, fmt.Errorf("budget %s amount: %w", b.ID, err)
	}
	if b.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) RecordSentiment(ctx context.Context, s ports.SentimentSnapshot) error {
	if !s.Source.Valid() {
		return fmt.Errorf("invalid sentiment source %q", s.Source)
	}
	if strings.TrimSpace(s.Symbol) == "" {
		return errors.New("empty symbol")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sentiment_data (id, user_id, symbol, sentiment_score, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Symbol, s.Score.String(), string(s.Source), s.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert sentiment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSentiment(ctx context.Context, userID string) ([]ports.SentimentSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, symbol, sentiment_score, source, created_at
		FROM sentiment_data WHERE user_id = ? ORDER BY rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sentiment: %w", err)
	}
	defer rows.Close()

	var out []ports.SentimentSnapshot
	for rows.Next() {
		var (
			s                 ports.SentimentSnapshot
			score, source, ts string
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.Symbol, &score, &source, &ts); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		if s.Score, err = decimal.NewFromString(score); err != nil {
			return nil, fmt.Errorf("sentiment %s score: %w", s.ID, err)
		}
		s.Source = ports.SentimentSource(source)
		if s.CreatedAt, err = time.Parse(timeLayout, ts); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
