// Package worker exports stored transactions to the spreadsheet, driven by
// AMQP events with a periodic sweep as backstop for lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finmind/internal/amqp"
	"finmind/internal/core"
	"finmind/internal/ports"
	"finmind/internal/sheets"
)

// SyncStore is the sync bookkeeping the worker needs from storage.
type SyncStore interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	PendingSync(ctx context.Context, limit int) ([]core.Transaction, error)
	SyncState(ctx context.Context, id string) (synced bool, lastErr string, err error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string, syncErr error) error
}

type SyncWorker struct {
	store     SyncStore
	exporter  sheets.TransactionExporter
	batchSize int
	logger    *slog.Logger
}

func NewSyncWorker(store SyncStore, exporter sheets.TransactionExporter, batchSize int, logger *slog.Logger) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{store: store, exporter: exporter, batchSize: batchSize, logger: logger}
}

// HandleTransactionEvent exports the transaction named by e. The stored row
// is authoritative; a transaction unknown to the store (published by a
// memory-backed server) is exported from the event payload and not tracked.
// Already-synced transactions are skipped so redelivery is harmless.
func (w *SyncWorker) HandleTransactionEvent(ctx context.Context, e *amqp.TransactionEvent) error {
	id := e.Transaction.ID
	t, err := w.store.GetTransaction(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		ref, err := w.exporter.AppendTransaction(ctx, e.Transaction)
		if err != nil {
			return fmt.Errorf("append untracked transaction %s: %w", id, err)
		}
		w.logger.InfoContext(ctx, "Exported untracked transaction", "transaction_id", id, "sheets_ref", ref)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	synced, _, err := w.store.SyncState(ctx, id)
	if err != nil {
		return fmt.Errorf("read sync state %s: %w", id, err)
	}
	if synced {
		w.logger.DebugContext(ctx, "Transaction already synced", "transaction_id", id)
		return nil
	}
	return w.export(ctx, t)
}

// ProcessPending exports up to one batch of unsynced transactions and returns
// how many succeeded. Individual failures are recorded, not returned.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	pending, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	ok := 0
	for _, t := range pending {
		if ctx.Err() != nil {
			return ok, ctx.Err()
		}
		if err := w.export(ctx, t); err != nil {
			w.logger.ErrorContext(ctx, "Failed to sync transaction", "transaction_id", t.ID, "error", err)
			continue
		}
		ok++
	}
	return ok, nil
}

// Run sweeps pending transactions every interval until ctx is done. The first
// sweep happens immediately.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Pending sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *SyncWorker) export(ctx context.Context, t core.Transaction) error {
	ref, err := w.exporter.AppendTransaction(ctx, t)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, t.ID, err); markErr != nil {
			w.logger.ErrorContext(ctx, "Failed to mark sync error", "transaction_id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}
	// The row is written; a failed mark only risks a duplicate export later.
	if err := w.store.MarkSynced(ctx, t.ID); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark as synced", "transaction_id", t.ID, "error", err)
	}
	w.logger.InfoContext(ctx, "Synced transaction",
		"transaction_id", t.ID,
		"sheets_ref", ref,
		"type", t.Type,
		"amount", t.Amount.String())
	return nil
}
