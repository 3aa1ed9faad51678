// Package worker mirrors ledger changes announced over AMQP into a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"conti/internal/amqp"
	"conti/internal/cache"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"
	"conti/internal/sheets"
)

// Redelivered events seen within this window are not appended twice.
const (
	seenCapacity = 4096
	seenTTL      = 24 * time.Hour
)

// SyncWorker handles synchronization of transactions from the store to Google Sheets
type SyncWorker struct {
	store  ledger.TransactionStore
	writer sheets.TransactionWriter
	// seen maps event ids already appended to the sheet range they landed in.
	seen *cache.LRU[uuid.UUID, string]
}

func NewSyncWorker(store ledger.TransactionStore, writer sheets.TransactionWriter) *SyncWorker {
	return &SyncWorker{
		store:  store,
		writer: writer,
		seen:   cache.NewLRU[uuid.UUID, string](seenCapacity, seenTTL),
	}
}

// HandleEvent processes a single ledger event from AMQP. Returning an error
// asks the broker to redeliver the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return errors.New("nil event")
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"event_id", ev.ID,
		log.FieldTransactionID, ev.TransactionID,
		"op", ev.Op)

	switch ev.Op {
	case amqp.OpDeleted:
		// Rows are never removed from the sheet; the log is the audit trail.
		slog.InfoContext(ctx, "Transaction deleted, sheet row kept",
			log.FieldTransactionID, ev.TransactionID,
			"timestamp", ev.Timestamp)
		return nil
	case amqp.OpCreated, amqp.OpUpdated:
		return w.syncTransaction(ctx, ev)
	default:
		slog.WarnContext(ctx, "Ignoring event with unknown op", "op", ev.Op)
		return nil
	}
}

func (w *SyncWorker) syncTransaction(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ref, ok := w.seen.Get(ev.ID); ok {
		slog.InfoContext(ctx, "Duplicate delivery, already synced",
			"event_id", ev.ID,
			"sheets_ref", ref)
		return nil
	}

	t, err := w.store.GetTransaction(ctx, ev.TransactionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before the event was consumed.
			slog.WarnContext(ctx, "Transaction no longer exists, skipping sync",
				log.FieldTransactionID, ev.TransactionID)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.writer.AppendTransaction(ctx, t)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to sync transaction",
			log.FieldTransactionID, t.ID,
			"error", err)
		return fmt.Errorf("append to sheets: %w", err)
	}
	w.seen.Put(ev.ID, ref)

	slog.InfoContext(ctx, "Successfully synced transaction",
		log.FieldTransactionID, t.ID,
		"op", ev.Op,
		"sheets_ref", ref,
		"amount", t.Amount.StringFixed(2))
	return nil
}
