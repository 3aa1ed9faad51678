package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"
)

// LedgerService orchestrates transaction writes across the store and the event bus.
type LedgerService struct {
	store     ledger.Store
	publisher EventPublisher
}

// NewLedgerService creates a ledger service. publisher may be nil.
func NewLedgerService(store ledger.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
	}
}

func normalize(t core.Transaction) core.Transaction {
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = core.DefaultCategory
	}
	t.Notes = strings.TrimSpace(t.Notes)
	return t
}

// Create saves a transaction and announces it.
func (s *LedgerService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	t = normalize(t)
	if err := t.Validate(); err != nil {
		return 0, core.Invalid(err)
	}

	id, err := s.store.InsertTransaction(ctx, t)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to save transaction", "error", err)
		return 0, core.StoreFailure("insert transaction", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"type", t.Kind,
		"amount", t.Amount.String(),
		log.FieldCategory, t.Category)

	// The row is saved; publish failures are not the caller's problem.
	s.publish(ctx, amqp.OpCreated, id)
	return id, nil
}

// Update replaces the stored transaction with the same ID.
func (s *LedgerService) Update(ctx context.Context, t core.Transaction) error {
	t = normalize(t)
	if err := t.Validate(); err != nil {
		return core.Invalid(err)
	}

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to update transaction", "id", t.ID, "error", err)
		return core.StoreFailure("update transaction", err)
	}

	slog.InfoContext(ctx, "Transaction updated", "id", t.ID)
	s.publish(ctx, amqp.OpUpdated, t.ID)
	return nil
}

// Delete removes a transaction permanently.
func (s *LedgerService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to delete transaction", "id", id, "error", err)
		return core.StoreFailure("delete transaction", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	s.publish(ctx, amqp.OpDeleted, id)
	return nil
}

func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, core.StoreFailure("get transaction", err)
	}
	return t, nil
}

func (s *LedgerService) List(ctx context.Context, f ledger.Filter) ([]core.Transaction, error) {
	txs, err := s.store.QueryTransactions(ctx, f)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list transactions", "error", err)
		return nil, core.StoreFailure("query transactions", err)
	}
	return txs, nil
}

// Recent returns the n most recently entered transactions, newest first.
func (s *LedgerService) Recent(ctx context.Context, n int) ([]core.Transaction, error) {
	if n <= 0 {
		n = 10
	}
	return s.List(ctx, ledger.Filter{Limit: n, NewestFirst: true})
}

// Categories returns the distinct non-empty categories in use, sorted.
func (s *LedgerService) Categories(ctx context.Context) ([]string, error) {
	txs, err := s.List(ctx, ledger.Filter{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	for _, t := range txs {
		if t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (s *LedgerService) publish(ctx context.Context, op amqp.Op, id int64) {
	publishEvent(ctx, s.publisher, op, id)
}

func publishEvent(ctx context.Context, p EventPublisher, op amqp.Op, id int64) {
	if p == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "op", op, "id", id)
		return
	}
	if err := p.PublishTransactionEvent(ctx, op, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"op", op, "id", id, "error", err)
	}
}
