// Package memory is an in-process ledger.Store used by tests and the memory backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conti/internal/core"
	"conti/internal/ledger"
)

// Ensure interface conformance
var (
	_ ledger.Store = (*Store)(nil)
	_ ledger.Store = (*txStore)(nil)
)

type state struct {
	nextTxID       int64
	nextTemplateID int64
	transactions   []core.Transaction
	budgets        []core.Budget
	templates      []core.RecurringTemplate
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: &state{}}
}

// Seed builds a store pre-filled with transactions, assigning fresh ids.
func Seed(txs []core.Transaction) *Store {
	s := New()
	for _, t := range txs {
		s.st.insertTransaction(t)
	}
	return s
}

func (s *state) clone() *state {
	return &state{
		nextTxID:       s.nextTxID,
		nextTemplateID: s.nextTemplateID,
		transactions:   append([]core.Transaction(nil), s.transactions...),
		budgets:        append([]core.Budget(nil), s.budgets...),
		templates:      append([]core.RecurringTemplate(nil), s.templates...),
	}
}

func (s *state) insertTransaction(t core.Transaction) int64 {
	s.nextTxID++
	t.ID = s.nextTxID
	s.transactions = append(s.transactions, t)
	return t.ID
}

func (s *state) txIndex(id int64) int {
	for i, t := range s.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *state) updateTransaction(t core.Transaction) error {
	i := s.txIndex(t.ID)
	if i < 0 {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	s.transactions[i] = t
	return nil
}

func (s *state) getTransaction(id int64) (core.Transaction, error) {
	i := s.txIndex(id)
	if i < 0 {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	return s.transactions[i], nil
}

func (s *state) queryTransactions(f ledger.Filter) []core.Transaction {
	out := make([]core.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	if f.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (s *state) deleteTransaction(id int64) error {
	i := s.txIndex(id)
	if i < 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
	return nil
}

func (s *state) budgetIndex(category string) int {
	for i, b := range s.budgets {
		if b.Category == category {
			return i
		}
	}
	return -1
}

func (s *state) getBudget(category string) (core.Budget, error) {
	i := s.budgetIndex(category)
	if i < 0 {
		return core.Budget{}, fmt.Errorf("budget %q: %w", category, core.ErrNotFound)
	}
	return s.budgets[i], nil
}

func (s *state) upsertBudget(b core.Budget) {
	if i := s.budgetIndex(b.Category); i >= 0 {
		s.budgets[i] = b
		return
	}
	s.budgets = append(s.budgets, b)
}

func (s *state) deleteBudget(category string) error {
	i := s.budgetIndex(category)
	if i < 0 {
		return fmt.Errorf("budget %q: %w", category, core.ErrNotFound)
	}
	s.budgets = append(s.budgets[:i], s.budgets[i+1:]...)
	return nil
}

func (s *state) createTemplate(rt core.RecurringTemplate) int64 {
	s.nextTemplateID++
	rt.ID = s.nextTemplateID
	s.templates = append(s.templates, rt)
	return rt.ID
}

func (s *state) templateIndex(id int64) int {
	for i, rt := range s.templates {
		if rt.ID == id {
			return i
		}
	}
	return -1
}

func (s *state) getTemplate(id int64) (core.RecurringTemplate, error) {
	i := s.templateIndex(id)
	if i < 0 {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template %d: %w", id, core.ErrNotFound)
	}
	return s.templates[i], nil
}

func (s *state) listTemplates(activeOnly bool) []core.RecurringTemplate {
	out := make([]core.RecurringTemplate, 0, len(s.templates))
	for _, rt := range s.templates {
		if activeOnly && !rt.Active {
			continue
		}
		out = append(out, rt)
	}
	return out
}

func (s *state) updateTemplate(rt core.RecurringTemplate) error {
	i := s.templateIndex(rt.ID)
	if i < 0 {
		return fmt.Errorf("recurring template %d: %w", rt.ID, core.ErrNotFound)
	}
	s.templates[i] = rt
	return nil
}

func (s *Store) InsertTransaction(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.insertTransaction(t), nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updateTransaction(t)
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getTransaction(id)
}

func (s *Store) QueryTransactions(_ context.Context, f ledger.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.queryTransactions(f), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleteTransaction(id)
}

func (s *Store) GetBudget(_ context.Context, category string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getBudget(category)
}

func (s *Store) ListBudgets(_ context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Budget(nil), s.st.budgets...), nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.upsertBudget(b)
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.deleteBudget(category)
}

func (s *Store) CreateTemplate(_ context.Context, rt core.RecurringTemplate) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.createTemplate(rt), nil
}

func (s *Store) GetTemplate(_ context.Context, id int64) (core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.getTemplate(id)
}

func (s *Store) ListTemplates(_ context.Context, activeOnly bool) ([]core.RecurringTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.listTemplates(activeOnly), nil
}

func (s *Store) UpdateTemplate(_ context.Context, rt core.RecurringTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.updateTemplate(rt)
}

// WithinTx runs fn on a copy of the data and swaps it in only on success.
func (s *Store) WithinTx(_ context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&txStore{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// txStore is the unlocked view handed to WithinTx callbacks.
type txStore struct {
	st *state
}

func (t *txStore) InsertTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	return t.st.insertTransaction(tx), nil
}

func (t *txStore) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	return t.st.updateTransaction(tx)
}

func (t *txStore) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	return t.st.getTransaction(id)
}

func (t *txStore) QueryTransactions(_ context.Context, f ledger.Filter) ([]core.Transaction, error) {
	return t.st.queryTransactions(f), nil
}

func (t *txStore) DeleteTransaction(_ context.Context, id int64) error {
	return t.st.deleteTransaction(id)
}

func (t *txStore) GetBudget(_ context.Context, category string) (core.Budget, error) {
	return t.st.getBudget(category)
}

func (t *txStore) ListBudgets(_ context.Context) ([]core.Budget, error) {
	return append([]core.Budget(nil), t.st.budgets...), nil
}

func (t *txStore) UpsertBudget(_ context.Context, b core.Budget) error {
	t.st.upsertBudget(b)
	return nil
}

func (t *txStore) DeleteBudget(_ context.Context, category string) error {
	return t.st.deleteBudget(category)
}

func (t *txStore) CreateTemplate(_ context.Context, rt core.RecurringTemplate) (int64, error) {
	return t.st.createTemplate(rt), nil
}

func (t *txStore) GetTemplate(_ context.Context, id int64) (core.RecurringTemplate, error) {
	return t.st.getTemplate(id)
}

func (t *txStore) ListTemplates(_ context.Context, activeOnly bool) ([]core.RecurringTemplate, error) {
	return t.st.listTemplates(activeOnly), nil
}

func (t *txStore) UpdateTemplate(_ context.Context, rt core.RecurringTemplate) error {
	return t.st.updateTemplate(rt)
}

// WithinTx on an open unit of work joins it.
func (t *txStore) WithinTx(_ context.Context, fn func(ledger.Store) error) error {
	return fn(t)
}
