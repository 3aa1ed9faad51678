package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"conti/internal/amqp"
	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"
)

// DefaultUpcomingHorizon is how many days ahead Upcoming looks by default.
const DefaultUpcomingHorizon = 30

// EventPublisher announces ledger changes to other processes.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, op amqp.Op, transactionID int64) error
}

// RecurringEngine materializes due recurring templates into transactions
// and moves their next occurrence forward.
type RecurringEngine struct {
	store     ledger.Store
	publisher EventPublisher
}

// NewRecurringEngine creates a new recurring engine. publisher may be nil.
func NewRecurringEngine(store ledger.Store, publisher EventPublisher) *RecurringEngine {
	return &RecurringEngine{
		store:     store,
		publisher: publisher,
	}
}

// DueTemplates returns the active templates whose next occurrence is on or before today.
func DueTemplates(templates []core.RecurringTemplate, today core.Date) []core.RecurringTemplate {
	var due []core.RecurringTemplate
	for _, rt := range templates {
		if rt.Active && rt.NextOccurrence.OnOrBefore(today) {
			due = append(due, rt)
		}
	}
	return due
}

// UpcomingFrom returns active templates due within horizonDays of today,
// earliest first.
func UpcomingFrom(templates []core.RecurringTemplate, today core.Date, horizonDays int) []core.RecurringTemplate {
	end := today.AddDays(horizonDays)
	var out []core.RecurringTemplate
	for _, rt := range templates {
		if rt.Active && rt.NextOccurrence.OnOrBefore(end) {
			out = append(out, rt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextOccurrence.Before(out[j].NextOccurrence.Time)
	})
	return out
}

// Materialize builds the transaction a template produces when it fires.
func Materialize(rt core.RecurringTemplate) core.Transaction {
	return core.Transaction{
		Date:     rt.NextOccurrence,
		Amount:   rt.Amount,
		Kind:     rt.Kind,
		Category: rt.Category,
		Notes:    core.RecurringNote(rt),
	}
}

// ProcessDue fires every due template once and returns how many fired.
//
// All inserts and template updates of a pass are committed together; when
// nothing is due no write happens. A template that is still due after one
// advance waits for the next call.
func (e *RecurringEngine) ProcessDue(ctx context.Context, today core.Date) (int, error) {
	if e.store == nil {
		return 0, fmt.Errorf("recurring engine not properly initialized")
	}

	templates, err := e.store.ListTemplates(ctx, true)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list active recurring templates", "error", err)
		return 0, core.StoreFailure("list active templates", err)
	}

	due := DueTemplates(templates, today)

	slog.InfoContext(ctx, "Processing recurring templates",
		"total_active", len(templates),
		"due", len(due),
		"processing_date", today.String())

	if len(due) == 0 {
		return 0, nil
	}

	created := make([]int64, 0, len(due))
	err = e.store.WithinTx(ctx, func(tx ledger.Store) error {
		for _, rt := range due {
			id, err := tx.InsertTransaction(ctx, Materialize(rt))
			if err != nil {
				return fmt.Errorf("insert transaction for template %d: %w", rt.ID, err)
			}

			rt.NextOccurrence = Advance(rt.NextOccurrence, rt.Frequency)
			if err := tx.UpdateTemplate(ctx, rt); err != nil {
				return fmt.Errorf("advance template %d: %w", rt.ID, err)
			}
			created = append(created, id)

			slog.InfoContext(ctx, "Created transaction from recurring template",
				log.FieldTemplateID, rt.ID,
				"name", rt.Name,
				log.FieldAmount, rt.Amount.String(),
				"frequency", rt.Frequency,
				"next_date", rt.NextOccurrence.String())
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "Recurring processing rolled back", "error", err)
		return 0, core.StoreFailure("process due templates", err)
	}

	for _, id := range created {
		publishEvent(ctx, e.publisher, amqp.OpCreated, id)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"processed", len(created),
		"total_checked", len(templates))

	return len(created), nil
}

// Upcoming lists active templates due within horizonDays of today.
func (e *RecurringEngine) Upcoming(ctx context.Context, today core.Date, horizonDays int) ([]core.RecurringTemplate, error) {
	templates, err := e.store.ListTemplates(ctx, true)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list recurring templates", "error", err)
		return nil, core.StoreFailure("list active templates", err)
	}
	return UpcomingFrom(templates, today, horizonDays), nil
}

// ListActive returns every active template in storage order.
func (e *RecurringEngine) ListActive(ctx context.Context) ([]core.RecurringTemplate, error) {
	templates, err := e.store.ListTemplates(ctx, true)
	if err != nil {
		return nil, core.StoreFailure("list active templates", err)
	}
	return templates, nil
}

// CreateTemplate validates and stores a new active template.
func (e *RecurringEngine) CreateTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error) {
	rt.Active = true
	if err := rt.Validate(); err != nil {
		return 0, core.Invalid(err)
	}
	id, err := e.store.CreateTemplate(ctx, rt)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create recurring template", "name", rt.Name, "error", err)
		return 0, core.StoreFailure("create template", err)
	}
	slog.InfoContext(ctx, "Recurring template created",
		"id", id,
		"name", rt.Name,
		"frequency", rt.Frequency,
		"next_date", rt.NextOccurrence.String())
	return id, nil
}

// UpdateTemplate applies the recognised fields to template id. Unknown field
// names are ignored. It reports false with ErrNotFound for a missing id.
func (e *RecurringEngine) UpdateTemplate(ctx context.Context, id int64, fields map[string]string) (bool, error) {
	rt, err := e.store.GetTemplate(ctx, id)
	if err != nil {
		return false, core.StoreFailure("get template", err)
	}

	for key, value := range fields {
		applied, err := applyTemplateField(&rt, key, value)
		if err != nil {
			return false, core.Invalid(fmt.Errorf("field %s: %w", key, err))
		}
		if !applied {
			slog.DebugContext(ctx, "Ignoring unknown template field", "id", id, "field", key)
		}
	}

	if err := e.store.UpdateTemplate(ctx, rt); err != nil {
		slog.ErrorContext(ctx, "Failed to update recurring template", "id", id, "error", err)
		return false, core.StoreFailure("update template", err)
	}
	return true, nil
}

// Deactivate soft-deletes template id so it never fires again.
func (e *RecurringEngine) Deactivate(ctx context.Context, id int64) (bool, error) {
	rt, err := e.store.GetTemplate(ctx, id)
	if err != nil {
		return false, core.StoreFailure("get template", err)
	}
	rt.Active = false
	if err := e.store.UpdateTemplate(ctx, rt); err != nil {
		slog.ErrorContext(ctx, "Failed to deactivate recurring template", "id", id, "error", err)
		return false, core.StoreFailure("deactivate template", err)
	}
	slog.InfoContext(ctx, "Recurring template deactivated", "id", id, "name", rt.Name)
	return true, nil
}

func applyTemplateField(rt *core.RecurringTemplate, key, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "name":
		if strings.TrimSpace(value) == "" {
			return true, core.ErrEmptyName
		}
		rt.Name = value
	case "amount":
		a, err := core.ParseAmount(value)
		if err != nil {
			return true, err
		}
		rt.Amount = a
	case "type", "kind":
		k, err := core.ParseKind(value)
		if err != nil {
			return true, err
		}
		rt.Kind = k
	case "category":
		rt.Category = value
	case "notes":
		rt.Notes = value
	case "frequency":
		f, err := core.ParseFrequency(value)
		if err != nil {
			return true, err
		}
		rt.Frequency = f
	case "next_date", "next_occurrence":
		d, err := core.ParseDate(value)
		if err != nil {
			return true, err
		}
		rt.NextOccurrence = d
	case "is_active", "active":
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return true, errors.New("expected true or false")
		}
		rt.Active = b
	default:
		return false, nil
	}
	return true, nil
}
