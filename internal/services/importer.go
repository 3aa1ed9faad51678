package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"conti/internal/core"
	"conti/internal/exchange"
	"conti/internal/ledger"
)

// Importer loads transactions from files into the ledger.
type Importer struct {
	store ledger.Store
	// OnRow, when set, is called after each row is persisted.
	OnRow func(done, total int)
}

func NewImporter(store ledger.Store) *Importer {
	return &Importer{store: store}
}

// ImportCSV parses r and inserts every valid row in one unit of work.
// It returns how many rows were imported and how many were skipped.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	res, err := exchange.ImportCSV(r)
	if err != nil {
		return 0, 0, core.Invalid(fmt.Errorf("parse csv: %w", err))
	}

	total := len(res.Transactions)
	err = im.store.WithinTx(ctx, func(tx ledger.Store) error {
		for i, t := range res.Transactions {
			if _, err := tx.InsertTransaction(ctx, t); err != nil {
				return fmt.Errorf("insert row %d: %w", i+1, err)
			}
			if im.OnRow != nil {
				im.OnRow(i+1, total)
			}
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "CSV import rolled back", "error", err)
		return 0, res.Skipped, core.StoreFailure("import csv", err)
	}

	slog.InfoContext(ctx, "CSV import complete",
		"imported", total,
		"skipped", res.Skipped)
	return total, res.Skipped, nil
}
