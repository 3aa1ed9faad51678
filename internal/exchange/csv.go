// Package exchange moves transactions in and out of the ledger as files.
package exchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"conti/internal/core"
)

// Header is the column layout written by ExportCSV.
var Header = []string{"id", "date", "amount", "type", "category", "notes"}

// ImportResult holds the rows that parsed and how many were dropped.
type ImportResult struct {
	Transactions []core.Transaction
	Skipped      int
}

// ExportCSV writes txs with a header row.
func ExportCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		rec := []string{
			strconv.FormatInt(t.ID, 10),
			t.Date.String(),
			t.Amount.String(),
			string(t.Kind),
			t.Category,
			t.Notes,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write transaction %d: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV parses transactions from a CSV with a header row. Columns are
// matched by name in any order; the id column is ignored. Rows without a
// date, amount or type, or with a value that does not parse, are skipped.
func ImportCSV(r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, nil
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		cols[name] = i
	}

	var res ImportResult
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", len(res.Transactions)+res.Skipped+2, err)
		}

		t, ok := parseRow(rec, cols)
		if !ok {
			res.Skipped++
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res, nil
}

func field(rec []string, cols map[string]int, name string) (string, bool) {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return rec[i], true
}

func parseRow(rec []string, cols map[string]int) (core.Transaction, bool) {
	rawDate, ok := field(rec, cols, "date")
	if !ok || strings.TrimSpace(rawDate) == "" {
		return core.Transaction{}, false
	}
	rawAmount, ok := field(rec, cols, "amount")
	if !ok || strings.TrimSpace(rawAmount) == "" {
		return core.Transaction{}, false
	}
	rawKind, ok := field(rec, cols, "type")
	if !ok || strings.TrimSpace(rawKind) == "" {
		return core.Transaction{}, false
	}

	date, err := core.ParseDate(rawDate)
	if err != nil {
		return core.Transaction{}, false
	}
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return core.Transaction{}, false
	}
	kind, err := core.ParseKind(rawKind)
	if err != nil {
		return core.Transaction{}, false
	}

	category, _ := field(rec, cols, "category")
	notes, _ := field(rec, cols, "notes")

	return core.Transaction{
		Date:     date,
		Amount:   amount,
		Kind:     kind,
		Category: category,
		Notes:    notes,
	}, true
}
