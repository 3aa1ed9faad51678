package exchange

import (
	"encoding/json"
	"io"
	"time"

	"conti/internal/core"
)

type jsonTransaction struct {
	ID       int64       `json:"id"`
	Date     string      `json:"date"`
	Amount   json.Number `json:"amount"`
	Type     core.Kind   `json:"type"`
	Category string      `json:"category"`
	Notes    string      `json:"notes"`
}

type jsonExport struct {
	ExportDate   string            `json:"export_date"`
	Transactions []jsonTransaction `json:"transactions"`
}

// ExportJSON writes txs as an indented document stamped with now.
func ExportJSON(w io.Writer, txs []core.Transaction, now time.Time) error {
	doc := jsonExport{
		ExportDate:   now.Format(time.RFC3339),
		Transactions: make([]jsonTransaction, 0, len(txs)),
	}
	for _, t := range txs {
		doc.Transactions = append(doc.Transactions, jsonTransaction{
			ID:       t.ID,
			Date:     t.Date.String(),
			Amount:   json.Number(t.Amount.String()),
			Type:     t.Kind,
			Category: t.Category,
			Notes:    t.Notes,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
