// Package sheets declares the outbound ports used to mirror the ledger into a spreadsheet.
package sheets

import (
	"context"

	"conti/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// AppendTransaction adds one row and returns the range it was written to.
		AppendTransaction(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// BatchWriter appends many transactions in a single request.
	BatchWriter interface {
		AppendTransactions(ctx context.Context, txs []core.Transaction) (rangeRef string, err error)
	}
)

// Header is the first row of a transactions sheet.
var Header = []string{"ID", "Date", "Type", "Category", "Amount", "Notes"}
