package sheets

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"customer_insights/internal/customers"
)

// ErrMissingColumn is returned when a table lacks a required header.
var ErrMissingColumn = errors.New("missing required column")

type column int

const (
	colPaidDate column = iota
	colAmount
	colType
	colCardDigits
	numColumns
)

// headerAliases lists the accepted header spellings per column, compared
// case-insensitively after trimming.
var headerAliases = [numColumns][]string{
	colPaidDate:   {"paid date", "timestamp", "date"},
	colAmount:     {"amount"},
	colType:       {"type", "payment type"},
	colCardDigits: {"last 4 card digits", "card suffix", "card digits"},
}

var columnNames = [numColumns]string{"Paid Date", "Amount", "Type", "Last 4 Card Digits"}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func matchColumn(header string) (column, bool) {
	h := normalizeHeader(header)
	for c, aliases := range headerAliases {
		for _, alias := range aliases {
			if h == alias {
				return column(c), true
			}
		}
	}
	return 0, false
}

// tableTransactions converts a header row plus data rows into transactions.
// The card column is optional; rows with every cell blank are skipped.
func tableTransactions(rows [][]string) ([]customers.Transaction, error) {
	if len(rows) == 0 {
		return []customers.Transaction{}, nil
	}

	idx := [numColumns]int{-1, -1, -1, -1}
	for i, h := range rows[0] {
		if c, ok := matchColumn(h); ok && idx[c] == -1 {
			idx[c] = i
		}
	}
	for _, c := range []column{colPaidDate, colAmount, colType} {
		if idx[c] == -1 {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, columnNames[c])
		}
	}

	txs := make([]customers.Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		cell := func(c column) string {
			if i := idx[c]; i >= 0 && i < len(row) {
				return row[i]
			}
			return ""
		}
		txs = append(txs, customers.Transaction{
			PaidDate:   cell(colPaidDate),
			Amount:     cell(colAmount),
			Type:       cell(colType),
			CardDigits: cell(colCardDigits),
		})
	}
	return txs, nil
}

// recordTransactions converts header-keyed records into transactions. When a
// record carries several aliases of one column, the alias listed first in
// headerAliases wins; keys that normalize alike resolve in sorted key order.
func recordTransactions(records []map[string]string) ([]customers.Transaction, error) {
	txs := make([]customers.Transaction, 0, len(records))
	for n, rec := range records {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		normalized := make(map[string]string, len(rec))
		for _, k := range keys {
			if h := normalizeHeader(k); h != "" {
				if _, dup := normalized[h]; !dup {
					normalized[h] = rec[k]
				}
			}
		}

		var fields [numColumns]string
		for c, aliases := range headerAliases {
			found := false
			for _, alias := range aliases {
				if v, ok := normalized[alias]; ok {
					fields[c], found = v, true
					break
				}
			}
			if !found && column(c) != colCardDigits {
				return nil, fmt.Errorf("%w: %s (record %d)", ErrMissingColumn, columnNames[c], n)
			}
		}
		txs = append(txs, customers.Transaction{
			PaidDate:   fields[colPaidDate],
			Amount:     fields[colAmount],
			Type:       fields[colType],
			CardDigits: fields[colCardDigits],
		})
	}
	return txs, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
