package customers

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMonetaryNotComputed is returned by MonetaryScorer queries issued before Compute.
var ErrMonetaryNotComputed = errors.New("monetary totals not yet computed: call Compute first")

// ErrInvalidPercent is returned when a top-spender percentage is outside 0-100.
var ErrInvalidPercent = errors.New("top spender percentage must be between 0 and 100")

// maxAmountExponent bounds the decimal exponent of a parsed amount. Values
// outside it are treated as non-numeric; summing them would rescale to huge
// integers.
const maxAmountExponent = 18

var (
	vipFloor       = decimal.NewFromInt(1000)
	upsellFloor    = decimal.NewFromInt(500)
	retentionFloor = decimal.NewFromInt(100)
)

// ActionFor maps a customer's total spend to its recommended action.
func ActionFor(total decimal.Decimal) Action {
	switch {
	case total.GreaterThan(vipFloor):
		return ActionVIP
	case total.GreaterThanOrEqual(upsellFloor):
		return ActionUpsell
	case total.GreaterThanOrEqual(retentionFloor):
		return ActionRetention
	default:
		return ActionEngagement
	}
}

// ParseAmount reads a raw amount cell. ok is false for blank or non-numeric text.
func ParseAmount(raw string) (amount decimal.Decimal, ok bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp < -maxAmountExponent || exp > maxAmountExponent {
		return decimal.Zero, false
	}
	return d, true
}

// ValidatePercent reports whether p is a usable top-spender percentage.
func ValidatePercent(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidPercent, p)
	}
	return nil
}

// MonetaryScorer ranks customers by total spend. Totals must be computed
// before any query; queries fail with ErrMonetaryNotComputed otherwise.
type MonetaryScorer struct {
	resolved []ResolvedTransaction
	table    []MonetaryRecord
	computed bool
	skipped  int
}

// NewMonetaryScorer creates a scorer over a resolved transaction set.
func NewMonetaryScorer(resolved []ResolvedTransaction) *MonetaryScorer {
	return &MonetaryScorer{resolved: resolved}
}

// Compute sums spend per customer and orders the table by descending total.
// Non-numeric amounts add nothing but the customer is still listed. Ties keep
// ascending customer order.
func (m *MonetaryScorer) Compute() {
	totals := make(map[string]decimal.Decimal)
	m.skipped = 0
	for _, tx := range m.resolved {
		amount, ok := ParseAmount(tx.Amount)
		if !ok {
			m.skipped++
		}
		totals[tx.CustomerID] = totals[tx.CustomerID].Add(amount)
	}

	table := make([]MonetaryRecord, 0, len(totals))
	for id, total := range totals {
		table = append(table, MonetaryRecord{CustomerID: id, Total: total})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].CustomerID < table[j].CustomerID })
	sort.SliceStable(table, func(i, j int) bool { return table[i].Total.GreaterThan(table[j].Total) })

	m.table = table
	m.computed = true
}

// Computed reports whether Compute has run.
func (m *MonetaryScorer) Computed() bool {
	return m.computed
}

// Skipped is the number of amounts that could not be parsed during Compute.
func (m *MonetaryScorer) Skipped() int {
	return m.skipped
}

// Table returns a copy of the ranked monetary table.
func (m *MonetaryScorer) Table() ([]MonetaryRecord, error) {
	if !m.computed {
		return nil, ErrMonetaryNotComputed
	}
	out := make([]MonetaryRecord, len(m.table))
	copy(out, m.table)
	return out, nil
}

// TopSpenders returns the first floor(N*p/100) rows of the ranked table.
func (m *MonetaryScorer) TopSpenders(p float64) ([]MonetaryRecord, error) {
	if !m.computed {
		return nil, ErrMonetaryNotComputed
	}
	if err := ValidatePercent(p); err != nil {
		return nil, err
	}
	n := int(math.Floor(float64(len(m.table)) * p / 100))
	out := make([]MonetaryRecord, n)
	copy(out, m.table[:n])
	return out, nil
}

// ActionPlan attaches the recommended action to every row of the ranked table.
func (m *MonetaryScorer) ActionPlan() ([]ActionPlanEntry, error) {
	if !m.computed {
		return nil, ErrMonetaryNotComputed
	}
	plan := make([]ActionPlanEntry, len(m.table))
	for i, rec := range m.table {
		plan[i] = ActionPlanEntry{CustomerID: rec.CustomerID, Total: rec.Total, Action: ActionFor(rec.Total)}
	}
	return plan, nil
}

// ActionCounts tallies customers per action; every action is present.
func ActionCounts(plan []ActionPlanEntry) map[Action]int {
	counts := make(map[Action]int, len(Actions))
	for _, a := range Actions {
		counts[a] = 0
	}
	for _, e := range plan {
		counts[e.Action]++
	}
	return counts
}
