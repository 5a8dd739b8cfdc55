package customers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is one payment event as it arrived from a source. Every field
// is the verbatim cell text; an empty string means the cell was absent.
type Transaction struct {
	PaidDate   string `json:"paid_date"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
	CardDigits string `json:"card_digits"`
}

// ResolvedTransaction is a Transaction tagged with the customer it was
// attributed to.
type ResolvedTransaction struct {
	Transaction
	CustomerID string `json:"customer_id"`
}

// VisitRecord counts the transactions of one customer in one calendar month.
type VisitRecord struct {
	CustomerID string     `json:"customer_id"`
	Month      time.Month `json:"month"`
	Visits     int        `json:"visits"`
}

// RecencyRecord holds the latest parsed timestamp seen for a customer.
type RecencyRecord struct {
	CustomerID string    `json:"customer_id"`
	LastSeen   time.Time `json:"last_seen"`
}

// Segment is a behavioral category derived from visit frequency and recency.
type Segment string

const (
	ActiveRegular      Segment = "Active Regular"
	InactiveRegular    Segment = "Inactive Regular"
	ActiveOccasional   Segment = "Active Occasional"
	InactiveOccasional Segment = "Inactive Occasional"
)

// Segments lists every segment in reporting order.
var Segments = []Segment{ActiveRegular, InactiveRegular, ActiveOccasional, InactiveOccasional}

// SegmentCounts maps each segment to the number of customers assigned to it.
type SegmentCounts map[Segment]int

// NewSegmentCounts returns counts with every segment present at zero.
func NewSegmentCounts() SegmentCounts {
	counts := make(SegmentCounts, len(Segments))
	for _, s := range Segments {
		counts[s] = 0
	}
	return counts
}

// Total returns the number of customers across all segments.
func (c SegmentCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Action is a recommendation attached to a monetary band.
type Action string

const (
	ActionVIP        Action = "VIP Treatment: Personalized Offers"
	ActionUpsell     Action = "Upselling: Discounts on Larger Purchases"
	ActionRetention  Action = "Retention: Loyalty Rewards"
	ActionEngagement Action = "Engagement: Marketing Emails or Social Media"
)

// Actions lists every action from the highest band to the lowest.
var Actions = []Action{ActionVIP, ActionUpsell, ActionRetention, ActionEngagement}

// MonetaryRecord is the total spend of one customer.
type MonetaryRecord struct {
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
}

// ActionPlanEntry pairs a customer's total spend with its recommended action.
type ActionPlanEntry struct {
	CustomerID string          `json:"customer_id"`
	Total      decimal.Decimal `json:"total"`
	Action     Action          `json:"action"`
}

// MonthTotal is the number of visits recorded in a calendar month across all customers.
type MonthTotal struct {
	Month  time.Month `json:"month"`
	Visits int        `json:"visits"`
}

// TrendGrid counts orders by weekday (Sunday first) and hour of day.
type TrendGrid [7][24]int

// Report is everything one analysis run produces.
type Report struct {
	RunID          uuid.UUID         `json:"run_id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	ReferenceMonth time.Month        `json:"reference_month"`
	TopPercent     float64           `json:"top_percent"`
	Transactions   int               `json:"transactions"`
	Customers      int               `json:"customers"`
	Segments       SegmentCounts     `json:"segments"`
	MonthlyTotals  []MonthTotal      `json:"monthly_totals"`
	OrderTrends    TrendGrid         `json:"order_trends"`
	Monetary       []MonetaryRecord  `json:"monetary"`
	TopSpenders    []MonetaryRecord  `json:"top_spenders"`
	ActionPlan     []ActionPlanEntry `json:"action_plan"`
	ActionCounts   map[Action]int    `json:"action_counts"`
}
