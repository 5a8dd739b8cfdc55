package customers

import (
	"sort"
	"strings"
	"time"
)

// timestampLayouts are tried in order. The first one is the export format of
// the point-of-sale sheets. US layouts use "1/2" so both padded and unpadded
// month and day parse.
var timestampLayouts = []string{
	"1/2/06 3:04 PM",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"2006-01-02",
}

// ParseTimestamp parses a raw paid-date cell. ok is false when no layout matches.
func ParseTimestamp(raw string) (t time.Time, ok bool) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

type visitKey struct {
	customerID string
	month      time.Month
}

// MonthlyVisits counts transactions per customer and calendar month, ignoring
// the year. Rows with an unparseable timestamp are skipped. The result is
// sorted by customer then month, but callers should not depend on it.
func MonthlyVisits(resolved []ResolvedTransaction) []VisitRecord {
	counts := make(map[visitKey]int)
	for _, tx := range resolved {
		ts, ok := ParseTimestamp(tx.PaidDate)
		if !ok {
			continue
		}
		counts[visitKey{customerID: tx.CustomerID, month: ts.Month()}]++
	}

	visits := make([]VisitRecord, 0, len(counts))
	for k, n := range counts {
		visits = append(visits, VisitRecord{CustomerID: k.customerID, Month: k.month, Visits: n})
	}
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].CustomerID != visits[j].CustomerID {
			return visits[i].CustomerID < visits[j].CustomerID
		}
		return visits[i].Month < visits[j].Month
	})
	return visits
}

// Recency returns the latest parsed timestamp per customer. Customers with no
// parseable timestamp are left out.
func Recency(resolved []ResolvedTransaction) map[string]RecencyRecord {
	latest := make(map[string]RecencyRecord)
	for _, tx := range resolved {
		ts, ok := ParseTimestamp(tx.PaidDate)
		if !ok {
			continue
		}
		if cur, seen := latest[tx.CustomerID]; !seen || ts.After(cur.LastSeen) {
			latest[tx.CustomerID] = RecencyRecord{CustomerID: tx.CustomerID, LastSeen: ts}
		}
	}
	return latest
}

// MonthlyTotals sums visits per calendar month across customers, in month order.
func MonthlyTotals(visits []VisitRecord) []MonthTotal {
	byMonth := make(map[time.Month]int)
	for _, v := range visits {
		byMonth[v.Month] += v.Visits
	}
	totals := make([]MonthTotal, 0, len(byMonth))
	for m := time.January; m <= time.December; m++ {
		if n, ok := byMonth[m]; ok {
			totals = append(totals, MonthTotal{Month: m, Visits: n})
		}
	}
	return totals
}

// OrderTrends counts orders by weekday and hour over parseable timestamps.
func OrderTrends(resolved []ResolvedTransaction) TrendGrid {
	var grid TrendGrid
	for _, tx := range resolved {
		ts, ok := ParseTimestamp(tx.PaidDate)
		if !ok {
			continue
		}
		grid[ts.Weekday()][ts.Hour()]++
	}
	return grid
}
