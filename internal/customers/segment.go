package customers

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidReferenceMonth is returned when the reference month is outside 1-12.
var ErrInvalidReferenceMonth = errors.New("reference month must be between 1 and 12")

const (
	// RegularVisitThreshold is the visit total a customer must exceed to be regular.
	RegularVisitThreshold = 6

	// DefaultReferenceMonth is used by configuration when no month is supplied.
	DefaultReferenceMonth = time.October
)

// ValidateReferenceMonth reports whether m is a calendar month.
func ValidateReferenceMonth(m time.Month) error {
	if m < time.January || m > time.December {
		return fmt.Errorf("%w: got %d", ErrInvalidReferenceMonth, int(m))
	}
	return nil
}

// Classify assigns a segment from a customer's total visits and recency month.
// known is false when the customer has no parseable timestamp; such a
// customer never matches the reference month.
func Classify(totalVisits int, recency time.Month, known bool, ref time.Month) Segment {
	active := known && recency == ref
	switch {
	case totalVisits > RegularVisitThreshold && active:
		return ActiveRegular
	case totalVisits > RegularVisitThreshold:
		return InactiveRegular
	case active:
		return ActiveOccasional
	default:
		return InactiveOccasional
	}
}

// SegmentCustomers classifies every customer present in visits and returns the count
// per segment. Customers missing from recency are kept with unknown recency.
func SegmentCustomers(visits []VisitRecord, recency map[string]RecencyRecord, ref time.Month) (SegmentCounts, error) {
	if err := ValidateReferenceMonth(ref); err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	order := make([]string, 0)
	for _, v := range visits {
		if _, seen := totals[v.CustomerID]; !seen {
			order = append(order, v.CustomerID)
		}
		totals[v.CustomerID] += v.Visits
	}

	counts := NewSegmentCounts()
	for _, id := range order {
		rec, known := recency[id]
		counts[Classify(totals[id], rec.LastSeen.Month(), known, ref)]++
	}
	return counts, nil
}
