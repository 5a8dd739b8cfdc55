package report

import (
	"fmt"
	"io"
	"strings"

	"customer_insights/internal/customers"
)

// planPreview is how many action-plan rows the text summary shows.
const planPreview = 5

// WriteText prints the summary report: segment counts, top spenders and the
// head of the action plan.
func WriteText(w io.Writer, r *customers.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "--- Summary Report ---\n")
	fmt.Fprintf(&b, "Run %s  reference month %s  %d transactions  %d customers\n\n",
		r.RunID, r.ReferenceMonth, r.Transactions, r.Customers)

	b.WriteString("Customer Categories:\n")
	for _, s := range customers.Segments {
		fmt.Fprintf(&b, "  %-20s %d\n", s, r.Segments[s])
	}

	fmt.Fprintf(&b, "\nTop-Spending Customers (%g%%):\n", r.TopPercent)
	if len(r.TopSpenders) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, rec := range r.TopSpenders {
		fmt.Fprintf(&b, "  %-40s %s\n", rec.CustomerID, rec.Total.StringFixed(2))
	}

	b.WriteString("\nAction Plans:\n")
	for i, e := range r.ActionPlan {
		if i == planPreview {
			fmt.Fprintf(&b, "  ... %d more\n", len(r.ActionPlan)-planPreview)
			break
		}
		fmt.Fprintf(&b, "  %-40s %10s  %s\n", e.CustomerID, e.Total.StringFixed(2), e.Action)
	}

	b.WriteString("\nAction Plan Distribution:\n")
	for _, a := range customers.Actions {
		fmt.Fprintf(&b, "  %-46s %d\n", a, r.ActionCounts[a])
	}

	_, err := io.WriteString(w, b.String())
	return err
}
