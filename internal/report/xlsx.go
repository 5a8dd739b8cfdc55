package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"customer_insights/internal/customers"
)

const (
	sheetSummary     = "Summary"
	sheetSegments    = "Segments"
	sheetMonetary    = "Monetary"
	sheetTopSpenders = "Top Spenders"
	sheetActionPlan  = "Action Plan"
	sheetMonthly     = "Monthly Visits"
	sheetTrends      = "Order Trends"
)

// WriteXLSX renders r as a workbook with one sheet per table. Money is
// written as fixed two-decimal text so totals stay exact.
func WriteXLSX(w io.Writer, r *customers.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}

	summary := [][]interface{}{
		{"Run ID", r.RunID.String()},
		{"Generated At", r.GeneratedAt.Format(time.RFC3339)},
		{"Reference Month", r.ReferenceMonth.String()},
		{"Top Percent", r.TopPercent},
		{"Transactions", r.Transactions},
		{"Customers", r.Customers},
	}
	if err := writeRows(f, sheetSummary, nil, summary); err != nil {
		return err
	}

	segments := make([][]interface{}, 0, len(customers.Segments))
	for _, s := range customers.Segments {
		segments = append(segments, []interface{}{string(s), r.Segments[s]})
	}
	if err := writeRows(f, sheetSegments, []string{"Segment", "Customers"}, segments); err != nil {
		return err
	}

	if err := writeRows(f, sheetMonetary, []string{"Customer ID", "Total Monetary Value"}, monetaryRows(r.Monetary)); err != nil {
		return err
	}
	if err := writeRows(f, sheetTopSpenders, []string{"Customer ID", "Total Monetary Value"}, monetaryRows(r.TopSpenders)); err != nil {
		return err
	}

	plan := make([][]interface{}, 0, len(r.ActionPlan))
	for _, e := range r.ActionPlan {
		plan = append(plan, []interface{}{e.CustomerID, e.Total.StringFixed(2), string(e.Action)})
	}
	if err := writeRows(f, sheetActionPlan, []string{"Customer ID", "Total Monetary Value", "Action"}, plan); err != nil {
		return err
	}

	monthly := make([][]interface{}, 0, len(r.MonthlyTotals))
	for _, m := range r.MonthlyTotals {
		monthly = append(monthly, []interface{}{m.Month.String(), m.Visits})
	}
	if err := writeRows(f, sheetMonthly, []string{"Month", "Total Visits"}, monthly); err != nil {
		return err
	}

	// Hours down, weekdays across (Monday first).
	header := []string{"Hour"}
	for _, d := range weekOrder {
		header = append(header, d.String())
	}
	trends := make([][]interface{}, 0, 24)
	for h := 0; h < 24; h++ {
		row := []interface{}{h}
		for _, d := range weekOrder {
			row = append(row, r.OrderTrends[d][h])
		}
		trends = append(trends, row)
	}
	if err := writeRows(f, sheetTrends, header, trends); err != nil {
		return err
	}

	widths := []struct {
		sheet, from, to string
		width           float64
	}{
		{sheetSummary, "A", "B", 24},
		{sheetSegments, "A", "A", 22},
		{sheetMonetary, "A", "A", 40},
		{sheetTopSpenders, "A", "A", 40},
		{sheetActionPlan, "A", "A", 40},
		{sheetActionPlan, "C", "C", 46},
	}
	for _, cw := range widths {
		if err := f.SetColWidth(cw.sheet, cw.from, cw.to, cw.width); err != nil {
			return fmt.Errorf("sheet %s width: %w", cw.sheet, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

var weekOrder = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}

func monetaryRows(recs []customers.MonetaryRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, []interface{}{rec.CustomerID, rec.Total.StringFixed(2)})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, header []string, rows [][]interface{}) error {
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	line := 1
	if header != nil {
		values := make([]interface{}, len(header))
		for i, h := range header {
			values[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
			return err
		}
		line++
	}
	for _, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, line, err)
		}
		line++
	}
	return nil
}
