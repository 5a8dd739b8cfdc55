package customers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// failingSource fails for one source name and delegates the rest.
type failingSource struct {
	*MemorySource
	fail string
}

func (f failingSource) Load(ctx context.Context, name string) ([]Transaction, error) {
	if name == f.fail {
		return nil, fmt.Errorf("sheet %q unavailable", name)
	}
	return f.MemorySource.Load(ctx, name)
}

func twoLocations(t *testing.T) *MemorySource {
	t.Helper()
	src := NewMemorySource()
	var cafe []Transaction
	for day := 1; day <= 7; day++ {
		cafe = append(cafe, Transaction{PaidDate: fmt.Sprintf("10/%02d/24 9:00 AM", day), Amount: "15.00", Type: "Credit", CardDigits: "1234"})
	}
	cafe = append(cafe, Transaction{PaidDate: "09/15/24 2:00 PM", Amount: "600", Type: "Credit", CardDigits: "5678"})
	require.NoError(t, src.Set("Cafe", cafe))
	require.NoError(t, src.Set("Bakery", []Transaction{
		{PaidDate: "08/20/24 5:00 PM", Amount: "75.00", Type: "Cash"},
		{PaidDate: "10/02/24 8:00 AM", Amount: "1001", Type: "Credit", CardDigits: "5678"},
	}))
	return src
}

// TestNewService checks service initialization.
func TestNewService(t *testing.T) {
	svc := NewService(NewMemorySource(), zaptest.NewLogger(t))

	if svc == nil {
		t.Fatal("NewService returned nil")
	}
	if svc.source == nil {
		t.Error("Service source was not initialized")
	}
	if svc.logger == nil {
		t.Error("Service logger was not initialized")
	}

	if NewService(nil, nil).logger == nil {
		t.Error("Service logger should default when nil")
	}
}

func TestAnalyze_CombinesSources(t *testing.T) {
	svc := NewService(twoLocations(t), zaptest.NewLogger(t))

	report, err := svc.Analyze(context.Background(), Params{ReferenceMonth: time.October, TopPercent: 40}, "Cafe", "Bakery")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, report.RunID)
	assert.Equal(t, 10, report.Transactions)
	assert.Equal(t, 3, report.Customers)
	assert.Equal(t, SegmentCounts{
		ActiveRegular:      1,
		InactiveRegular:    0,
		ActiveOccasional:   1,
		InactiveOccasional: 1,
	}, report.Segments)
	assert.Equal(t, report.Customers, report.Segments.Total())

	require.Len(t, report.TopSpenders, 1)
	assert.Equal(t, "5678", report.TopSpenders[0].CustomerID)
	assert.Equal(t, ActionVIP, report.ActionPlan[0].Action)
	assert.Equal(t, 1, report.ActionCounts[ActionVIP])
	assert.Equal(t, 1, report.ActionCounts[ActionRetention])
	assert.Equal(t, 1, report.ActionCounts[ActionEngagement])
	assert.Equal(t, []MonthTotal{
		{Month: time.August, Visits: 1},
		{Month: time.September, Visits: 1},
		{Month: time.October, Visits: 8},
	}, report.MonthlyTotals)
}

func TestAnalyze_IngestionFailureFailsRun(t *testing.T) {
	src := failingSource{MemorySource: twoLocations(t), fail: "Bakery"}
	svc := NewService(src, zaptest.NewLogger(t))

	report, err := svc.Analyze(context.Background(), Params{ReferenceMonth: time.October, TopPercent: 10}, "Cafe", "Bakery")

	assert.Nil(t, report)
	assert.True(t, errors.Is(err, ErrIngestion))
}

func TestAnalyze_UnknownSource(t *testing.T) {
	svc := NewService(twoLocations(t), zaptest.NewLogger(t))

	_, err := svc.Analyze(context.Background(), Params{ReferenceMonth: time.October}, "Cafe", "Diner")

	assert.True(t, errors.Is(err, ErrIngestion))
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestAnalyze_RejectsBadParamsAndNoSources(t *testing.T) {
	svc := NewService(twoLocations(t), zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := svc.Analyze(ctx, Params{ReferenceMonth: 0, TopPercent: 10}, "Cafe")
	assert.True(t, errors.Is(err, ErrInvalidReferenceMonth))

	_, err = svc.Analyze(ctx, Params{ReferenceMonth: time.May, TopPercent: 101}, "Cafe")
	assert.True(t, errors.Is(err, ErrInvalidPercent))

	_, err = svc.Analyze(ctx, Params{ReferenceMonth: time.May, TopPercent: 10})
	assert.True(t, errors.Is(err, ErrNoSources))
}

func TestAnalyzeTransactions_Empty(t *testing.T) {
	svc := NewService(nil, zaptest.NewLogger(t))

	report, err := svc.AnalyzeTransactions(Params{ReferenceMonth: time.October, TopPercent: 10}, nil)
	require.NoError(t, err)

	assert.Equal(t, NewSegmentCounts(), report.Segments)
	assert.Empty(t, report.Monetary)
	assert.Empty(t, report.TopSpenders)
	assert.Empty(t, report.ActionPlan)
	assert.Equal(t, 0, report.Customers)
}

func TestAnalyzeTransactions_UndatedCustomerIsInactive(t *testing.T) {
	svc := NewService(nil, zaptest.NewLogger(t))
	rows := []Transaction{
		{PaidDate: "someday", Amount: "5", Type: "Credit", CardDigits: "4321"},
		{PaidDate: "10/01/24 9:00 AM", Amount: "5", Type: "Credit", CardDigits: "1234"},
	}

	report, err := svc.AnalyzeTransactions(Params{ReferenceMonth: time.October}, rows)
	require.NoError(t, err)

	// 4321 has no parseable visit so it is not in the visit data at all.
	assert.Equal(t, 1, report.Segments.Total())
	assert.Equal(t, 1, report.Segments[ActiveOccasional])
	assert.Equal(t, 2, report.Customers)
}

func TestAnalyzeTransactions_DoesNotAliasInput(t *testing.T) {
	svc := NewService(nil, zaptest.NewLogger(t))
	rows := []Transaction{{PaidDate: "10/01/24 9:00 AM", Amount: "5", Type: "Credit", CardDigits: "1234"}}

	first, err := svc.AnalyzeTransactions(Params{ReferenceMonth: time.October}, rows)
	require.NoError(t, err)
	rows[0].CardDigits = "9999"
	second, err := svc.AnalyzeTransactions(Params{ReferenceMonth: time.October}, rows)
	require.NoError(t, err)

	assert.Equal(t, "1234", first.Monetary[0].CustomerID)
	assert.Equal(t, "9999", second.Monetary[0].CustomerID)
	assert.NotEqual(t, first.RunID, second.RunID)
}
