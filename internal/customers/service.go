package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrIngestion wraps any failure to load a requested source.
var ErrIngestion = errors.New("ingestion failed")

// ErrNoSources is returned when Analyze is called without source names.
var ErrNoSources = errors.New("no sources requested")

// Params are the caller-supplied settings of one analysis run.
type Params struct {
	ReferenceMonth time.Month
	TopPercent     float64
}

// Validate checks both settings are within range.
func (p Params) Validate() error {
	if err := ValidateReferenceMonth(p.ReferenceMonth); err != nil {
		return err
	}
	return ValidatePercent(p.TopPercent)
}

// Service runs customer analyses over transactions pulled from a Source.
type Service struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	return &Service{
		source: source,
		logger: logger,
		now:    time.Now,
	}
}

// Analyze loads every named source, concatenates them in the given order and
// runs the analysis. If any source fails the whole run fails.
func (s *Service) Analyze(ctx context.Context, params Params, names ...string) (*Report, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrNoSources
	}
	if s.source == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrIngestion)
	}

	tables := make([][]Transaction, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			rows, err := s.source.Load(gctx, name)
			if err != nil {
				return fmt.Errorf("%w: source %q: %w", ErrIngestion, name, err)
			}
			tables[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load sources", zap.Strings("sources", names), zap.Error(err))
		return nil, err
	}

	var all []Transaction
	for i, rows := range tables {
		s.logger.Debug("source loaded", zap.String("source", names[i]), zap.Int("rows", len(rows)))
		all = append(all, rows...)
	}
	return s.AnalyzeTransactions(params, all)
}

// AnalyzeTransactions runs both branches of the analysis over a private copy of txs.
func (s *Service) AnalyzeTransactions(params Params, txs []Transaction) (*Report, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	working := make([]Transaction, len(txs))
	copy(working, txs)
	resolved := ResolveAll(working)

	visits := MonthlyVisits(resolved)
	recency := Recency(resolved)
	segments, err := SegmentCustomers(visits, recency, params.ReferenceMonth)
	if err != nil {
		return nil, err
	}

	scorer := NewMonetaryScorer(resolved)
	scorer.Compute()
	table, err := scorer.Table()
	if err != nil {
		return nil, err
	}
	top, err := scorer.TopSpenders(params.TopPercent)
	if err != nil {
		return nil, err
	}
	plan, err := scorer.ActionPlan()
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:          uuid.New(),
		GeneratedAt:    s.now(),
		ReferenceMonth: params.ReferenceMonth,
		TopPercent:     params.TopPercent,
		Transactions:   len(working),
		Customers:      len(table),
		Segments:       segments,
		MonthlyTotals:  MonthlyTotals(visits),
		OrderTrends:    OrderTrends(resolved),
		Monetary:       table,
		TopSpenders:    top,
		ActionPlan:     plan,
		ActionCounts:   ActionCounts(plan),
	}

	if undated := len(working) - countVisits(visits); undated > 0 || scorer.Skipped() > 0 {
		s.logger.Debug("malformed fields skipped",
			zap.String("run_id", report.RunID.String()),
			zap.Int("undated_rows", undated),
			zap.Int("non_numeric_amounts", scorer.Skipped()),
		)
	}
	s.logger.Info("analysis completed",
		zap.String("run_id", report.RunID.String()),
		zap.Int("transactions", report.Transactions),
		zap.Int("customers", report.Customers),
		zap.Int("reference_month", int(params.ReferenceMonth)),
		zap.Any("segments", segments),
	)
	return report, nil
}

func countVisits(visits []VisitRecord) int {
	n := 0
	for _, v := range visits {
		n += v.Visits
	}
	return n
}
