// Command report runs one analysis over the configured sources, prints the
// summary and writes the XLSX report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"customer_insights/internal/config"
	"customer_insights/internal/customers"
	"customer_insights/internal/logger"
	"customer_insights/internal/report"
	"customer_insights/internal/sheets"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	out := flag.String("out", "customer-analysis.xlsx", "XLSX output path (empty to skip)")
	month := flag.Int("month", 0, "reference month 1-12 (overrides config)")
	percent := flag.Float64("top", -1, "top spender percentage 0-100 (overrides config)")
	flag.Parse()

	if err := run(os.Stdout, *configPath, *out, *month, *percent); err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
}

// run analyzes the configured sources. month 0 and a negative percent keep
// the configured values.
func run(stdout io.Writer, configPath, out string, month int, percent float64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()

	source, err := sheets.OpenSource(cfg.Sources.Workbook, cfg.Sources.RemoteURL, log)
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("no source configured: set sources.workbook or sources.remote_url")
	}
	defer source.Close()

	sheetNames := cfg.Sources.Sheets
	if wb, ok := source.(*sheets.Workbook); ok && len(sheetNames) == 0 {
		sheetNames = wb.Sheets()
	}

	params := cfg.Params()
	if month != 0 {
		params.ReferenceMonth = time.Month(month)
	}
	if percent >= 0 {
		params.TopPercent = percent
	}

	result, err := customers.NewService(source, log).Analyze(context.Background(), params, sheetNames...)
	if err != nil {
		return err
	}
	if err := report.WriteText(stdout, result); err != nil {
		return err
	}
	if out == "" {
		return nil
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()
	if err := report.WriteXLSX(f, result); err != nil {
		return err
	}
	log.Info("report written", zap.String("path", out), zap.String("run_id", result.RunID.String()))
	return nil
}
