package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"customer_insights/internal/customers"
)

const envPrefix = "INSIGHTS_"

// Config is the runtime configuration of the server and the report command.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Sources  SourcesConfig  `yaml:"sources"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

// AnalysisConfig holds the defaults used when a caller does not supply them.
type AnalysisConfig struct {
	ReferenceMonth int     `yaml:"reference_month"`
	TopPercent     float64 `yaml:"top_percent"`
}

// SourcesConfig says where transactions come from. Workbook and RemoteURL are
// mutually exclusive; Sheets names the worksheets to combine.
type SourcesConfig struct {
	Workbook  string   `yaml:"workbook"`
	RemoteURL string   `yaml:"remote_url"`
	Sheets    []string `yaml:"sheets"`
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8081"},
		Log:      LogConfig{Mode: "production"},
		Analysis: AnalysisConfig{ReferenceMonth: int(customers.DefaultReferenceMonth), TopPercent: 10},
	}
}

// Load reads the YAML file at path (skipped when path is empty), applies
// INSIGHTS_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	get := func(name string) string { return strings.TrimSpace(getenv(envPrefix + name)) }

	if v := get("ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := get("LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := get("REFERENCE_MONTH"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREFERENCE_MONTH: %w", envPrefix, err)
		}
		c.Analysis.ReferenceMonth = m
	}
	if v := get("TOP_PERCENT"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sTOP_PERCENT: %w", envPrefix, err)
		}
		c.Analysis.TopPercent = p
	}
	if v := get("WORKBOOK"); v != "" {
		c.Sources.Workbook = v
	}
	if v := get("REMOTE_URL"); v != "" {
		c.Sources.RemoteURL = v
	}
	if v := get("SHEETS"); v != "" {
		c.Sources.Sheets = nil
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				c.Sources.Sheets = append(c.Sources.Sheets, name)
			}
		}
	}
	return nil
}

// Validate checks value ranges and source settings.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if c.Sources.Workbook != "" && c.Sources.RemoteURL != "" {
		return errors.New("sources: workbook and remote_url are mutually exclusive")
	}
	return nil
}

// Params converts the analysis defaults into run parameters.
func (c *Config) Params() customers.Params {
	return customers.Params{
		ReferenceMonth: time.Month(c.Analysis.ReferenceMonth),
		TopPercent:     c.Analysis.TopPercent,
	}
}
