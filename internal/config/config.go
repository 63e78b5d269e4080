package config

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/budget-aggregator/budget-aggregator/internal/budget"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

// DefaultPath is the config file looked up when none is named.
const DefaultPath = "budget-aggregator.yaml"

// Config represents the top-level budget-aggregator.yaml configuration.
type Config struct {
	Columns budget.Columns `yaml:"columns"`
	Input   InputConfig    `yaml:"input"`
	Filters FiltersConfig  `yaml:"filters"`
	Output  OutputConfig   `yaml:"output"`
	Logging LoggingConfig  `yaml:"logging"`
}

// InputConfig controls how source files are decoded.
type InputConfig struct {
	CSVSeparator       string   `yaml:"csv_separator"`
	Encoding           string   `yaml:"encoding"`
	SignedMarkerColumn string   `yaml:"signed_marker_column"`
	SignedSheets       []string `yaml:"signed_sheets,omitempty"`
}

// FiltersConfig selects budgets for output.
type FiltersConfig struct {
	BudgetTypes          []string `yaml:"budget_types,omitempty"`
	Years                []string `yaml:"years,omitempty"` // "2019" or "2020-2022"
	HideDuplicateBudgets bool     `yaml:"hide_duplicate_budgets"`
	HideEmptyAccounts    bool     `yaml:"hide_empty_accounts"`
	HideEmptyBalances    bool     `yaml:"hide_empty_balances"`
	HideEmptyBudgets     bool     `yaml:"hide_empty_budgets"`
}

// OutputConfig controls CSV rendering.
type OutputConfig struct {
	Encoding       string `yaml:"encoding"`
	CurrencySuffix string `yaml:"currency_suffix"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a budget-aggregator.yaml file from disk. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault reads path, or returns defaults when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for the tab-separated municipal export.
func Default() *Config {
	return &Config{
		Columns: budget.DefaultColumns(),
		Input: InputConfig{
			CSVSeparator:       "\t",
			Encoding:           "utf-8",
			SignedMarkerColumn: "Gemeinde",
		},
		Filters: FiltersConfig{
			HideDuplicateBudgets: true,
			HideEmptyAccounts:    true,
			HideEmptyBalances:    true,
			HideEmptyBudgets:     true,
		},
		Output: OutputConfig{
			Encoding:       "utf-8",
			CurrencySuffix: " €",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports every problem in cfg at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Columns.Account == "" {
		errs = append(errs, errors.New("columns.account must not be empty"))
	}
	if c.Columns.Municipality == "" {
		errs = append(errs, errors.New("columns.municipality must not be empty"))
	}
	if c.Columns.ProductID == "" {
		errs = append(errs, errors.New("columns.product_id must not be empty"))
	}
	if utf8.RuneCountInString(c.Input.CSVSeparator) != 1 {
		errs = append(errs, fmt.Errorf("input.csv_separator must be a single character, got %q", c.Input.CSVSeparator))
	}
	if _, err := sheets.Encoding(c.Input.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("input.encoding: %w", err))
	}
	if _, err := sheets.Encoding(c.Output.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("output.encoding: %w", err))
	}
	if _, err := ParseYears(c.Filters.Years...); err != nil {
		errs = append(errs, fmt.Errorf("filters.years: %w", err))
	}
	return errors.Join(errs...)
}

// SheetOptions returns the reader options for the input section.
func (c *Config) SheetOptions() sheets.Options {
	sep, _ := utf8.DecodeRuneInString(c.Input.CSVSeparator)
	return sheets.Options{
		Separator:          sep,
		Encoding:           c.Input.Encoding,
		SignedMarkerColumn: c.Input.SignedMarkerColumn,
		SignedSheets:       c.Input.SignedSheets,
	}
}

// FilterOptions returns the pipeline options for the filters section.
func (c *Config) FilterOptions() (budget.Options, error) {
	years, err := ParseYears(c.Filters.Years...)
	if err != nil {
		return budget.Options{}, err
	}
	return budget.Options{
		BudgetTypes:          c.Filters.BudgetTypes,
		Years:                years,
		HideDuplicateBudgets: c.Filters.HideDuplicateBudgets,
		HideEmptyAccounts:    c.Filters.HideEmptyAccounts,
		HideEmptyBalances:    c.Filters.HideEmptyBalances,
		HideEmptyBudgets:     c.Filters.HideEmptyBudgets,
	}, nil
}
