package commands_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/budget-aggregator/budget-aggregator/internal/commands"
	"github.com/budget-aggregator/budget-aggregator/internal/config"
)

func testdata(name string) string {
	return filepath.Join("..", "..", "testdata", name)
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(commands.EnvConfig, "")
	t.Setenv(commands.EnvLogLevel, "")

	var stdout, stderr bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, edit func(*config.Config)) string {
	t.Helper()
	cfg := config.Default()
	if edit != nil {
		edit(cfg)
	}
	path := filepath.Join(t.TempDir(), "budget-aggregator.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestAggregateToStdout(t *testing.T) {
	out, errOut, err := run(t, "aggregate", "--config", writeConfig(t, nil),
		testdata("gemeinde_a.csv"), testdata("gemeinde_b.csv"))
	require.NoError(t, err)

	want := "GKZ\tBudget\tBezeichnung Budget\tBezeichnung Position\tPlan 2020\tIst 2020\tPlan 2021\n" +
		"8111000\t11100\tVerwaltung\t4010000 Grundsteuer A\t1.050,00 €\t1.000,50 €\t1.100,00 €\n" +
		"8111000\t11100\tVerwaltung\t5010000 Personalaufwand\t-2.050,00 €\t-2.000,00 €\t-2.100,00 €\n" +
		"8111000\t31100\tSoziales\t4210000 Gebühren\t\t300,00 €\t\n"
	assert.Equal(t, want, out)
	assert.Contains(t, errOut, "aggregated 3 budgets, 3 accounts from 2 files -> -")
}

func TestAggregateFilterFlags(t *testing.T) {
	cfgPath := writeConfig(t, func(c *config.Config) {
		c.Filters.BudgetTypes = []string{"Ist"}
	})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"config filter", nil, "Ist 2020"},
		{"flag overrides config", []string{"--filter-budget-types", "Plan"}, "Plan 2020\tPlan 2021"},
		{"years", []string{"--filter-budget-types", "Plan", "--filter-years", "2021-2022"}, "Plan 2021"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"aggregate", "--quiet", "--config", cfgPath}, tt.args...)
			args = append(args, testdata("gemeinde_a.csv"))
			out, _, err := run(t, args...)
			require.NoError(t, err)
			header := strings.SplitN(out, "\n", 2)[0]
			assert.Equal(t, "GKZ\tBudget\tBezeichnung Budget\tBezeichnung Position\t"+tt.want, header)
		})
	}
}

func TestAggregateShowEmptyAccounts(t *testing.T) {
	out, _, err := run(t, "aggregate", "-q", "--config", writeConfig(t, nil),
		"--hide-empty-accounts=false", "--hide-empty-balances=false", testdata("gemeinde_a.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "6810000 Investitionszuschüsse\t0,00 €\t0,00 €\t0,00 €")
}

func TestAggregateToFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, nil)

	csvPath := filepath.Join(dir, "haushalt.csv")
	_, _, err := run(t, "aggregate", "-q", "--config", cfgPath, "-o", csvPath, testdata("gemeinde_b.csv"))
	require.NoError(t, err)
	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "4210000 Gebühren\t300,00 €")

	xlsxPath := filepath.Join(dir, "haushalt.xlsx")
	_, errOut, err := run(t, "aggregate", "--config", cfgPath, "-o", xlsxPath, testdata("gemeinde_b.csv"))
	require.NoError(t, err)
	assert.Contains(t, errOut, "-> "+xlsxPath)

	wb, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Produkte", "Konten"}, wb.GetSheetList())

	// The workbook is valid input again and keeps its signs.
	out, _, err := run(t, "aggregate", "-q", "--config", cfgPath, xlsxPath)
	require.NoError(t, err)
	assert.Contains(t, out, "5010000 Personalaufwand\t-2.000,00 €")
}

func TestAggregateDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"gemeinde_a.csv", "gemeinde_b.csv"} {
		data, err := os.ReadFile(testdata(name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	_, errOut, err := run(t, "aggregate", "--config", writeConfig(t, nil), dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "from 2 files")
}

func TestAggregateErrors(t *testing.T) {
	cfgPath := writeConfig(t, nil)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no sources", []string{"aggregate", "--config", cfgPath}, "requires at least 1 arg"},
		{"invalid amount", []string{"aggregate", "--config", cfgPath, testdata("invalid_amount.csv")}, "invalid amount"},
		{"bad years", []string{"aggregate", "--config", cfgPath, "--filter-years", "zwanzig", testdata("gemeinde_a.csv")}, "filters.years"},
		{"output format", []string{"aggregate", "--config", cfgPath, "-o", filepath.Join(t.TempDir(), "out.pdf"), testdata("gemeinde_a.csv")}, "unsupported output format"},
		{"missing config", []string{"aggregate", "--config", filepath.Join(t.TempDir(), "missing.yaml"), testdata("gemeinde_a.csv")}, "reading config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestAggregateKeepGoing(t *testing.T) {
	out, errOut, err := run(t, "aggregate", "--config", writeConfig(t, nil), "--keep-going",
		testdata("invalid_amount.csv"), testdata("gemeinde_b.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "4210000 Gebühren")
	assert.Contains(t, errOut, "skipping file")
	assert.Contains(t, errOut, "skipped "+testdata("invalid_amount.csv"))
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget-aggregator.yaml")

	out, _, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, _, err = run(t, "config", "init", path)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = run(t, "config", "init", path, "--force")
	assert.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	cfgPath := writeConfig(t, func(c *config.Config) {
		c.Columns.Account = "Konto"
	})

	out, _, err := run(t, "config", "show", "--config", cfgPath, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "account: Konto")
	assert.Contains(t, out, "level: debug")
}

func TestConfigFromEnvironment(t *testing.T) {
	cfgPath := writeConfig(t, func(c *config.Config) {
		c.Columns.Account = "Konto"
	})

	t.Setenv(commands.EnvConfig, cfgPath)
	t.Setenv(commands.EnvLogLevel, "warn")
	var stdout bytes.Buffer
	cmd := commands.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"config", "show"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "account: Konto")
	assert.Contains(t, stdout.String(), "level: warn")
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "budget-aggregator version dev")
}
