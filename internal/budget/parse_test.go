package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/registry"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var defaultHeader = []string{"GKZ", "HHJ", "Budget", "Bezeichnung Budget", "Bezeichnung Position"}

func sheetOf(applySign bool, header []string, rows ...[]string) *sheets.Sheet {
	s := &sheets.Sheet{Header: header, ApplySign: applySign}
	for i, r := range rows {
		s.Rows = append(s.Rows, sheets.Row{Number: i + 2, Cells: r})
	}
	return s
}

func header(values ...string) []string {
	return append(append([]string(nil), defaultHeader...), values...)
}

func balanceOf(t *testing.T, b *model.Builder, reg *registry.Registry, municipality, product, account int) decimal.Decimal {
	t.Helper()
	a := reg.Account(reg.Product(reg.Municipality(municipality), product, ""), account, "", "")
	bal, ok := b.Balance(a)
	require.True(t, ok, "no balance for account %d in %s", account, b.Name())
	return bal.Value
}

func TestParseAppliesSign(t *testing.T) {
	reg := registry.New()
	s := sheetOf(true, header("Ist 2020", "Plan 2021"),
		[]string{"1", "2020", "100", "Schulen", "4000000 Erträge", "10", "11"},
		[]string{"1", "2020", "100", "Schulen", "5000000 Aufwand", "20", ""},
		[]string{"1", "2020", "100", "Schulen", "6000000 Einzahlung", "-3.5", "0"},
		[]string{"1", "2020", "100", "Schulen", "7000000 Auszahlung", "-3.5", "1"},
	)

	budgets, err := Parse(s, reg, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, budgets, 2)

	ist := budgets[0]
	assert.Equal(t, "Ist 2020", ist.Name())
	assert.True(t, balanceOf(t, ist, reg, 1, 100, 4_000_000).Equal(dec("10")))
	assert.True(t, balanceOf(t, ist, reg, 1, 100, 5_000_000).Equal(dec("-20")))
	assert.True(t, balanceOf(t, ist, reg, 1, 100, 6_000_000).Equal(dec("-3.5")))
	assert.True(t, balanceOf(t, ist, reg, 1, 100, 7_000_000).Equal(dec("3.5")))

	plan := budgets[1]
	assert.Equal(t, "Plan 2021", plan.Name())
	assert.Equal(t, 3, plan.Len(), "blank cell is skipped, zero is kept")

	col, _ := ist.Reference(model.ReferenceColumn)
	assert.Equal(t, "F", col)
	col, _ = plan.Reference(model.ReferenceColumn)
	assert.Equal(t, "G", col)
	year, _ := ist.Reference(model.ReferenceBudgetYear)
	assert.Equal(t, "2020", year)
}

func TestParseSignedSheet(t *testing.T) {
	reg := registry.New()
	s := sheetOf(false, header("Ist 2020"),
		[]string{"1", "", "100", "", "5000000 Aufwand", "-20"},
		[]string{"1", "", "100", "", "123 unbekannt", "5"},
	)

	budgets, err := Parse(s, reg, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, balanceOf(t, budgets[0], reg, 1, 100, 5_000_000).Equal(dec("-20")))
	assert.True(t, balanceOf(t, budgets[0], reg, 1, 100, 123).Equal(dec("5")), "unclassifiable accounts pass when no sign is applied")
}

func TestParseContextualYear(t *testing.T) {
	reg := registry.New()
	s := sheetOf(true, header("Ist", "Ist Vorjahr", "Ergebnis 2018"),
		[]string{"1", "2021", "100", "", "4000000", "1", "2", "3"},
		[]string{"1", "", "100", "", "4000001", "4", "5", "6"},
	)

	budgets, err := Parse(s, reg, DefaultColumns())
	require.NoError(t, err)

	var names []string
	for _, b := range budgets {
		names = append(names, b.Name())
	}
	assert.Equal(t, []string{"Ist 2021", "Ist 2020", "Ist 2018"}, names)
	assert.Equal(t, 1, budgets[0].Len(), "row without HHJ has no contextual year")
	assert.Equal(t, 2, budgets[2].Len())
}

func TestParseSkipsRows(t *testing.T) {
	reg := registry.New()
	s := sheetOf(true, header("", "Ist 2020", "Summe"),
		[]string{"", "2020", "100", "", "4000000", "x", "1", "9"},
		[]string{"1", "2020", "abc", "", "4000000", "x", "1", "9"},
		[]string{"1", "2020", "100", "", "Zwischensumme", "x", "1", "9"},
		[]string{"1", "2020", "100"},
		[]string{"1", "2020", "100", "", "4000000 Steuern", "not a number", "2", "9"},
	)

	budgets, err := Parse(s, reg, DefaultColumns())
	require.NoError(t, err)

	var names []string
	for _, b := range budgets {
		names = append(names, b.Name())
	}
	// "Summe" has no explicit year and takes its year from HHJ.
	assert.Equal(t, []string{"Ist 2020", "Summe 2020"}, names)
	assert.Equal(t, 1, budgets[0].Len())
	assert.True(t, balanceOf(t, budgets[0], reg, 1, 100, 4_000_000).Equal(dec("2")))
}

func TestParseNoAnchor(t *testing.T) {
	s := sheetOf(true, []string{"GKZ", "Budget", "Ist 2020"}, []string{"1", "2", "3"})
	budgets, err := Parse(s, registry.New(), DefaultColumns())
	require.NoError(t, err)
	assert.Empty(t, budgets)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		sheet   *sheets.Sheet
		target  error
		message string
	}{
		{
			name: "invalid amount",
			sheet: sheetOf(true, header("Ist 2020"),
				[]string{"1", "", "100", "", "4000000", "1"},
				[]string{"1", "", "100", "", "4000001", "1.234,56"},
			),
			target:  ErrInvalidAmount,
			message: "row 3: column F",
		},
		{
			name:    "unclassifiable account with sign",
			sheet:   sheetOf(true, header("Ist 2020"), []string{"1", "", "100", "", "123", "1"}),
			target:  model.ErrUnknownAccountType,
			message: "row 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			budgets, err := Parse(tt.sheet, registry.New(), DefaultColumns())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.message)
			assert.Nil(t, budgets, "no partial result")
		})
	}
}

func TestParseHeaderReferences(t *testing.T) {
	reg := registry.New()
	s := sheetOf(false, header("Ist 2020"), []string{"1", "2020", "100", "", "4000000", "1"})
	s.HeaderReferences = map[int]map[model.Reference]string{
		5: {model.ReferenceFileName: "quelle.csv", model.ReferenceColumn: "K"},
	}
	s.Rows[0].Comments = map[int]string{5: "geschätzt"}

	budgets, err := Parse(s, reg, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, budgets, 1)

	col, _ := budgets[0].Reference(model.ReferenceColumn)
	assert.Equal(t, "F", col, "own column is recorded first")
	file, _ := budgets[0].Reference(model.ReferenceFileName)
	assert.Equal(t, "quelle.csv", file)

	bal := budgets[0].Balances()[0]
	assert.Equal(t, "geschätzt", bal.Comment)
}

func TestParseAccountAttributes(t *testing.T) {
	reg := registry.New()
	h := append(header("Ist 2020"), "Bemerkung")
	s := sheetOf(true, h,
		[]string{"8111000", "", "11100", " Verwaltung ", " 4010000   Grundsteuer A ", "5", "aus Hebesatz"},
	)

	_, err := Parse(s, reg, DefaultColumns())
	require.NoError(t, err)

	product := reg.Product(reg.Municipality(8111000), 11100, "")
	assert.Equal(t, "Verwaltung", product.Description)
	account := reg.Account(product, 4_010_000, "", "")
	assert.Equal(t, "Grundsteuer A", account.Description)
	assert.Equal(t, "aus Hebesatz", account.Comment)
}

func TestParseSkipsKeyColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		row    []string
		want   []string
	}{
		{
			name:   "comment right of account",
			header: header("Ist 2020", "Bemerkung"),
			row:    []string{"8111000", "2020", "11100", "Verwaltung", "4010000 Grundsteuer A", "5", "aus Hebesatz"},
			want:   []string{"Ist 2020"},
		},
		{
			name:   "year right of account",
			header: []string{"GKZ", "Budget", "Bezeichnung Budget", "Bezeichnung Position", "Plan", "HHJ"},
			row:    []string{"8111000", "11100", "Verwaltung", "4010000 Grundsteuer A", "7", "2020"},
			want:   []string{"Plan 2020"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New()
			budgets, err := Parse(sheetOf(true, tt.header, tt.row), reg, DefaultColumns())
			require.NoError(t, err)

			var names []string
			for _, b := range budgets {
				names = append(names, b.Name())
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
