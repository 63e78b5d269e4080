package sheets

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var haushaltXLS = filepath.Join("..", "..", "testdata", "haushalt.xls")

func TestOpenXLS(t *testing.T) {
	f, err := OpenXLS(haushaltXLS, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "haushalt.xls", f.Name)
	require.Len(t, f.Sheets, 2)

	s := f.Sheets[0]
	assert.Equal(t, "Haushalt", s.Name)
	assert.Equal(t, []string{"GKZ", "HHJ", "Budget", "Bezeichnung Budget", "Bezeichnung Position", "Plan", "Ist"}, s.Header)
	assert.True(t, s.ApplySign)

	require.Len(t, s.Rows, 3)
	assert.Equal(t, []string{"8111000", "2020", "11100", "Verwaltung", "4010000 Grundsteuer A", "1050", "1000.5"}, s.Rows[0].Cells)
	assert.Equal(t, 2, s.Rows[0].Number)
	assert.Empty(t, s.Rows[1].Cells, "missing row keeps its place")
	assert.Equal(t, 3, s.Rows[1].Number)
	assert.Equal(t, 4, s.Rows[2].Number)
	assert.Equal(t, "5010000 Personalaufwand", s.Rows[2].Cells[4])

	overview := f.Sheets[1]
	assert.Equal(t, "Übersicht", overview.Name)
	assert.False(t, overview.ApplySign, "marker column disables sign application")
	assert.Len(t, overview.Rows, 1)
}

func TestOpenXLSSignedSheets(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{"haushalt.xls:Haushalt", false},
		{"*.xls", false},
		{"haushalt.xls:Plan*", true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			opts := DefaultOptions()
			opts.SignedSheets = []string{tt.pattern}

			f, err := OpenXLS(haushaltXLS, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Sheets[0].ApplySign)
		})
	}
}

func TestOpenXLSMissingFile(t *testing.T) {
	_, err := OpenXLS(filepath.Join(t.TempDir(), "fehlt.xls"), DefaultOptions())
	assert.Error(t, err)
}
