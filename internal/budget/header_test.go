package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyHeader(t *testing.T) {
	tests := []struct {
		text string
		want Header
		ok   bool
	}{
		{"Ist 2020", Header{TypeName: "Ist", Year: 2020, HasYear: true}, true},
		{"  Plan   2021 ", Header{TypeName: "Plan", Year: 2021, HasYear: true}, true},
		{"Plan", Header{TypeName: "Plan"}, true},
		{"Ist Vorjahr", Header{TypeName: "Ist", PriorYear: true}, true},
		{"Übertragen aus VJ 2019", Header{TypeName: "Übertragen aus VJ", Year: 2019, HasYear: true}, true},
		{"Plan 2020 Nachtrag", Header{TypeName: "Plan 2020 Nachtrag"}, true},
		{"Ergebnis2020", Header{TypeName: "Ergebnis", Year: 2020, HasYear: true}, true},
		{"", Header{}, false},
		{"   ", Header{}, false},
	}
	for _, tt := range tests {
		got, ok := ClassifyHeader(tt.text)
		assert.Equal(t, tt.ok, ok, "ClassifyHeader(%q)", tt.text)
		assert.Equal(t, tt.want, got, "ClassifyHeader(%q)", tt.text)
	}
}

func TestResolveYear(t *testing.T) {
	tests := []struct {
		header  string
		context string
		want    int
		ok      bool
	}{
		{"Ist 2020", "2030", 2020, true},
		{"Ist", "2021", 2021, true},
		{"Ist Vorjahr", "2021", 2020, true},
		{"Ist Vorjahr", " 2021 ", 2020, true},
		{"Ist", "", 0, false},
		{"Ist Vorjahr", "  ", 0, false},
		{"", "2020", 0, false},
	}
	for _, tt := range tests {
		got, ok, err := ResolveYear(tt.header, tt.context)
		require.NoError(t, err)
		assert.Equal(t, tt.ok, ok, "ResolveYear(%q, %q)", tt.header, tt.context)
		assert.Equal(t, tt.want, got, "ResolveYear(%q, %q)", tt.header, tt.context)
	}

	_, _, err := ResolveYear("Ist", "zwanzig")
	assert.Error(t, err)
}
