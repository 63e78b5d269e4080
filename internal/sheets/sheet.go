// Package sheets reads CSV and spreadsheet files into a uniform row view.
package sheets

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
)

// Options control how source files are read.
type Options struct {
	// Separator is the CSV field separator. Zero means tab.
	Separator rune
	// Encoding is the CSV character set: utf-8, iso-8859-1 or windows-1252.
	Encoding string
	// SignedMarkerColumn disables sign application for sheets whose header
	// contains this column. Files exported by this tool carry it.
	SignedMarkerColumn string
	// SignedSheets are path.Match patterns for "file" or "file:sheet" whose
	// values already carry their sign.
	SignedSheets []string
}

// DefaultOptions returns the options for tab-separated UTF-8 input.
func DefaultOptions() Options {
	return Options{
		Separator:          '\t',
		Encoding:           "utf-8",
		SignedMarkerColumn: "Gemeinde",
	}
}

// applySign reports whether values of the sheet still need the account sign.
func (o Options) applySign(fileName, sheetName string, header []string) bool {
	if o.SignedMarkerColumn != "" && columnIndex(header, o.SignedMarkerColumn) >= 0 {
		return false
	}
	for _, pattern := range o.SignedSheets {
		if ok, _ := path.Match(pattern, fileName); ok {
			return false
		}
		if sheetName == "" {
			continue
		}
		if ok, _ := path.Match(pattern, fileName+":"+sheetName); ok {
			return false
		}
	}
	return true
}

// Row is one data row. Number is the 1-based row in the source, so the
// first data row below the header is 2.
type Row struct {
	Number   int
	Cells    []string
	Comments map[int]string
}

// Cell returns the cell at col, or false when the row is too short.
func (r Row) Cell(col int) (string, bool) {
	if col < 0 || col >= len(r.Cells) {
		return "", false
	}
	return r.Cells[col], true
}

// Comment returns the cell comment at col, or "".
func (r Row) Comment(col int) string {
	return r.Comments[col]
}

// Sheet is a header row plus data rows. CSV files have exactly one unnamed sheet.
type Sheet struct {
	Name   string
	Header []string
	// HeaderReferences holds provenance parsed from header cell comments.
	HeaderReferences map[int]map[model.Reference]string
	Rows             []Row
	// ApplySign is false when values are already signed.
	ApplySign bool
}

// Column returns the index of the header cell equal to name, or -1.
func (s *Sheet) Column(name string) int {
	return columnIndex(s.Header, name)
}

// ColumnReferences returns the header comment references of col.
func (s *Sheet) ColumnReferences(col int) map[model.Reference]string {
	return s.HeaderReferences[col]
}

// File is a named collection of sheets.
type File struct {
	Name   string
	Sheets []*Sheet
}

func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	name = norm.NFC.String(name)
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// newSheet builds a sheet from raw records. The first record is the header.
func newSheet(name string, records [][]string) *Sheet {
	s := &Sheet{Name: name}
	if len(records) == 0 {
		return s
	}
	s.Header = make([]string, len(records[0]))
	for i, h := range records[0] {
		s.Header[i] = norm.NFC.String(strings.TrimSpace(h))
	}
	for i, rec := range records[1:] {
		s.Rows = append(s.Rows, Row{Number: i + 2, Cells: rec})
	}
	return s
}

// referencePatterns match "<display name>: <value>" lines in header comments.
// The leading whitespace alternative tolerates an author prefix on the first line.
var referencePatterns = func() map[model.Reference]*regexp.Regexp {
	m := make(map[model.Reference]*regexp.Regexp, len(model.References))
	for _, ref := range model.References {
		m[ref] = regexp.MustCompile(`(?m)(?:^|\s)` + regexp.QuoteMeta(ref.DisplayName()) + `: (.*?)\s*$`)
	}
	return m
}()

// ParseReferences extracts provenance lines from a header comment.
func ParseReferences(comment string) map[model.Reference]string {
	var out map[model.Reference]string
	for _, ref := range model.References {
		match := referencePatterns[ref].FindStringSubmatch(comment)
		if match == nil {
			continue
		}
		if out == nil {
			out = make(map[model.Reference]string)
		}
		out[ref] = match[1]
	}
	return out
}

// FormatReferences renders refs as one "<display name>: <value>" line each.
func FormatReferences(refs map[model.Reference]string) string {
	var lines []string
	for _, ref := range model.References {
		if v, ok := refs[ref]; ok {
			lines = append(lines, ref.DisplayName()+": "+v)
		}
	}
	return strings.Join(lines, "\n")
}
