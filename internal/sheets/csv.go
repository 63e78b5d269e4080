package sheets

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVReader reads delimiter-separated text files as a single sheet.
type CSVReader struct{}

// Format implements Reader.
func (CSVReader) Format() string { return "csv" }

// Extensions implements Reader.
func (CSVReader) Extensions() []string { return []string{".csv", ".tsv"} }

// Open implements Reader.
func (CSVReader) Open(path string, opts Options) (*File, error) {
	return OpenCSV(path, opts)
}

// Encoding returns the decoder for name. Empty means UTF-8.
func Encoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// OpenCSV reads the CSV file at path.
func OpenCSV(path string, opts Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f, filepath.Base(path), opts)
}

// ReadCSV reads a CSV stream named name. A UTF-8 byte order mark is dropped.
func ReadCSV(r io.Reader, name string, opts Options) (*File, error) {
	enc, err := Encoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	var decoder transform.Transformer = enc.NewDecoder()
	if enc == unicode.UTF8 {
		decoder = unicode.BOMOverride(decoder)
	}

	cr := csv.NewReader(transform.NewReader(r, decoder))
	cr.Comma = opts.Separator
	if cr.Comma == 0 {
		cr.Comma = '\t'
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}

	sheet := newSheet("", records)
	// Blank lines are skipped by the reader; keep source line numbers.
	for i := range sheet.Rows {
		sheet.Rows[i].Number = lines[i+1]
	}
	sheet.ApplySign = opts.applySign(name, "", sheet.Header)
	return &File{Name: name, Sheets: []*Sheet{sheet}}, nil
}
