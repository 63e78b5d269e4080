package sheets

import (
	"fmt"
	"path/filepath"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"
)

// XLSReader reads legacy BIFF8 workbooks. Cell comments are not available.
type XLSReader struct{}

// Format implements Reader.
func (XLSReader) Format() string { return "xls" }

// Extensions implements Reader.
func (XLSReader) Extensions() []string { return []string{".xls"} }

// Open implements Reader.
func (XLSReader) Open(path string, opts Options) (*File, error) {
	return OpenXLS(path, opts)
}

// OpenXLS reads the legacy workbook at path.
func OpenXLS(path string, opts Options) (*File, error) {
	wb, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	name := filepath.Base(path)
	file := &File{Name: name}
	for i := 0; i < wb.GetNumberSheets(); i++ {
		ws, err := wb.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %d of %s: %w", i, name, err)
		}
		if ws == nil {
			continue
		}

		// Missing rows stay as empty records so row numbers match the sheet.
		sheetName := ws.GetName()
		records := make([][]string, 0, ws.GetNumberRows())
		for r := 0; r < ws.GetNumberRows(); r++ {
			row, err := ws.GetRow(r)
			if err != nil {
				return nil, fmt.Errorf("reading row %d of %s:%s: %w", r+1, name, sheetName, err)
			}
			records = append(records, xlsRecord(row.GetCols()))
		}
		records = trimTrailingEmpty(records)

		sheet := newSheet(sheetName, records)
		sheet.ApplySign = opts.applySign(name, sheetName, sheet.Header)
		file.Sheets = append(file.Sheets, sheet)
	}
	return file, nil
}

// xlsRecord converts cells to strings. A row without any text is nil.
func xlsRecord(cols []structure.CellData) []string {
	rec := make([]string, len(cols))
	empty := true
	for i, col := range cols {
		if col == nil {
			continue
		}
		rec[i] = col.GetString()
		if rec[i] != "" {
			empty = false
		}
	}
	if empty {
		return nil
	}
	return rec
}

func trimTrailingEmpty(records [][]string) [][]string {
	for len(records) > 0 && len(records[len(records)-1]) == 0 {
		records = records[:len(records)-1]
	}
	return records
}
