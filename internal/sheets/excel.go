package sheets

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
)

// ExcelReader reads OOXML workbooks, one sheet per worksheet.
type ExcelReader struct{}

// Format implements Reader.
func (ExcelReader) Format() string { return "xlsx" }

// Extensions implements Reader.
func (ExcelReader) Extensions() []string { return []string{".xlsx", ".xlsm"} }

// Open implements Reader.
func (ExcelReader) Open(path string, opts Options) (*File, error) {
	return OpenExcel(path, opts)
}

// OpenExcel reads the workbook at path.
func OpenExcel(path string, opts Options) (*File, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer wb.Close()
	return readWorkbook(wb, filepath.Base(path), opts)
}

// ReadExcel reads a workbook stream named name.
func ReadExcel(r io.Reader, name string, opts Options) (*File, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer wb.Close()
	return readWorkbook(wb, name, opts)
}

func readWorkbook(wb *excelize.File, name string, opts Options) (*File, error) {
	file := &File{Name: name}
	for _, sheetName := range wb.GetSheetList() {
		// Raw values keep full numeric precision instead of the display format.
		records, err := wb.GetRows(sheetName, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("reading %s:%s: %w", name, sheetName, err)
		}
		sheet := newSheet(sheetName, records)

		comments, err := wb.GetComments(sheetName)
		if err != nil {
			return nil, fmt.Errorf("reading comments of %s:%s: %w", name, sheetName, err)
		}
		if err := attachComments(sheet, comments); err != nil {
			return nil, fmt.Errorf("%s:%s: %w", name, sheetName, err)
		}

		sheet.ApplySign = opts.applySign(name, sheetName, sheet.Header)
		file.Sheets = append(file.Sheets, sheet)
	}
	return file, nil
}

// attachComments routes header comments to references and data comments to rows.
func attachComments(sheet *Sheet, comments []excelize.Comment) error {
	for _, c := range comments {
		col, row, err := excelize.CellNameToCoordinates(c.Cell)
		if err != nil {
			return fmt.Errorf("comment cell %q: %w", c.Cell, err)
		}
		text := commentText(c)
		if text == "" {
			continue
		}

		if row == 1 {
			refs := ParseReferences(text)
			if refs == nil {
				continue
			}
			if sheet.HeaderReferences == nil {
				sheet.HeaderReferences = make(map[int]map[model.Reference]string)
			}
			sheet.HeaderReferences[col-1] = refs
			continue
		}

		i := row - 2
		if i < 0 || i >= len(sheet.Rows) {
			continue
		}
		if sheet.Rows[i].Comments == nil {
			sheet.Rows[i].Comments = make(map[int]string)
		}
		sheet.Rows[i].Comments[col-1] = text
	}
	return nil
}

func commentText(c excelize.Comment) string {
	var sb strings.Builder
	sb.WriteString(c.Text)
	for _, run := range c.Paragraph {
		sb.WriteString(run.Text)
	}
	text := strings.TrimSpace(sb.String())
	if c.Author != "" {
		text = strings.TrimSpace(strings.TrimPrefix(text, c.Author+":"))
	}
	return text
}
