package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/budget-aggregator/budget-aggregator/internal/budget"
	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

const (
	productsSheet = "Produkte"
	accountsSheet = "Konten"

	// CommentAuthor is the author of header comments.
	CommentAuthor = "budget-aggregator"

	currencyFormat = `#,##0.00\ "€";[Red]\-#,##0.00\ "€"`
)

var (
	productHeader = []string{"Gemeinde", "Produkt", "Beschreibung", "Summieren"}
	accountHeader = []string{"Gemeinde", "Produkt", "Produktbeschreibung", "Konto", "Kontobeschreibung", "Planart", "Summieren"}
)

// Fill colors of budget columns by budget type name.
var budgetFills = map[string]string{
	model.BudgetTypePlan: "FFFFCC",
	model.BudgetTypeIst:  "CCFFCC",
}

type workbookWriter struct {
	wb      *excelize.File
	budgets []model.Budget
	names   []string
	cols    budget.Columns
	styles  map[string]int
}

// WriteExcel writes budgets as a workbook with a product summary sheet and
// an account sheet. The account sheet can be read back as input.
func WriteExcel(w io.Writer, budgets []model.Budget, opts Options) error {
	ww := &workbookWriter{
		wb:      excelize.NewFile(),
		budgets: budgets,
		names:   ColumnNames(budgets),
		cols:    opts.Columns,
		styles:  make(map[string]int),
	}
	defer ww.wb.Close()

	if err := ww.wb.SetSheetName("Sheet1", productsSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := ww.wb.NewSheet(accountsSheet); err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := ww.writeProducts(); err != nil {
		return fmt.Errorf("writing %s: %w", productsSheet, err)
	}
	if err := ww.writeAccounts(); err != nil {
		return fmt.Errorf("writing %s: %w", accountsSheet, err)
	}
	if err := ww.wb.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (ww *workbookWriter) writeProducts() error {
	products := budget.Products(ww.budgets)
	header := append(append([]string{}, productHeader...), ww.names...)
	if err := ww.wb.SetSheetRow(productsSheet, "A1", &header); err != nil {
		return err
	}
	if err := ww.commentBudgets(productsSheet, len(productHeader)); err != nil {
		return err
	}

	for i, p := range products {
		row := i + 2
		values := []any{p.Municipality.ID, p.ID, p.Description, true}
		if err := ww.wb.SetSheetRow(productsSheet, cell(1, row), &values); err != nil {
			return err
		}
		for j, b := range ww.budgets {
			col := len(productHeader) + j + 1
			formula := fmt.Sprintf(
				"SUMIFS(%s[%s], %s[Gemeinde], %s[[#This Row],[Gemeinde]], %s[Produkt], %s[[#This Row],[Produkt]], %s[Summieren], TRUE)",
				accountsSheet, escapeColumn(ww.names[j]),
				accountsSheet, productsSheet,
				accountsSheet, productsSheet,
				accountsSheet)
			if err := ww.wb.SetCellFormula(productsSheet, cell(col, row), formula); err != nil {
				return err
			}
			if err := ww.styleBudgetCell(productsSheet, col, row, b); err != nil {
				return err
			}
		}
	}

	if err := ww.addTable(productsSheet, len(header), len(products)); err != nil {
		return err
	}
	if err := ww.wb.SetColWidth(productsSheet, "C", "C", 40); err != nil {
		return err
	}
	return ww.freeze(productsSheet, 3)
}

func (ww *workbookWriter) writeAccounts() error {
	accounts := budget.Accounts(ww.budgets)
	keys := []string{ww.cols.Municipality, ww.cols.ProductID, ww.cols.ProductDescription, ww.cols.Account}
	header := append(append(append([]string{}, accountHeader...), keys...), ww.names...)
	if err := ww.wb.SetSheetRow(accountsSheet, "A1", &header); err != nil {
		return err
	}
	first := len(accountHeader) + len(keys)
	if err := ww.commentBudgets(accountsSheet, first); err != nil {
		return err
	}

	for i, a := range accounts {
		row := i + 2
		plan := ""
		if pt, err := a.PlanType(); err == nil {
			plan = pt.DisplayName()
		}
		p := a.Product
		values := []any{
			p.Municipality.ID, p.ID, p.Description, a.ID, a.Description, plan, true,
			p.Municipality.ID, p.ID, p.Description, a.Label(),
		}
		if err := ww.wb.SetSheetRow(accountsSheet, cell(1, row), &values); err != nil {
			return err
		}
		for j, b := range ww.budgets {
			col := first + j + 1
			if bal, ok := b.Balance(a); ok {
				if err := ww.wb.SetCellDefault(accountsSheet, cell(col, row), bal.Value.String()); err != nil {
					return err
				}
				if bal.Comment != "" {
					if err := ww.comment(accountsSheet, cell(col, row), bal.Comment); err != nil {
						return err
					}
				}
			}
			if err := ww.styleBudgetCell(accountsSheet, col, row, b); err != nil {
				return err
			}
		}
	}

	if err := ww.addTable(accountsSheet, len(header), len(accounts)); err != nil {
		return err
	}
	hidden := column(len(accountHeader)+1) + ":" + column(first)
	if err := ww.wb.SetColVisible(accountsSheet, hidden, false); err != nil {
		return err
	}
	for _, c := range []string{"C", "E"} {
		if err := ww.wb.SetColWidth(accountsSheet, c, c, 40); err != nil {
			return err
		}
	}
	return ww.freeze(accountsSheet, 5)
}

// commentBudgets attaches the references of each budget to its header cell.
func (ww *workbookWriter) commentBudgets(sheet string, offset int) error {
	for j, b := range ww.budgets {
		refs := make(map[model.Reference]string)
		for _, ref := range model.References {
			if v, ok := b.Reference(ref); ok {
				refs[ref] = v
			}
		}
		text := sheets.FormatReferences(refs)
		if text == "" {
			continue
		}
		if err := ww.comment(sheet, cell(offset+j+1, 1), text); err != nil {
			return err
		}
	}
	return nil
}

func (ww *workbookWriter) comment(sheet, cellName, text string) error {
	return ww.wb.AddComment(sheet, excelize.Comment{
		Cell:   cellName,
		Author: CommentAuthor,
		Text:   text,
	})
}

func (ww *workbookWriter) styleBudgetCell(sheet string, col, row int, b model.Budget) error {
	id, err := ww.budgetStyle(b)
	if err != nil {
		return err
	}
	name := cell(col, row)
	return ww.wb.SetCellStyle(sheet, name, name, id)
}

// budgetStyle returns the currency style for b, creating it once per fill.
func (ww *workbookWriter) budgetStyle(b model.Budget) (int, error) {
	fill := budgetFills[b.Type().Name]
	if id, ok := ww.styles[fill]; ok {
		return id, nil
	}
	format := currencyFormat
	style := &excelize.Style{CustomNumFmt: &format}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}}
	}
	id, err := ww.wb.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("creating style: %w", err)
	}
	ww.styles[fill] = id
	return id, nil
}

func (ww *workbookWriter) addTable(sheet string, columns, rows int) error {
	if rows == 0 {
		return nil
	}
	stripes := true
	return ww.wb.AddTable(sheet, &excelize.Table{
		Range:          "A1:" + cell(columns, rows+1),
		Name:           sheet,
		StyleName:      "TableStyleLight1",
		ShowRowStripes: &stripes,
	})
}

// freeze keeps the header row and the first cols columns visible.
func (ww *workbookWriter) freeze(sheet string, cols int) error {
	topLeft := cell(cols+1, 2)
	return ww.wb.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      cols,
		YSplit:      1,
		TopLeftCell: topLeft,
		ActivePane:  "bottomRight",
		Selection: []excelize.Selection{
			{SQRef: topLeft, ActiveCell: topLeft, Pane: "bottomRight"},
		},
	})
}

// escapeColumn quotes the characters that are special in structured references.
func escapeColumn(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch r {
		case '[', ']', '#', '\'':
			sb.WriteByte('\'')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func column(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}
