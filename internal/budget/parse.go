package budget

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/registry"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

// ErrInvalidAmount is returned for value cells that are not decimal numbers.
var ErrInvalidAmount = errors.New("invalid amount")

// Columns names the key columns of a budget sheet.
type Columns struct {
	Municipality       string `yaml:"municipality"`
	BudgetYear         string `yaml:"budget_year"`
	ProductID          string `yaml:"product_id"`
	ProductDescription string `yaml:"product_description"`
	// Account is the anchor column. Value columns follow it.
	Account        string `yaml:"account"`
	AccountComment string `yaml:"account_comment"`
}

// DefaultColumns returns the column names of the municipal CSV export.
func DefaultColumns() Columns {
	return Columns{
		Municipality:       "GKZ",
		BudgetYear:         "HHJ",
		ProductID:          "Budget",
		ProductDescription: "Bezeichnung Budget",
		Account:            "Bezeichnung Position",
		AccountComment:     "Bemerkung",
	}
}

// accountCellPattern splits "4010000 Steuern" into ID and description.
var accountCellPattern = regexp.MustCompile(`^\s*(\d+)\s*(.*?)\s*$`)

type parser struct {
	sheet    *sheets.Sheet
	registry *registry.Registry

	municipality       int
	budgetYear         int
	productID          int
	productDescription int
	account            int
	accountComment     int

	budgets *ordered
}

// Parse reads one sheet into budgets in order of first appearance. A sheet
// without the account column yields no budgets.
func Parse(sheet *sheets.Sheet, reg *registry.Registry, cols Columns) ([]*model.Builder, error) {
	anchor := sheet.Column(cols.Account)
	if anchor < 0 {
		return nil, nil
	}

	p := &parser{
		sheet:              sheet,
		registry:           reg,
		municipality:       sheet.Column(cols.Municipality),
		budgetYear:         sheet.Column(cols.BudgetYear),
		productID:          sheet.Column(cols.ProductID),
		productDescription: sheet.Column(cols.ProductDescription),
		account:            anchor,
		accountComment:     sheet.Column(cols.AccountComment),
		budgets:            newOrdered(),
	}
	for _, row := range sheet.Rows {
		if err := p.parseRow(row); err != nil {
			return nil, fmt.Errorf("row %d: %w", row.Number, err)
		}
	}
	return p.budgets.list, nil
}

func (p *parser) parseRow(row sheets.Row) error {
	account, ok := p.resolveAccount(row)
	if !ok {
		return nil
	}

	contextYear := p.cell(row, p.budgetYear)
	for col := p.account + 1; col < len(p.sheet.Header); col++ {
		if p.isKeyColumn(col) {
			continue
		}
		value, ok := row.Cell(col)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		header, ok := ClassifyHeader(p.sheet.Header[col])
		if !ok {
			continue
		}

		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		year, ok, err := header.ResolveYear(contextYear)
		if err != nil {
			return fmt.Errorf("column %s: %w", colName, err)
		}
		if !ok {
			continue
		}
		typ, err := p.registry.BudgetType(header.TypeName)
		if err != nil {
			return fmt.Errorf("column %s: %w", colName, err)
		}

		amount, err := parseAmount(value)
		if err != nil {
			return fmt.Errorf("column %s: %w", colName, err)
		}
		if p.sheet.ApplySign {
			at, err := account.Type()
			if err != nil {
				return fmt.Errorf("column %s: %w", colName, err)
			}
			if at.Sign() < 0 {
				amount = amount.Neg()
			}
		}

		b := p.budgets.get(year, typ)
		b.SetBalance(model.Balance{Account: account, Value: amount, Comment: row.Comment(col)})
		b.SetReferenceIfAbsent(model.ReferenceColumn, colName)
		if y := strings.TrimSpace(contextYear); y != "" {
			b.SetReferenceIfAbsent(model.ReferenceBudgetYear, y)
		}
		for ref, v := range p.sheet.ColumnReferences(col) {
			b.SetReferenceIfAbsent(ref, v)
		}
	}
	return nil
}

// resolveAccount interns the account of row. Rows without a usable
// municipality, product ID or account cell are skipped.
func (p *parser) resolveAccount(row sheets.Row) (*model.Account, bool) {
	municipality, ok := p.intCell(row, p.municipality)
	if !ok {
		return nil, false
	}
	productID, ok := p.intCell(row, p.productID)
	if !ok {
		return nil, false
	}
	m := accountCellPattern.FindStringSubmatch(p.cell(row, p.account))
	if m == nil {
		return nil, false
	}
	accountID, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}

	product := p.registry.Product(
		p.registry.Municipality(municipality),
		productID,
		p.cell(row, p.productDescription),
	)
	return p.registry.Account(product, accountID, m[2], p.cell(row, p.accountComment)), true
}

// isKeyColumn reports whether col holds one of the resolved key columns.
// Key columns may sit right of the account column and never carry values.
func (p *parser) isKeyColumn(col int) bool {
	switch col {
	case p.municipality, p.budgetYear, p.productID, p.productDescription, p.accountComment:
		return true
	}
	return false
}

func (p *parser) cell(row sheets.Row, col int) string {
	v, _ := row.Cell(col)
	return strings.TrimSpace(v)
}

func (p *parser) intCell(row sheets.Row, col int) (int, bool) {
	v := p.cell(row, col)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ordered keeps budgets by key in order of first appearance.
type ordered struct {
	byKey map[model.Key]*model.Builder
	list  []*model.Builder
}

func newOrdered() *ordered {
	return &ordered{byKey: make(map[model.Key]*model.Builder)}
}

func (o *ordered) get(year int, typ *model.BudgetType) *model.Builder {
	key := model.Key{Year: year, Type: typ}
	b, ok := o.byKey[key]
	if !ok {
		b = model.NewBuilder(year, typ)
		o.byKey[key] = b
		o.list = append(o.list, b)
	}
	return b
}
