// Package export renders budgets as CSV text or XLSX workbooks.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"golang.org/x/text/transform"

	"github.com/budget-aggregator/budget-aggregator/internal/budget"
	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

// Options control CSV rendering.
type Options struct {
	Columns budget.Columns
	// Separator is the field separator. Zero means tab.
	Separator rune
	// Encoding is the output character set, see sheets.Encoding.
	Encoding       string
	CurrencySuffix string
}

// DefaultOptions returns tab-separated UTF-8 output with euro amounts.
func DefaultOptions() Options {
	return Options{
		Columns:        budget.DefaultColumns(),
		Separator:      '\t',
		Encoding:       "utf-8",
		CurrencySuffix: " €",
	}
}

const numKeyFields = 4

var printer = message.NewPrinter(language.German)

// FormatAmount renders v as German currency text such as "1.234,56 €".
func FormatAmount(v decimal.Decimal, suffix string) string {
	return printer.Sprint(number.Decimal(v.Round(2).InexactFloat64(), number.Scale(2))) + suffix
}

// ColumnNames returns one header per budget. Budgets sharing a name are
// numbered " (2)", " (3)" in order.
func ColumnNames(budgets []model.Budget) []string {
	seen := make(map[string]int)
	names := make([]string, len(budgets))
	for i, b := range budgets {
		name := b.Name()
		key := strings.ToLower(name)
		seen[key]++
		if n := seen[key]; n > 1 {
			name += " (" + strconv.Itoa(n) + ")"
		}
		names[i] = name
	}
	return names
}

// Header returns the CSV header row.
func Header(cols budget.Columns, budgets []model.Budget) []string {
	header := []string{cols.Municipality, cols.ProductID, cols.ProductDescription, cols.Account}
	return append(header, ColumnNames(budgets)...)
}

// WriteCSV writes one row per account with a column per budget.
func WriteCSV(w io.Writer, budgets []model.Budget, opts Options) error {
	enc, err := sheets.Encoding(opts.Encoding)
	if err != nil {
		return err
	}
	var tw *transform.Writer
	if enc != unicode.UTF8 {
		tw = transform.NewWriter(w, enc.NewEncoder())
		w = tw
	}

	cw := csv.NewWriter(w)
	cw.Comma = opts.Separator
	if cw.Comma == 0 {
		cw.Comma = '\t'
	}

	if err := cw.Write(Header(opts.Columns, budgets)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, account := range budget.Accounts(budgets) {
		if err := cw.Write(MarshalRow(account, budgets, opts.CurrencySuffix)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if tw != nil {
		return tw.Close()
	}
	return nil
}

// MarshalRow converts one account and its balances to a CSV row.
func MarshalRow(account *model.Account, budgets []model.Budget, suffix string) []string {
	row := make([]string, numKeyFields+len(budgets))
	row[0] = strconv.Itoa(account.Product.Municipality.ID)
	row[1] = strconv.Itoa(account.Product.ID)
	row[2] = account.Product.Description
	row[3] = account.Label()
	for i, b := range budgets {
		if bal, ok := b.Balance(account); ok {
			row[numKeyFields+i] = FormatAmount(bal.Value, suffix)
		}
	}
	return row
}
