package budget

import (
	"fmt"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/registry"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

// Collection folds budgets from several sheets or files. A budget joins the
// first collected budget with the same key it is equivalent to; conflicting
// budgets with the same key stay separate.
type Collection struct {
	builders []*model.Builder
}

// Add folds b into the collection.
func (c *Collection) Add(b *model.Builder) {
	for _, existing := range c.builders {
		if existing.Key() == b.Key() && existing.Equivalent(b) {
			existing.Absorb(b)
			return
		}
	}
	c.builders = append(c.builders, b)
}

// Builders returns the collected budgets in order of first appearance.
func (c *Collection) Builders() []*model.Builder {
	return c.builders
}

// Len returns the number of collected budgets.
func (c *Collection) Len() int {
	return len(c.builders)
}

// Merge parses every sheet of file and folds the results. File and sheet
// names are recorded as references where not already set.
func Merge(file *sheets.File, reg *registry.Registry, cols Columns) ([]*model.Builder, error) {
	var c Collection
	for _, sheet := range file.Sheets {
		builders, err := Parse(sheet, reg, cols)
		if err != nil {
			if sheet.Name == "" {
				return nil, fmt.Errorf("%s: %w", file.Name, err)
			}
			return nil, fmt.Errorf("%s:%s: %w", file.Name, sheet.Name, err)
		}
		for _, b := range builders {
			if file.Name != "" {
				b.SetReferenceIfAbsent(model.ReferenceFileName, file.Name)
			}
			if sheet.Name != "" {
				b.SetReferenceIfAbsent(model.ReferenceSheet, sheet.Name)
			}
			c.Add(b)
		}
	}
	return c.Builders(), nil
}
