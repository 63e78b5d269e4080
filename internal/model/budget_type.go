package model

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrBlankBudgetType is returned when a budget type name is empty or whitespace.
var ErrBlankBudgetType = errors.New("budget type name must not be blank")

const (
	BudgetTypePlan        = "Plan"
	BudgetTypeIst         = "Ist"
	BudgetTypeCarriedOver = "Übertragen aus VJ"

	// budgetTypeErgebnis is folded into Ist.
	budgetTypeErgebnis = "Ergebnis"
)

// preferredBudgetTypes sort before every other type, in this order.
var preferredBudgetTypes = []string{BudgetTypePlan, BudgetTypeIst, BudgetTypeCarriedOver}

// BudgetType is the nature of a figure, e.g. "Plan" or "Ist".
// Instances are interned by name.
type BudgetType struct {
	Name string
}

func (t *BudgetType) String() string {
	return t.Name
}

// CanonicalBudgetTypeName normalizes name to NFC and folds aliases.
func CanonicalBudgetTypeName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrBlankBudgetType
	}
	name = norm.NFC.String(name)
	if name == budgetTypeErgebnis {
		return BudgetTypeIst, nil
	}
	return name, nil
}

func preferredRank(name string) int {
	for i, p := range preferredBudgetTypes {
		if p == name {
			return i
		}
	}
	return len(preferredBudgetTypes)
}

// CompareBudgetTypes orders Plan, Ist, "Übertragen aus VJ" first, then by name.
func CompareBudgetTypes(a, b *BudgetType) int {
	ra, rb := preferredRank(a.Name), preferredRank(b.Name)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	return CompareFold(a.Name, b.Name)
}
