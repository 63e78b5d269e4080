package budget

import (
	"slices"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/registry"
)

// Options select which budgets, accounts and balances are kept.
type Options struct {
	// BudgetTypes keeps only these type names. Empty keeps all.
	BudgetTypes []string
	// Years keeps only these years. Empty keeps all.
	Years []int

	HideDuplicateBudgets bool
	HideEmptyAccounts    bool
	HideEmptyBalances    bool
	HideEmptyBudgets     bool
}

// DefaultOptions hides duplicates and empties and keeps every type and year.
func DefaultOptions() Options {
	return Options{
		HideDuplicateBudgets: true,
		HideEmptyAccounts:    true,
		HideEmptyBalances:    true,
		HideEmptyBudgets:     true,
	}
}

// Apply filters builders, sorts them and freezes the result. The stages run
// in a fixed order: type and year filters, empty accounts, empty balances,
// empty budgets, sort, then duplicate removal.
func Apply(builders []*model.Builder, reg *registry.Registry, opts Options) ([]model.Budget, error) {
	bs := slices.Clone(builders)

	if len(opts.BudgetTypes) > 0 {
		types := make([]*model.BudgetType, 0, len(opts.BudgetTypes))
		for _, name := range opts.BudgetTypes {
			t, err := reg.BudgetType(name)
			if err != nil {
				return nil, err
			}
			types = append(types, t)
		}
		bs = FilterTypes(bs, types)
	}
	if len(opts.Years) > 0 {
		bs = FilterYears(bs, opts.Years)
	}
	if opts.HideEmptyAccounts {
		RemoveEmptyAccounts(bs)
	}
	if opts.HideEmptyBalances {
		RemoveEmptyBalances(bs)
	}
	if opts.HideEmptyBudgets {
		bs = RemoveEmptyBudgets(bs)
	}
	Sort(bs)
	if opts.HideDuplicateBudgets {
		bs = RemoveDuplicateBudgets(bs)
	}

	out := make([]model.Budget, len(bs))
	for i, b := range bs {
		out[i] = b.Build()
	}
	return out, nil
}

// Sort orders builders by year, then budget type. Equal keys keep their order.
func Sort(builders []*model.Builder) {
	slices.SortStableFunc(builders, func(a, b *model.Builder) int {
		return model.CompareBudgets(a, b)
	})
}

// FilterTypes keeps builders whose type is in types.
func FilterTypes(builders []*model.Builder, types []*model.BudgetType) []*model.Builder {
	return slices.DeleteFunc(slices.Clone(builders), func(b *model.Builder) bool {
		return !slices.Contains(types, b.Type())
	})
}

// FilterYears keeps builders whose year is in years.
func FilterYears(builders []*model.Builder, years []int) []*model.Builder {
	return slices.DeleteFunc(slices.Clone(builders), func(b *model.Builder) bool {
		return !slices.Contains(years, b.Year())
	})
}

// RemoveDuplicateBudgets drops every builder equivalent to the retained
// builder before it. The input must be sorted.
func RemoveDuplicateBudgets(sorted []*model.Builder) []*model.Builder {
	out := make([]*model.Builder, 0, len(sorted))
	for _, b := range sorted {
		if n := len(out); n > 0 && out[n-1].Equivalent(b) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// RemoveEmptyAccounts drops accounts that are zero or missing in every
// builder and returns how many accounts were dropped.
func RemoveEmptyAccounts(builders []*model.Builder) int {
	removed := 0
	for _, account := range Accounts(builders) {
		if hasNonZero(builders, account) {
			continue
		}
		for _, b := range builders {
			b.RemoveAccount(account)
		}
		removed++
	}
	return removed
}

func hasNonZero(builders []*model.Builder, account *model.Account) bool {
	for _, b := range builders {
		if bal, ok := b.Balance(account); ok && !bal.Value.IsZero() {
			return true
		}
	}
	return false
}

// RemoveEmptyBalances drops zero balances and returns how many were dropped.
func RemoveEmptyBalances(builders []*model.Builder) int {
	removed := 0
	for _, b := range builders {
		removed += b.RemoveZeroBalances()
	}
	return removed
}

// RemoveEmptyBudgets drops builders whose balances are all zero.
func RemoveEmptyBudgets(builders []*model.Builder) []*model.Builder {
	return slices.DeleteFunc(slices.Clone(builders), func(b *model.Builder) bool {
		return b.IsZero()
	})
}
