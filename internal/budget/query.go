package budget

import (
	"slices"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
)

// Accounts returns the distinct accounts of all budgets, sorted.
func Accounts[B model.View](budgets []B) []*model.Account {
	seen := make(map[*model.Account]bool)
	var out []*model.Account
	for _, b := range budgets {
		for _, bal := range b.Balances() {
			if !seen[bal.Account] {
				seen[bal.Account] = true
				out = append(out, bal.Account)
			}
		}
	}
	slices.SortFunc(out, model.CompareAccounts)
	return out
}

// Products returns the distinct products of all budgets, sorted.
func Products[B model.View](budgets []B) []*model.Product {
	seen := make(map[*model.Product]bool)
	var out []*model.Product
	for _, a := range Accounts(budgets) {
		if !seen[a.Product] {
			seen[a.Product] = true
			out = append(out, a.Product)
		}
	}
	slices.SortFunc(out, model.CompareProducts)
	return out
}
