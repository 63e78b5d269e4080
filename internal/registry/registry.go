// Package registry interns the value objects shared by all parsed budgets.
package registry

import (
	"slices"
	"strings"
	"sync"

	"github.com/budget-aggregator/budget-aggregator/internal/model"
)

type productKey struct {
	municipality *model.Municipality
	id           int
}

type accountKey struct {
	product *model.Product
	id      int
}

// Registry hands out one instance per identity key. The first description
// seen for a product or account wins. Safe for concurrent use.
type Registry struct {
	mu             sync.Mutex
	municipalities map[int]*model.Municipality
	products       map[productKey]*model.Product
	accounts       map[accountKey]*model.Account
	budgetTypes    map[string]*model.BudgetType
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		municipalities: make(map[int]*model.Municipality),
		products:       make(map[productKey]*model.Product),
		accounts:       make(map[accountKey]*model.Account),
		budgetTypes:    make(map[string]*model.BudgetType),
	}
}

// Municipality returns the municipality with id.
func (r *Registry) Municipality(id int) *model.Municipality {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.municipalities[id]
	if !ok {
		m = &model.Municipality{ID: id}
		r.municipalities[id] = m
	}
	return m
}

// Product returns the product with id under m.
func (r *Registry) Product(m *model.Municipality, id int, description string) *model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := productKey{municipality: m, id: id}
	p, ok := r.products[key]
	if !ok {
		p = &model.Product{Municipality: m, ID: id, Description: strings.TrimSpace(description)}
		r.products[key] = p
	}
	return p
}

// Account returns the account with id under p.
func (r *Registry) Account(p *model.Product, id int, description, comment string) *model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := accountKey{product: p, id: id}
	a, ok := r.accounts[key]
	if !ok {
		a = &model.Account{
			Product:     p,
			ID:          id,
			Description: strings.TrimSpace(description),
			Comment:     strings.TrimSpace(comment),
		}
		r.accounts[key] = a
	}
	return a
}

// BudgetType returns the budget type for name after canonicalization.
func (r *Registry) BudgetType(name string) (*model.BudgetType, error) {
	canonical, err := model.CanonicalBudgetTypeName(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.budgetTypes[canonical]
	if !ok {
		t = &model.BudgetType{Name: canonical}
		r.budgetTypes[canonical] = t
	}
	return t, nil
}

// BudgetTypes returns every known budget type in display order.
func (r *Registry) BudgetTypes() []*model.BudgetType {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.BudgetType, 0, len(r.budgetTypes))
	for _, t := range r.budgetTypes {
		out = append(out, t)
	}
	slices.SortFunc(out, model.CompareBudgetTypes)
	return out
}
