package model

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Balance is the amount of one account in one budget.
// Negative account types carry an already negated value.
type Balance struct {
	Account *Account
	Value   decimal.Decimal
	Comment string
}

// Key identifies a budget by year and type.
type Key struct {
	Year int
	Type *BudgetType
}

// View is the read side shared by Builder and Budget.
type View interface {
	Year() int
	Type() *BudgetType
	Balance(account *Account) (Balance, bool)
	Balances() []Balance
	Reference(ref Reference) (string, bool)
}

type budgetData struct {
	year       int
	typ        *BudgetType
	balances   map[*Account]Balance
	references map[Reference]string
}

func (d *budgetData) Year() int         { return d.year }
func (d *budgetData) Type() *BudgetType { return d.typ }
func (d *budgetData) Key() Key          { return Key{Year: d.year, Type: d.typ} }
func (d *budgetData) Len() int          { return len(d.balances) }

// Name returns "<type> <year>".
func (d *budgetData) Name() string {
	return fmt.Sprintf("%s %d", d.typ.Name, d.year)
}

func (d *budgetData) String() string {
	return d.Name()
}

// Balance returns the balance of account, if present.
func (d *budgetData) Balance(account *Account) (Balance, bool) {
	b, ok := d.balances[account]
	return b, ok
}

// Balances returns all balances ordered by account.
func (d *budgetData) Balances() []Balance {
	out := make([]Balance, 0, len(d.balances))
	for _, b := range d.balances {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b Balance) int {
		return CompareAccounts(a.Account, b.Account)
	})
	return out
}

// Reference returns the provenance value for ref, if set.
func (d *budgetData) Reference(ref Reference) (string, bool) {
	v, ok := d.references[ref]
	return v, ok
}

// IsZero reports whether every balance is zero. An empty budget is zero.
func (d *budgetData) IsZero() bool {
	for _, b := range d.balances {
		if !b.Value.IsZero() {
			return false
		}
	}
	return true
}

// Equivalent reports whether other has the same key and no nonzero balance
// of either side contradicts the other. Zero and missing balances carry no
// information and never conflict.
func (d *budgetData) Equivalent(other View) bool {
	if d.year != other.Year() || d.typ != other.Type() {
		return false
	}
	for _, b := range other.Balances() {
		if !d.agrees(b) {
			return false
		}
	}
	for _, b := range d.balances {
		if b.Value.IsZero() {
			continue
		}
		theirs, ok := other.Balance(b.Account)
		if ok && !theirs.Value.IsZero() && !theirs.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

func (d *budgetData) agrees(b Balance) bool {
	if b.Value.IsZero() {
		return true
	}
	mine, ok := d.balances[b.Account]
	if !ok || mine.Value.IsZero() {
		return true
	}
	return mine.Value.Equal(b.Value)
}

func (d *budgetData) clone() *budgetData {
	c := &budgetData{
		year:       d.year,
		typ:        d.typ,
		balances:   make(map[*Account]Balance, len(d.balances)),
		references: make(map[Reference]string, len(d.references)),
	}
	for k, v := range d.balances {
		c.balances[k] = v
	}
	for k, v := range d.references {
		c.references[k] = v
	}
	return c
}

// Builder accumulates balances for one budget during parsing and filtering.
// It is not safe for concurrent use. Mutating a frozen builder panics.
type Builder struct {
	*budgetData
	frozen bool
}

// NewBuilder returns an empty builder for year and typ.
func NewBuilder(year int, typ *BudgetType) *Builder {
	return &Builder{budgetData: &budgetData{
		year:       year,
		typ:        typ,
		balances:   make(map[*Account]Balance),
		references: make(map[Reference]string),
	}}
}

func (b *Builder) checkModifiable() {
	if b.frozen {
		panic(fmt.Sprintf("budget %s is frozen", b.Name()))
	}
}

// SetBalance stores bal for its account, replacing any earlier value.
func (b *Builder) SetBalance(bal Balance) {
	b.checkModifiable()
	b.balances[bal.Account] = bal
}

// RemoveAccount drops the balance of account and reports whether it existed.
func (b *Builder) RemoveAccount(account *Account) bool {
	b.checkModifiable()
	if _, ok := b.balances[account]; !ok {
		return false
	}
	delete(b.balances, account)
	return true
}

// RemoveZeroBalances drops every zero balance and returns how many were removed.
func (b *Builder) RemoveZeroBalances() int {
	b.checkModifiable()
	n := 0
	for account, bal := range b.balances {
		if bal.Value.IsZero() {
			delete(b.balances, account)
			n++
		}
	}
	return n
}

// SetReference sets ref, overwriting any earlier value.
func (b *Builder) SetReference(ref Reference, value string) {
	b.checkModifiable()
	b.references[ref] = value
}

// SetReferenceIfAbsent sets ref unless already set and reports whether it was set.
func (b *Builder) SetReferenceIfAbsent(ref Reference, value string) bool {
	b.checkModifiable()
	if _, ok := b.references[ref]; ok {
		return false
	}
	b.references[ref] = value
	return true
}

// Absorb merges an equivalent builder into b. Nonzero values win over zero
// or missing ones; references of b take precedence.
func (b *Builder) Absorb(other View) {
	b.checkModifiable()
	for _, bal := range other.Balances() {
		mine, ok := b.balances[bal.Account]
		if !ok || (mine.Value.IsZero() && !bal.Value.IsZero()) {
			b.balances[bal.Account] = bal
		}
	}
	for _, ref := range References {
		if v, ok := other.Reference(ref); ok {
			if _, set := b.references[ref]; !set {
				b.references[ref] = v
			}
		}
	}
}

// Frozen reports whether Build has been called.
func (b *Builder) Frozen() bool {
	return b.frozen
}

// Build freezes the builder and returns an immutable snapshot.
func (b *Builder) Build() Budget {
	b.frozen = true
	return Budget{budgetData: b.budgetData.clone()}
}

// Budget is an immutable set of balances for one year and budget type.
type Budget struct {
	*budgetData
}

// CompareBudgets orders by year, then budget type.
func CompareBudgets(a, b View) int {
	if c := cmp.Compare(a.Year(), b.Year()); c != 0 {
		return c
	}
	return CompareBudgetTypes(a.Type(), b.Type())
}
