package model

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAccountType is returned for account IDs outside every known range.
var ErrUnknownAccountType = errors.New("unknown account type")

// AccountType classifies accounts by their ID range.
type AccountType string

const (
	AccountTypeResultPositive AccountType = "result_positive" // Erträge
	AccountTypeResultNegative AccountType = "result_negative" // Aufwendungen
	AccountTypeInvestPositive AccountType = "invest_positive" // Einzahlungen
	AccountTypeInvestNegative AccountType = "invest_negative" // Auszahlungen
)

// PlanType groups account types into the two plans of a municipal budget.
type PlanType string

const (
	PlanTypeResult PlanType = "result" // Ergebnisplan
	PlanTypeInvest PlanType = "invest" // Finanzplan
)

type accountRange struct {
	accountType AccountType
	planType    PlanType
	sign        int
	min, max    int
}

var accountRanges = []accountRange{
	{AccountTypeResultPositive, PlanTypeResult, 1, 4_000_000, 4_999_999},
	{AccountTypeResultNegative, PlanTypeResult, -1, 5_000_000, 5_999_999},
	{AccountTypeInvestPositive, PlanTypeInvest, 1, 6_000_000, 6_999_999},
	{AccountTypeInvestNegative, PlanTypeInvest, -1, 7_000_000, 7_999_999},
}

func lookupRange(accountID int) (accountRange, bool) {
	for _, r := range accountRanges {
		if accountID >= r.min && accountID <= r.max {
			return r, true
		}
	}
	return accountRange{}, false
}

// AccountTypeOf classifies an account ID.
func AccountTypeOf(accountID int) (AccountType, error) {
	r, ok := lookupRange(accountID)
	if !ok {
		return "", fmt.Errorf("account %d: %w", accountID, ErrUnknownAccountType)
	}
	return r.accountType, nil
}

// PlanTypeOf returns the plan an account ID belongs to.
func PlanTypeOf(accountID int) (PlanType, error) {
	r, ok := lookupRange(accountID)
	if !ok {
		return "", fmt.Errorf("account %d: %w", accountID, ErrUnknownAccountType)
	}
	return r.planType, nil
}

// Sign returns +1 or -1. Balances of negative account types are stored negated.
func (t AccountType) Sign() int {
	for _, r := range accountRanges {
		if r.accountType == t {
			return r.sign
		}
	}
	return 0
}

// DisplayName returns the German plan name used in exports.
func (p PlanType) DisplayName() string {
	switch p {
	case PlanTypeResult:
		return "Ergebnisplan"
	case PlanTypeInvest:
		return "Finanzplan"
	default:
		return string(p)
	}
}

// Municipality is a local-government entity (Kommune/Gemeinde/GKZ).
// Instances are interned; compare by pointer or ID.
type Municipality struct {
	ID int
}

// Product is a budget program owned by a municipality (Produkt/Budget).
// Identity is (Municipality, ID); Description is first-seen and informational.
type Product struct {
	Municipality *Municipality
	ID           int
	Description  string
}

// Account is a budget position under a product (Konto/Haushaltsstelle).
// Identity is (Product, ID).
type Account struct {
	Product     *Product
	ID          int
	Description string
	Comment     string
}

// Type classifies the account by its ID.
func (a *Account) Type() (AccountType, error) {
	return AccountTypeOf(a.ID)
}

// PlanType returns the plan the account belongs to.
func (a *Account) PlanType() (PlanType, error) {
	return PlanTypeOf(a.ID)
}

// Label returns "<id> <description>", the form used in account cells.
func (a *Account) Label() string {
	if a.Description == "" {
		return fmt.Sprintf("%d", a.ID)
	}
	return fmt.Sprintf("%d %s", a.ID, a.Description)
}

// CompareMunicipalities orders municipalities by ID.
func CompareMunicipalities(a, b *Municipality) int {
	return cmp.Compare(a.ID, b.ID)
}

// CompareProducts orders by municipality, ID, then description.
func CompareProducts(a, b *Product) int {
	if c := CompareMunicipalities(a.Municipality, b.Municipality); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return CompareFold(a.Description, b.Description)
}

// CompareAccounts orders by product, ID, then description.
func CompareAccounts(a, b *Account) int {
	if c := CompareProducts(a.Product, b.Product); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return CompareFold(a.Description, b.Description)
}

// CompareFold compares case-insensitively first, then case-sensitively.
func CompareFold(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
