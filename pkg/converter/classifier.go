package converter

import (
	"fmt"
	"sort"

	"github.com/danilarb/fig-demo-converter/pkg/figured"
)

// systemAccounts maps the exact account names the platform exports for its
// fixed system accounts to their canonical tags. An account flagged as a
// system account whose name is missing here is a fatal classification error:
// the table has to be extended by hand, not worked around.
var systemAccounts = map[string]string{
	"Accounts Payable":                 "CREDITORS",
	"Accounts Payable (Xero)":          "CREDITORS",
	"Accounts Payable (A/P) (deleted)": "CREDITORS",
	"Accounts Receivable":              "DEBTORS",
	"Accounts Receivable (Xero)":       "DEBTORS",
	"Accounts Receivable (A/R)":        "DEBTORS",
	"Accounts Receivable (deleted)":    "DEBTORS",
	"Bank Revaluations":                "BANKREVALUATIONS",
	"GST":                              "GST",
	"Refunds/Payments":                 "GSTPAYMENTS",
	"Historical Adjustment":            "HISTORICAL",
	"Historical Adjustment8":           "HISTORICAL",
	"Realised Currency Gains":          "REALISEDCURRENCYGAIN",
	"Retained Earnings":                "RETAINEDEARNINGS",
	"Retained earnings":                "RETAINEDEARNINGS",
	"Rounding":                         "ROUNDING",
	"Rounding8":                        "ROUNDING",
	"Tracking Transfers":               "TRACKINGTRANSFERS",
	"Tracking Transfers8":              "TRACKINGTRANSFERS",
	"Unpaid Expense Claims":            "UNPAIDEXPCLM",
	"Unrealised Currency Gains":        "UNREALISEDCURRENCYGAIN",
	"Wages Payable":                    "WAGESPAYABLE",
	"Wages control account":            "WAGESPAYABLE",
	"Sales Tax":                        "GST",
	"Vat control account":              "GST",
	"Realized Currency Gains":          "REALISEDCURRENCYGAIN",
	"Unpaid expense claims (3564)":     "UNPAIDEXPCLM",
	"Unrealized Currency Gains":        "UNREALISEDCURRENCYGAIN",
	"Unapplied Cash Payment Income":    "UnappliedCashPaymentIncome",
	"Current Year Earnings":            "CURRENTYEAREARNINGS",
}

// Classifier classifies raw farm accounts into the sets that drive sign
// conventions downstream. Construct one per run and pass it along; it holds
// no mutable state after construction.
type Classifier struct {
	systemAccounts map[string]string
}

// NewClassifier creates a Classifier. Entries in extra are merged over the
// built-in system account table, letting farm-specific names be added
// through configuration.
func NewClassifier(extra map[string]string) *Classifier {
	table := make(map[string]string, len(systemAccounts)+len(extra))
	for name, tag := range systemAccounts {
		table[name] = tag
	}
	for name, tag := range extra {
		table[name] = tag
	}
	return &Classifier{systemAccounts: table}
}

// Classification is the classifier output for one batch of accounts.
type Classification struct {
	// Accounts is the normalized account list, sorted by numeric code
	// ascending with codeless accounts last.
	Accounts []ConvertedAccount
	// Revenue and Equity list the identifiers whose amounts get negated by
	// the flattener. Equity covers EQUITY, LIABILITY and ASSET classes plus
	// any account tagged GST.
	Revenue []AccountID
	Equity  []AccountID

	revenueKeys map[string]struct{}
	equityKeys  map[string]struct{}
}

// SignFlipped reports whether amounts on the given raw account identifier
// must be negated.
func (c *Classification) SignFlipped(account string) bool {
	key := normalizeKey(account)
	if _, ok := c.revenueKeys[key]; ok {
		return true
	}
	_, ok := c.equityKeys[key]
	return ok
}

// Classify converts the raw account mapping into a Classification. Input
// keys are only used to make iteration deterministic; identity is the
// (Code, Name) pair, and the first occurrence of a pair wins.
//
// A system account with no canonical tag aborts the whole batch: no partial
// classification is ever returned.
func (c *Classifier) Classify(raw map[string]figured.Account) (*Classification, error) {
	out := &Classification{
		revenueKeys: make(map[string]struct{}),
		equityKeys:  make(map[string]struct{}),
	}

	type identity struct {
		code    int
		hasCode bool
		name    string
	}
	seen := make(map[identity]struct{})

	for _, key := range sortedKeys(raw) {
		item := raw[key]

		code := parseCode(item.Code)

		var tag string
		if item.SystemAccount {
			t, ok := c.systemAccounts[item.Name]
			if !ok {
				return nil, fmt.Errorf("account %q is marked as a system account but has no canonical tag", item.Name)
			}
			tag = t
		}

		account := ConvertedAccount{
			Code:          code,
			Name:          item.Name,
			Class:         item.Class,
			Type:          item.Type,
			TaxType:       item.TaxType,
			SystemAccount: tag,
			Active:        item.Active,
		}

		id := identity{name: account.Name}
		if code != nil {
			id.code = *code
			id.hasCode = true
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		accountID := AccountID{Code: code, Name: item.Name}
		switch {
		case account.Class == "REVENUE":
			out.Revenue = append(out.Revenue, accountID)
			out.revenueKeys[accountID.Key()] = struct{}{}
		case account.Class == "EQUITY" || account.Class == "LIABILITY" || account.Class == "ASSET":
			out.Equity = append(out.Equity, accountID)
			out.equityKeys[accountID.Key()] = struct{}{}
		case account.SystemAccount == "GST":
			out.Equity = append(out.Equity, accountID)
			out.equityKeys[accountID.Key()] = struct{}{}
		}

		out.Accounts = append(out.Accounts, account)
	}

	// Codeless accounts sort last, as if their code were +infinity.
	sort.SliceStable(out.Accounts, func(i, j int) bool {
		a, b := out.Accounts[i].Code, out.Accounts[j].Code
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	return out, nil
}

// parseCode turns a raw code into a numeric code, degrading to nil when the
// code is absent or not numeric. A bad code is not an error; the account
// falls back to its name as identifier.
func parseCode(raw *figured.FlexString) *int {
	if raw == nil {
		return nil
	}
	n, err := raw.Int()
	if err != nil {
		return nil
	}
	return &n
}
