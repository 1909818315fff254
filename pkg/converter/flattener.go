package converter

import (
	"time"

	"github.com/danilarb/fig-demo-converter/pkg/figured"
)

const periodLayout = "2006-01"

// LegacyAccountRule drops transactions on a migrated account dated after its
// cutover. A one-time migration artifact on some farms, so it is
// configuration rather than code.
type LegacyAccountRule struct {
	Account string
	After   time.Time
}

// Flattener walks a nested cashflow report tree and emits flat transactions,
// applying the sign conventions of a Classification.
type Flattener struct {
	class         *Classification
	referenceYear int
	legacyRules   []LegacyAccountRule
}

// NewFlattener creates a Flattener. Year fields of emitted transactions are
// offsets from referenceYear.
func NewFlattener(class *Classification, referenceYear int, legacyRules []LegacyAccountRule) *Flattener {
	return &Flattener{
		class:         class,
		referenceYear: referenceYear,
		legacyRules:   legacyRules,
	}
}

// Flatten converts one cashflow report into flat transactions.
func (f *Flattener) Flatten(report figured.CashflowReport) []Transaction {
	return f.flattenSections(report.Sections, report.Periods)
}

// flattenSections walks one level of the tree. A section whose totals are
// all exactly zero is skipped without descending into it at all. That
// assumes a zero aggregate implies zero-valued leaves, which the report
// format does not guarantee: a section could net to zero from offsetting
// rows. Downstream consumers depend on the current behavior, so it stays.
func (f *Flattener) flattenSections(sections map[string]figured.Section, periods map[string]figured.Period) []Transaction {
	var transactions []Transaction

	for _, id := range sortedKeys(sections) {
		section := sections[id]

		// Nil means the node carries no aggregate; an empty mapping counts
		// as all-zero and prunes.
		if section.Totals != nil && totalsAllZero(section.Totals) {
			continue
		}

		if section.Rows != nil {
			transactions = append(transactions, f.flattenRows(section.Rows, periods)...)
		}
		if section.Sections != nil {
			transactions = append(transactions, f.flattenSections(section.Sections, periods)...)
		}
	}

	return transactions
}

// flattenRows converts the leaf rows of one section.
func (f *Flattener) flattenRows(rows map[string]figured.Row, periods map[string]figured.Period) []Transaction {
	var transactions []Transaction

	for _, id := range sortedKeys(rows) {
		row := rows[id]

		account := resolveRowAccount(row)
		if account == "" {
			continue
		}
		flip := f.class.SignFlipped(account)

		for _, periodKey := range sortedKeys(row.Data) {
			value := row.Data[periodKey]

			date, err := time.Parse(periodLayout, value.Date)
			if err != nil {
				continue
			}

			if value.Value == 0 {
				continue
			}
			if f.droppedByLegacyRule(account, date) {
				continue
			}

			period, ok := periods[value.Date]
			if !ok {
				continue
			}

			amount := value.Value
			if flip {
				amount = -amount
			}

			transactions = append(transactions, Transaction{
				Type:    titleCase(period.DataType),
				Account: account,
				Amount:  amount,
				Year:    date.Year() - f.referenceYear,
				Month:   int(date.Month()),
			})
		}
	}

	return transactions
}

func (f *Flattener) droppedByLegacyRule(account string, date time.Time) bool {
	for _, rule := range f.legacyRules {
		if account == rule.Account && date.After(rule.After) {
			return true
		}
	}
	return false
}

// resolveRowAccount picks the row's identifier: the account code when
// present, the account name otherwise. Rows with neither are skipped.
func resolveRowAccount(row figured.Row) string {
	if row.AccountCode != nil && row.AccountCode.String() != "" {
		return row.AccountCode.String()
	}
	if row.AccountName != nil {
		return *row.AccountName
	}
	return ""
}

// totalsAllZero reports whether every period total is exactly zero. Exact
// float equality is deliberate; the rest of the system treats zero the same
// way.
func totalsAllZero(totals map[string]figured.Total) bool {
	for _, total := range totals {
		if total.Value != 0 {
			return false
		}
	}
	return true
}
