package converter

import (
	"math"
	"strconv"
	"time"

	"github.com/danilarb/fig-demo-converter/pkg/figured"
)

// Matcher removes transactions that duplicate records from another
// subsystem. The subsystems share no identifier, so matching is by field
// equality under predicates specific to each pairing. Scans are O(N×M) on
// purpose: single-farm ledgers are small.
type Matcher struct {
	referenceYear int
}

// NewMatcher creates a Matcher using the same reference year as the
// flattener that produced the transactions.
func NewMatcher(referenceYear int) *Matcher {
	return &Matcher{referenceYear: referenceYear}
}

// RemoveLivestockDuplicates drops every transaction already represented by a
// livestock purchase or sale event. A record matches a transaction when the
// absolute amounts are equal, year and month agree, and the transaction is
// booked on the tracker's configured purchase (for purchases) or sales (for
// sales) account. Transactions matched by several records are removed once.
func (m *Matcher) RemoveLivestockDuplicates(transactions []Transaction, records map[string][]LivestockRecord, trackerAccounts map[string]TrackerAccounts) []Transaction {
	duplicates := make(map[int]struct{})

	for tracker, trackerRecords := range records {
		accounts, ok := trackerAccounts[tracker]
		if !ok {
			continue
		}

		for _, record := range trackerRecords {
			var account string
			switch record.Transition {
			case "purchase":
				account = strconv.Itoa(accounts.Purchase)
			case "sale":
				account = strconv.Itoa(accounts.Sale)
			default:
				continue
			}

			if record.Amount == nil {
				continue
			}

			for i, txn := range transactions {
				if txn.Account != account {
					continue
				}
				if txn.Year != record.Year || txn.Month != record.Month {
					continue
				}
				if math.Abs(txn.Amount) != math.Abs(*record.Amount) {
					continue
				}
				duplicates[i] = struct{}{}
			}
		}
	}

	return withoutDuplicates(transactions, duplicates)
}

// RemoveInvoiceDuplicates drops every transaction already represented by an
// invoice. Only the invoice's first line takes part. Its account name is
// resolved against the account list by name, and a transaction matches on
// either the name or the resolved code; the amount comparison is signed, and
// the invoice's transaction type must equal the transaction's title-cased
// Type.
func (m *Matcher) RemoveInvoiceDuplicates(transactions []Transaction, invoices []figured.Invoice, accounts []ConvertedAccount) []Transaction {
	duplicates := make(map[int]struct{})

	for _, invoice := range invoices {
		if len(invoice.Lines) == 0 {
			continue
		}
		line := invoice.Lines[0]

		code := resolveAccountCode(line.Account, accounts)

		date, err := parseAccrualDate(invoice.AccrualDate)
		if err != nil {
			continue
		}
		year := date.Year() - m.referenceYear
		month := int(date.Month())
		wantType := titleCase(invoice.TransactionType)

		for i, txn := range transactions {
			if txn.Account != line.Account && (code == "" || txn.Account != code) {
				continue
			}
			if txn.Year != year || txn.Month != month {
				continue
			}
			if txn.Amount != line.Amount {
				continue
			}
			if txn.Type != wantType {
				continue
			}
			duplicates[i] = struct{}{}
		}
	}

	return withoutDuplicates(transactions, duplicates)
}

// resolveAccountCode finds an account by exact name and returns its code in
// decimal form, or "" when the account is unknown or codeless. Invoice
// matching resolves by name only; the code-or-name fallback of the flattener
// does not apply here.
func resolveAccountCode(name string, accounts []ConvertedAccount) string {
	for _, account := range accounts {
		if account.Name == name {
			if account.Code != nil {
				return strconv.Itoa(*account.Code)
			}
			return ""
		}
	}
	return ""
}

var accrualDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseAccrualDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range accrualDateLayouts {
		date, err := time.Parse(layout, raw)
		if err == nil {
			return date, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// withoutDuplicates filters the transaction list, preserving original order.
func withoutDuplicates(transactions []Transaction, duplicates map[int]struct{}) []Transaction {
	if len(duplicates) == 0 {
		return transactions
	}

	kept := make([]Transaction, 0, len(transactions)-len(duplicates))
	for i, txn := range transactions {
		if _, dup := duplicates[i]; dup {
			continue
		}
		kept = append(kept, txn)
	}
	return kept
}
