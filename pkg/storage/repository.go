package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danilarb/fig-demo-converter/pkg/converter"
	"github.com/danilarb/fig-demo-converter/pkg/figured"
)

// Repository persists converted output as indented JSON and reads raw API
// dumps back for offline runs.
type Repository struct {
	resolver *PathResolver
}

// NewRepository creates a new Repository.
func NewRepository(resolver *PathResolver) *Repository {
	return &Repository{resolver: resolver}
}

// writeJSON writes v as four-space-indented JSON, creating parent
// directories as needed. Existing files are replaced whole; outputs are
// never appended to.
func (r *Repository) writeJSON(path string, v any) error {
	if err := r.resolver.EnsureParentDir(path); err != nil {
		return fmt.Errorf("failed to ensure parent directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// WriteAccounts writes the converted account list.
func (r *Repository) WriteAccounts(accounts []converter.ConvertedAccount) error {
	return r.writeJSON(r.resolver.AccountsFile(), accounts)
}

// WriteRevenue writes the revenue identifier list.
func (r *Repository) WriteRevenue(ids []converter.AccountID) error {
	return r.writeJSON(r.resolver.RevenueFile(), ids)
}

// WriteEquity writes the equity-like identifier list.
func (r *Repository) WriteEquity(ids []converter.AccountID) error {
	return r.writeJSON(r.resolver.EquityFile(), ids)
}

// WriteTransactions writes the flat transaction list.
func (r *Repository) WriteTransactions(transactions []converter.Transaction) error {
	return r.writeJSON(r.resolver.TransactionsFile(), transactions)
}

// WriteTrackerRecords writes one tracker's normalized livestock records.
func (r *Repository) WriteTrackerRecords(tracker string, records []converter.LivestockRecord) error {
	return r.writeJSON(r.resolver.TrackerTransactionsFile(tracker), records)
}

// WriteTrackerSummary writes one tracker's tracker.json.
func (r *Repository) WriteTrackerSummary(tracker string, summary converter.TrackerSummary) error {
	return r.writeJSON(r.resolver.TrackerSummaryFile(tracker), summary)
}

// ReadRawAccounts reads a raw accounts dump if one exists. The second return
// value reports whether a usable dump was found; a missing or empty file
// just means the API should be used instead.
func (r *Repository) ReadRawAccounts() (map[string]figured.Account, bool, error) {
	path := r.resolver.RawAccountsFile()
	if !r.resolver.FileExists(path) {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var accounts map[string]figured.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return accounts, true, nil
}

// ReadRawLivestock reads a raw livestock transactions dump if one exists.
func (r *Repository) ReadRawLivestock() ([]figured.LivestockEvent, bool, error) {
	path := r.resolver.RawLivestockFile()
	if !r.resolver.FileExists(path) {
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var events []figured.LivestockEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return events, true, nil
}

// ReadCashflowReports reads every exported cashflow report dump from the
// input directory.
func (r *Repository) ReadCashflowReports() ([]figured.CashflowReport, error) {
	files, err := r.resolver.CashflowFiles()
	if err != nil {
		return nil, err
	}

	var reports []figured.CashflowReport
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var file figured.CashflowFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		reports = append(reports, file.Data)
	}

	return reports, nil
}
