// Package converter normalizes Figured farm exports into the flat
// transaction schema the reporting template consumes. It covers account
// classification, cashflow section flattening, livestock transaction
// normalization and cross-subsystem duplicate removal.
package converter

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Transaction is the canonical flat transaction shape. Field names and
// casing are a compatibility contract with the downstream template.
type Transaction struct {
	Type    string  `json:"Type"` // "Actuals" or "Forecast"
	Account string  `json:"Account"`
	Amount  float64 `json:"Amount"`
	Year    int     `json:"Year"` // offset from the reference year, not absolute
	Month   int     `json:"Month"`
}

// AccountID identifies an account by its numeric code when one exists and by
// its name otherwise.
type AccountID struct {
	Code *int
	Name string
}

// Key returns the identifier used for set membership: the code in decimal
// form when present, else the name.
func (id AccountID) Key() string {
	if id.Code != nil {
		return strconv.Itoa(*id.Code)
	}
	return id.Name
}

// MarshalJSON emits the numeric code when present and the name otherwise,
// matching the mixed arrays in revenue.json and equity.json.
func (id AccountID) MarshalJSON() ([]byte, error) {
	if id.Code != nil {
		return json.Marshal(*id.Code)
	}
	return json.Marshal(id.Name)
}

// ConvertedAccount is the normalized account shape written to accounts.json.
// Code stays null for codeless accounts.
type ConvertedAccount struct {
	Code          *int   `json:"Code"`
	Name          string `json:"Name"`
	Class         string `json:"Class"`
	Type          string `json:"Type"`
	TaxType       string `json:"TaxType"`
	SystemAccount string `json:"SystemAccount"` // canonical tag, empty for ordinary accounts
	Active        bool   `json:"Active"`
}

// LivestockRecord is the normalized livestock transaction shape. The three
// optional fields follow different inclusion rules: Amount is dropped
// entirely unless the source amount was non-zero, Weight is kept whenever
// the source supplied a number (an explicit zero included), and Type is
// always present, null when the source gave none.
type LivestockRecord struct {
	StockClass string   `json:"StockClass"`
	Transition string   `json:"Transition"`
	Quantity   float64  `json:"Quantity"`
	Year       int      `json:"Year"`
	Month      int      `json:"Month"`
	Amount     *float64 `json:"Amount,omitempty"`
	Weight     *float64 `json:"Weight,omitempty"`
	Type       *string  `json:"Type"`
}

// TrackerSummary is the per-tracker configuration written to tracker.json.
type TrackerSummary struct {
	TrackerType     string              `json:"TrackerType"`
	StockTypeUUID   string              `json:"StockTypeUuid"`
	PurchaseAccount int                 `json:"PurchaseAccount"`
	SalesAccount    int                 `json:"SalesAccount"`
	StockClasses    []TrackerStockClass `json:"StockClasses"`
}

// TrackerStockClass is one stock class entry of a tracker summary.
// OpeningQuantity is filled in by hand downstream and stays null here.
type TrackerStockClass struct {
	Name            string   `json:"Name"`
	Enabled         bool     `json:"Enabled"`
	OpeningQuantity *float64 `json:"OpeningQuantity"`
}

// TrackerAccounts carries the resolved purchase and sale account codes for
// one tracker. These come from the tracker's account mappings, not from the
// transactions themselves.
type TrackerAccounts struct {
	Purchase int
	Sale     int
}

// normalizeKey maps a raw account identifier to the form used by the
// classification sets: numeric codes in canonical decimal form, everything
// else verbatim.
func normalizeKey(account string) string {
	if n, err := strconv.Atoi(strings.TrimSpace(account)); err == nil {
		return strconv.Itoa(n)
	}
	return account
}

// sortedKeys returns the map's keys in ascending order so batch output does
// not depend on map iteration order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// titleCase capitalizes the first letter and lowercases the rest, turning
// the API's "actuals"/"forecast" into the template's "Actuals"/"Forecast".
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
