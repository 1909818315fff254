// Package figured provides the Figured farm API client and wire types.
package figured

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes a JSON value that may arrive as a string, a number or
// null. The farm API is not consistent about whether identifiers and account
// codes are quoted.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("value %s is neither a string nor a number", data)
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the decoded value.
func (f FlexString) String() string {
	return string(f)
}

// Int parses the value as a decimal integer.
func (f FlexString) Int() (int, error) {
	return strconv.Atoi(string(f))
}

// Account represents a raw account object from the farm accounts endpoint.
type Account struct {
	UUID          string      `json:"uuid"`
	Code          *FlexString `json:"code"` // may be null, numeric or a free-form string
	Name          string      `json:"name"`
	Class         string      `json:"class"` // REVENUE, EXPENSE, EQUITY, LIABILITY, ASSET, ...
	Type          string      `json:"type"`
	TaxType       string      `json:"tax_type"`
	SystemAccount bool        `json:"system_account"`
	Active        bool        `json:"active"`
}

// CashflowReport is the hierarchical cashflow report shape. Period keys are
// YYYY-MM strings throughout.
type CashflowReport struct {
	Sections map[string]Section `json:"sections"`
	Periods  map[string]Period  `json:"period"`
}

// Period carries the metadata for one report period.
type Period struct {
	DataType string `json:"data_type"` // "actuals" or "forecast"
}

// Section is one node of the report tree. Leaves carry rows, internal nodes
// carry child sections, and any node may carry totals. A nil map means the
// source omitted that branch, which is not the same as an empty mapping.
type Section struct {
	Totals   map[string]Total   `json:"totals"`
	Rows     map[string]Row     `json:"rows"`
	Sections map[string]Section `json:"sections"`
}

// Total is the aggregate value of a section for one period.
type Total struct {
	Value float64 `json:"value"`
}

// Row is a leaf line of the report: one account, one value per period.
type Row struct {
	AccountCode *FlexString         `json:"account_code"`
	AccountName *string             `json:"account_name"`
	Data        map[string]RowValue `json:"data"`
}

// RowValue is a single dated cell of a row.
type RowValue struct {
	Date  string  `json:"date"` // YYYY-MM
	Value float64 `json:"value"`
}

// CashflowFile is the on-disk envelope of an exported cashflow report.
type CashflowFile struct {
	Data CashflowReport `json:"data"`
}

// Tracker represents a livestock tracker with its named stock classes.
type Tracker struct {
	ID           FlexString   `json:"id"`
	Name         string       `json:"name"`
	StockTypeID  string       `json:"stock_type_id"`
	StockClasses []StockClass `json:"stock_classes"`
}

// StockClass is one named class of stock inside a tracker.
type StockClass struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// AccountMapping links a livestock transition to the farm account it books to.
type AccountMapping struct {
	Transition string `json:"transition"` // "purchase" or "sale"
	AccountID  string `json:"account_id"` // account UUID
}

// LivestockEvent is one raw livestock transaction from the tracker subsystem.
// Pointer fields are nil when the source omitted them, which downstream
// conversion treats differently from an explicit zero.
type LivestockEvent struct {
	TrackerID     FlexString  `json:"tracker_id"`
	StockClassID  string      `json:"stock_class_id"`
	Transition    string      `json:"transition"`
	Quantity      float64     `json:"quantity"`
	AccrualDate   AccrualDate `json:"accrual_date"`
	Amount        *float64    `json:"amount"`
	WeightPerHead *float64    `json:"weight_per_head"`
	Type          *string     `json:"type"`
}

// AccrualDate wraps the API's nested date object.
type AccrualDate struct {
	Date string `json:"date"` // "YYYY-MM-DD HH:MM:SS"
}

// Invoice is a raw invoice record. Only the first line takes part in
// duplicate matching.
type Invoice struct {
	AccrualDate     string        `json:"accrual_date"` // ISO date
	Lines           []InvoiceLine `json:"lines"`
	TransactionType string        `json:"transaction_type"`
}

// InvoiceLine is one line of an invoice.
type InvoiceLine struct {
	Account string  `json:"account"`
	Amount  float64 `json:"amount"`
}

// Meta carries list pagination metadata.
type Meta struct {
	Total int `json:"total"`
}

// trackersResponse is the envelope of the livestock trackers endpoint.
type trackersResponse struct {
	Data []Tracker `json:"data"`
	Meta Meta      `json:"meta"`
}

// eventsResponse is the envelope of the livestock transactions endpoint.
type eventsResponse struct {
	Data []LivestockEvent `json:"data"`
	Meta Meta             `json:"meta"`
}

// invoicesResponse is the envelope of the invoices endpoint.
type invoicesResponse struct {
	Data []Invoice `json:"data"`
	Meta Meta      `json:"meta"`
}

// ErrorResponse represents an error payload from the farm API.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	Message          string `json:"message,omitempty"`
}
