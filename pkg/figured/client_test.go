package figured

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(ClientConfig{
		APIURL:      server.URL,
		FarmID:      "farm-1",
		AccessToken: "test-token",
	})
	return client, server
}

func TestFetchAccounts(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/farms/farm-1/accounts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, expected Bearer test-token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"k1": {"uuid": "u1", "code": 400, "name": "Sales", "class": "REVENUE", "active": true},
			"k2": {"uuid": "u2", "code": "200A", "name": "Bank", "class": "ASSET", "active": true},
			"k3": {"uuid": "u3", "code": null, "name": "Codeless", "class": "EXPENSE"}
		}`))
	}))
	defer server.Close()

	accounts, err := client.FetchAccounts()
	if err != nil {
		t.Fatalf("FetchAccounts() returned error: %v", err)
	}

	if len(accounts) != 3 {
		t.Fatalf("FetchAccounts() returned %d accounts, expected 3", len(accounts))
	}
	if got := accounts["k1"].Code.String(); got != "400" {
		t.Errorf("numeric code decoded as %q, expected 400", got)
	}
	if got := accounts["k2"].Code.String(); got != "200A" {
		t.Errorf("string code decoded as %q, expected 200A", got)
	}
	if got := accounts["k3"].Code; got != nil {
		t.Errorf("null code decoded as %q, expected nil", got.String())
	}
}

func TestFetchAllTrackersProbesTotal(t *testing.T) {
	perPages := []string{}
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/farms/farm-1/livestock/trackers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		perPage := r.URL.Query().Get("per_page")
		perPages = append(perPages, perPage)

		w.Header().Set("Content-Type", "application/json")
		if perPage == "1" {
			w.Write([]byte(`{"data": [{"id": 7, "name": "Dairy Cattle"}], "meta": {"total": 2}}`))
			return
		}
		w.Write([]byte(`{"data": [{"id": 7, "name": "Dairy Cattle"}, {"id": 8, "name": "Sheep"}], "meta": {"total": 2}}`))
	}))
	defer server.Close()

	trackers, err := client.FetchAllTrackers()
	if err != nil {
		t.Fatalf("FetchAllTrackers() returned error: %v", err)
	}

	if len(trackers) != 2 {
		t.Fatalf("FetchAllTrackers() returned %d trackers, expected 2", len(trackers))
	}
	if len(perPages) != 2 || perPages[0] != "1" || perPages[1] != "2" {
		t.Errorf("per_page sequence = %v, expected [1 2]", perPages)
	}
	if trackers[1].Name != "Sheep" {
		t.Errorf("trackers[1].Name = %q, expected Sheep", trackers[1].Name)
	}
}

func TestFetchAllTrackersEmpty(t *testing.T) {
	requests := 0
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"data": [], "meta": {"total": 0}}`))
	}))
	defer server.Close()

	trackers, err := client.FetchAllTrackers()
	if err != nil {
		t.Fatalf("FetchAllTrackers() returned error: %v", err)
	}
	if len(trackers) != 0 {
		t.Errorf("FetchAllTrackers() = %v, expected none", trackers)
	}
	if requests != 1 {
		t.Errorf("made %d requests, expected only the probe", requests)
	}
}

func TestFetchAllLivestockTransactionsDecodesOptionals(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [{
				"tracker_id": "7",
				"stock_class_id": "sc-1",
				"transition": "purchase",
				"quantity": 12,
				"accrual_date": {"date": "2024-08-05 00:00:00"},
				"amount": -5400,
				"weight_per_head": 0,
				"type": null
			}],
			"meta": {"total": 1}
		}`))
	}))
	defer server.Close()

	events, err := client.FetchAllLivestockTransactions()
	if err != nil {
		t.Fatalf("FetchAllLivestockTransactions() returned error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, expected 1", len(events))
	}

	event := events[0]
	if event.Amount == nil || *event.Amount != -5400 {
		t.Errorf("Amount = %v, expected -5400", event.Amount)
	}
	if event.WeightPerHead == nil || *event.WeightPerHead != 0 {
		t.Errorf("WeightPerHead = %v, expected explicit 0", event.WeightPerHead)
	}
	if event.Type != nil {
		t.Errorf("Type = %v, expected nil for null", event.Type)
	}
}

func TestFetchAllInvoicesPaginates(t *testing.T) {
	pages := []string{}
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		invoices := make([]Invoice, 0)
		if page == "1" {
			for i := 0; i < 100; i++ {
				invoices = append(invoices, Invoice{TransactionType: "actuals"})
			}
		} else {
			invoices = append(invoices, Invoice{TransactionType: "forecast"})
		}
		json.NewEncoder(w).Encode(map[string]any{"data": invoices})
	}))
	defer server.Close()

	invoices, err := client.FetchAllInvoices()
	if err != nil {
		t.Fatalf("FetchAllInvoices() returned error: %v", err)
	}

	if len(invoices) != 101 {
		t.Errorf("FetchAllInvoices() returned %d invoices, expected 101", len(invoices))
	}
	if len(pages) != 2 || pages[0] != "1" || pages[1] != "2" {
		t.Errorf("page sequence = %v, expected [1 2]", pages)
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		contains string
	}{
		{
			name:     "oauth style error",
			status:   http.StatusUnauthorized,
			body:     `{"error": "invalid_token", "error_description": "The token has expired"}`,
			contains: "invalid_token - The token has expired",
		},
		{
			name:     "message style error",
			status:   http.StatusNotFound,
			body:     `{"message": "Farm not found"}`,
			contains: "Farm not found",
		},
		{
			name:     "non-JSON body",
			status:   http.StatusBadGateway,
			body:     "upstream unavailable",
			contains: "status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := client.FetchAccounts()
			if err == nil {
				t.Fatal("FetchAccounts() should return an error")
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestFlexStringUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"quoted string", `"400"`, "400"},
		{"integer", `400`, "400"},
		{"float", `12.5`, "12.5"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			if err := json.Unmarshal([]byte(tt.input), &f); err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tt.input, err)
			}
			if f.String() != tt.expected {
				t.Errorf("Unmarshal(%s) = %q, expected %q", tt.input, f.String(), tt.expected)
			}
		})
	}

	var f FlexString
	if err := json.Unmarshal([]byte(`[1]`), &f); err == nil {
		t.Error("Unmarshal should fail for a JSON array")
	}
}
