package converter

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/danilarb/fig-demo-converter/pkg/figured"
)

func testTracker() figured.Tracker {
	return figured.Tracker{
		ID:          figured.FlexString("7"),
		Name:        "Dairy Cattle",
		StockTypeID: "st-uuid-1",
		StockClasses: []figured.StockClass{
			{UUID: "sc-1", Name: "Mixed Age Cows", Enabled: true},
			{UUID: "sc-2", Name: "Rising 1yr Heifers", Enabled: false},
		},
	}
}

func floatPtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func TestNormalizeResolvesStockClass(t *testing.T) {
	events := []figured.LivestockEvent{{
		TrackerID:    figured.FlexString("7"),
		StockClassID: "sc-1",
		Transition:   "purchase",
		Quantity:     12,
		AccrualDate:  figured.AccrualDate{Date: "2024-08-05 00:00:00"},
		Amount:       floatPtr(-5400),
		Type:         strPtr("purchase"),
	}}

	normalizer := NewLivestockNormalizer(2023)
	records := normalizer.Normalize([]figured.Tracker{testTracker()}, events)

	got := records["Dairy Cattle"]
	if len(got) != 1 {
		t.Fatalf("Normalize() produced %d records, expected 1", len(got))
	}

	record := got[0]
	if record.StockClass != "Mixed Age Cows" {
		t.Errorf("StockClass = %q, expected Mixed Age Cows", record.StockClass)
	}
	if record.Year != 1 || record.Month != 8 {
		t.Errorf("Year/Month = %d/%d, expected 1/8", record.Year, record.Month)
	}
	if record.Amount == nil || *record.Amount != 5400 {
		t.Errorf("Amount = %v, expected absolute value 5400", record.Amount)
	}
}

func TestNormalizeOptionalFields(t *testing.T) {
	tests := []struct {
		name       string
		amount     *float64
		weight     *float64
		eventType  *string
		wantAmount *float64
		wantWeight *float64
		wantType   *string
	}{
		{"all absent", nil, nil, nil, nil, nil, nil},
		{"zero amount dropped", floatPtr(0), nil, nil, nil, nil, nil},
		{"negative amount absolute", floatPtr(-1200), nil, nil, floatPtr(1200), nil, nil},
		{"zero weight kept", nil, floatPtr(0), nil, nil, floatPtr(0), nil},
		{"weight kept", nil, floatPtr(480.5), nil, nil, floatPtr(480.5), nil},
		{"empty type null", nil, nil, strPtr(""), nil, nil, nil},
		{"type kept", nil, nil, strPtr("sale"), nil, nil, strPtr("sale")},
	}

	normalizer := NewLivestockNormalizer(2023)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []figured.LivestockEvent{{
				TrackerID:     figured.FlexString("7"),
				StockClassID:  "sc-2",
				Transition:    "sale",
				Quantity:      3,
				AccrualDate:   figured.AccrualDate{Date: "2024-02-01 00:00:00"},
				Amount:        tt.amount,
				WeightPerHead: tt.weight,
				Type:          tt.eventType,
			}}

			records := normalizer.Normalize([]figured.Tracker{testTracker()}, events)
			got := records["Dairy Cattle"]
			if len(got) != 1 {
				t.Fatalf("Normalize() produced %d records, expected 1", len(got))
			}

			record := got[0]
			if !reflect.DeepEqual(record.Amount, tt.wantAmount) {
				t.Errorf("Amount = %v, expected %v", record.Amount, tt.wantAmount)
			}
			if !reflect.DeepEqual(record.Weight, tt.wantWeight) {
				t.Errorf("Weight = %v, expected %v", record.Weight, tt.wantWeight)
			}
			if !reflect.DeepEqual(record.Type, tt.wantType) {
				t.Errorf("Type = %v, expected %v", record.Type, tt.wantType)
			}
		})
	}
}

func TestLivestockRecordJSONShape(t *testing.T) {
	record := LivestockRecord{
		StockClass: "Mixed Age Cows",
		Transition: "sale",
		Quantity:   3,
		Year:       1,
		Month:      2,
		Weight:     floatPtr(0),
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	out := string(data)

	if strings.Contains(out, `"Amount"`) {
		t.Errorf("record without an amount must omit the Amount key, got %s", out)
	}
	if !strings.Contains(out, `"Weight":0`) {
		t.Errorf("explicit zero weight must survive serialization, got %s", out)
	}
	if !strings.Contains(out, `"Type":null`) {
		t.Errorf("missing type must serialize as null, got %s", out)
	}
}

func TestNormalizePartitionsByTracker(t *testing.T) {
	sheep := figured.Tracker{
		ID:   figured.FlexString("8"),
		Name: "Sheep",
		StockClasses: []figured.StockClass{
			{UUID: "sc-3", Name: "Ewes", Enabled: true},
		},
	}
	empty := figured.Tracker{ID: figured.FlexString("9"), Name: "Deer"}

	events := []figured.LivestockEvent{
		{
			TrackerID:    figured.FlexString("7"),
			StockClassID: "sc-1",
			Transition:   "purchase",
			Quantity:     1,
			AccrualDate:  figured.AccrualDate{Date: "2024-01-01 00:00:00"},
		},
		{
			TrackerID:    figured.FlexString("8"),
			StockClassID: "sc-3",
			Transition:   "sale",
			Quantity:     2,
			AccrualDate:  figured.AccrualDate{Date: "2024-01-01 00:00:00"},
		},
	}

	normalizer := NewLivestockNormalizer(2023)
	records := normalizer.Normalize([]figured.Tracker{testTracker(), sheep, empty}, events)

	if len(records) != 3 {
		t.Fatalf("Normalize() produced %d partitions, expected 3", len(records))
	}
	if len(records["Dairy Cattle"]) != 1 || len(records["Sheep"]) != 1 {
		t.Errorf("events landed in the wrong partitions: %+v", records)
	}
	if got, ok := records["Deer"]; !ok || len(got) != 0 {
		t.Errorf("tracker without events must still get an empty partition, got %v (present=%v)", got, ok)
	}
}

func TestNormalizeSkipsBadEvents(t *testing.T) {
	events := []figured.LivestockEvent{
		{
			TrackerID:   figured.FlexString("999"),
			Transition:  "purchase",
			AccrualDate: figured.AccrualDate{Date: "2024-01-01 00:00:00"},
		},
		{
			TrackerID:   figured.FlexString("7"),
			Transition:  "purchase",
			AccrualDate: figured.AccrualDate{Date: "not a date"},
		},
	}

	normalizer := NewLivestockNormalizer(2023)
	records := normalizer.Normalize([]figured.Tracker{testTracker()}, events)

	if len(records["Dairy Cattle"]) != 0 {
		t.Errorf("bad events must be skipped, got %+v", records["Dairy Cattle"])
	}
}

func TestBuildTrackerSummary(t *testing.T) {
	normalizer := NewLivestockNormalizer(2023)
	summary := normalizer.BuildTrackerSummary(testTracker(), TrackerAccounts{Purchase: 630, Sale: 250})

	if summary.TrackerType != "stock" {
		t.Errorf("TrackerType = %q, expected stock", summary.TrackerType)
	}
	if summary.StockTypeUUID != "st-uuid-1" {
		t.Errorf("StockTypeUuid = %q, expected st-uuid-1", summary.StockTypeUUID)
	}
	if summary.PurchaseAccount != 630 || summary.SalesAccount != 250 {
		t.Errorf("accounts = %d/%d, expected 630/250", summary.PurchaseAccount, summary.SalesAccount)
	}

	expected := []TrackerStockClass{
		{Name: "Mixed Age Cows", Enabled: true},
		{Name: "Rising 1yr Heifers", Enabled: false},
	}
	if !reflect.DeepEqual(summary.StockClasses, expected) {
		t.Errorf("StockClasses = %+v, expected %+v", summary.StockClasses, expected)
	}
}
