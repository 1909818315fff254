package converter

import (
	"log/slog"
	"math"
	"time"

	"github.com/danilarb/fig-demo-converter/pkg/figured"
)

const accrualDateLayout = "2006-01-02 15:04:05"

// LivestockNormalizer converts raw livestock tracker events into the shared
// flat record shape, partitioned by tracker name.
type LivestockNormalizer struct {
	referenceYear int
}

// NewLivestockNormalizer creates a LivestockNormalizer.
func NewLivestockNormalizer(referenceYear int) *LivestockNormalizer {
	return &LivestockNormalizer{referenceYear: referenceYear}
}

type trackerIndexEntry struct {
	name         string
	stockClasses map[string]string // stock class UUID -> name
}

// Normalize converts events into records keyed by tracker name. Every known
// tracker gets an entry even when it has no events, so empty trackers still
// produce output files. Events referencing an unknown tracker or with an
// unparseable accrual date are skipped with a warning; a single bad event
// does not fail the batch.
func (n *LivestockNormalizer) Normalize(trackers []figured.Tracker, events []figured.LivestockEvent) map[string][]LivestockRecord {
	index := make(map[string]trackerIndexEntry, len(trackers))
	records := make(map[string][]LivestockRecord, len(trackers))

	for _, tracker := range trackers {
		entry := trackerIndexEntry{
			name:         tracker.Name,
			stockClasses: make(map[string]string, len(tracker.StockClasses)),
		}
		for _, sc := range tracker.StockClasses {
			entry.stockClasses[sc.UUID] = sc.Name
		}
		index[tracker.ID.String()] = entry
		records[tracker.Name] = []LivestockRecord{}
	}

	for _, event := range events {
		entry, ok := index[event.TrackerID.String()]
		if !ok {
			slog.Warn("Skipping livestock event for unknown tracker", "tracker_id", event.TrackerID.String())
			continue
		}

		date, err := time.Parse(accrualDateLayout, event.AccrualDate.Date)
		if err != nil {
			slog.Warn("Skipping livestock event with bad accrual date",
				"tracker", entry.name, "accrual_date", event.AccrualDate.Date)
			continue
		}

		record := LivestockRecord{
			StockClass: entry.stockClasses[event.StockClassID],
			Transition: event.Transition,
			Quantity:   event.Quantity,
			Year:       date.Year() - n.referenceYear,
			Month:      int(date.Month()),
		}

		// Amount only makes it into the record when the source amount is
		// non-zero, and always as an absolute value.
		if event.Amount != nil && *event.Amount != 0 {
			amount := math.Abs(*event.Amount)
			record.Amount = &amount
		}
		// A zero weight is still a weight; only a missing one is dropped.
		if event.WeightPerHead != nil {
			weight := *event.WeightPerHead
			record.Weight = &weight
		}
		// Type is always written, explicitly null when the source has none.
		if event.Type != nil && *event.Type != "" {
			eventType := *event.Type
			record.Type = &eventType
		}

		records[entry.name] = append(records[entry.name], record)
	}

	return records
}

// BuildTrackerSummary builds the tracker.json shape for one tracker. The
// purchase and sale account codes come from the tracker's account mappings,
// resolved by the caller.
func (n *LivestockNormalizer) BuildTrackerSummary(tracker figured.Tracker, accounts TrackerAccounts) TrackerSummary {
	summary := TrackerSummary{
		TrackerType:     "stock",
		StockTypeUUID:   tracker.StockTypeID,
		PurchaseAccount: accounts.Purchase,
		SalesAccount:    accounts.Sale,
		StockClasses:    []TrackerStockClass{},
	}

	for _, sc := range tracker.StockClasses {
		summary.StockClasses = append(summary.StockClasses, TrackerStockClass{
			Name:    sc.Name,
			Enabled: sc.Enabled,
		})
	}

	return summary
}
