package db

import (
	"database/sql"
	"fmt"
	"time"
)

// RunType identifies which conversion stage a run record belongs to.
type RunType string

const (
	RunTypeAccounts     RunType = "accounts"
	RunTypeLivestock    RunType = "livestock"
	RunTypeTransactions RunType = "transactions"
)

// RunRecord represents one completed conversion stage.
type RunRecord struct {
	ID                int64
	RunType           RunType
	RecordCount       int
	DuplicatesRemoved int
	OutputFile        string
	RanAt             time.Time
}

// RunHistory manages conversion run records.
type RunHistory struct {
	conn *Connection
}

// NewRunHistory creates a new RunHistory instance.
func NewRunHistory(conn *Connection) *RunHistory {
	return &RunHistory{conn: conn}
}

// RecordRun records a completed conversion stage.
func (h *RunHistory) RecordRun(record RunRecord) error {
	query := `
		INSERT INTO conversion_runs (run_type, record_count, duplicates_removed, output_file)
		VALUES (?, ?, ?, ?)
	`

	_, err := h.conn.Exec(query,
		string(record.RunType),
		record.RecordCount,
		record.DuplicatesRemoved,
		record.OutputFile,
	)

	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// LastRun retrieves the most recent run of a given type, or nil when the
// stage has never run.
func (h *RunHistory) LastRun(runType RunType) (*RunRecord, error) {
	query := `
		SELECT id, run_type, record_count, duplicates_removed, output_file, ran_at
		FROM conversion_runs
		WHERE run_type = ?
		ORDER BY ran_at DESC, id DESC
		LIMIT 1
	`

	var record RunRecord
	var runTypeStr string

	err := h.conn.QueryRow(query, string(runType)).Scan(
		&record.ID,
		&runTypeStr,
		&record.RecordCount,
		&record.DuplicatesRemoved,
		&record.OutputFile,
		&record.RanAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	record.RunType = RunType(runTypeStr)
	return &record, nil
}

// Stats represents run statistics.
type Stats struct {
	AccountRuns     int
	LivestockRuns   int
	TransactionRuns int
	LastRun         sql.NullString
}

// GetStats retrieves run statistics.
func (h *RunHistory) GetStats() (*Stats, error) {
	var stats Stats

	counts := []struct {
		runType RunType
		dest    *int
	}{
		{RunTypeAccounts, &stats.AccountRuns},
		{RunTypeLivestock, &stats.LivestockRuns},
		{RunTypeTransactions, &stats.TransactionRuns},
	}

	for _, c := range counts {
		err := h.conn.QueryRow(`SELECT COUNT(*) FROM conversion_runs WHERE run_type = ?`, string(c.runType)).Scan(c.dest)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s runs: %w", c.runType, err)
		}
	}

	err := h.conn.QueryRow(`SELECT MAX(ran_at) FROM conversion_runs`).Scan(&stats.LastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *RunHistory) GetMetadata(key string) (string, error) {
	query := `SELECT value FROM run_metadata WHERE key = ?`

	var value string
	err := h.conn.QueryRow(query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *RunHistory) SetMetadata(key, value string) error {
	query := `
		INSERT INTO run_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := h.conn.Exec(query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
