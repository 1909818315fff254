// Package db provides SQLite-backed history of conversion runs.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Conversion run history
-- One row per completed conversion stage (accounts, livestock, transactions)
CREATE TABLE IF NOT EXISTS conversion_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_type TEXT NOT NULL,            -- 'accounts', 'livestock' or 'transactions'
    record_count INTEGER NOT NULL,     -- records written
    duplicates_removed INTEGER NOT NULL DEFAULT 0,
    output_file TEXT NOT NULL,         -- primary output path of the stage
    ran_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_conversion_runs_type
    ON conversion_runs(run_type);

-- Run metadata
-- Key-value settings recorded alongside runs (reference year, farm id, ...)
CREATE TABLE IF NOT EXISTS run_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
