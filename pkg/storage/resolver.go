// Package storage lays out and persists the converter's JSON inputs and
// outputs under a single output root.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver manages paths for converted JSON files, raw API dumps and the
// run-history database.
type PathResolver struct {
	outputRoot string
	dbPath     string
	inputDir   string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// OutputRoot is the root directory for all converted output
	// (e.g. ~/farm-exports)
	OutputRoot string
	// DatabasePath is the path to the SQLite database file for run history
	DatabasePath string
	// InputDir is where raw API dumps live (original_accounts.json,
	// *cashflow.json, original_livestock.json)
	InputDir string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {OutputRoot}/.history/runs.db
// If InputDir is empty, it defaults to {OutputRoot}/input
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.OutputRoot, ".history", "runs.db")
	}

	inputDir := config.InputDir
	if inputDir == "" {
		inputDir = filepath.Join(config.OutputRoot, "input")
	}

	return &PathResolver{
		outputRoot: config.OutputRoot,
		dbPath:     dbPath,
		inputDir:   inputDir,
	}
}

// OutputRoot returns the output root directory.
func (p *PathResolver) OutputRoot() string {
	return p.outputRoot
}

// DatabasePath returns the run-history database file path.
func (p *PathResolver) DatabasePath() string {
	return p.dbPath
}

// InputDir returns the raw dump input directory.
func (p *PathResolver) InputDir() string {
	return p.inputDir
}

// AccountsFile returns the path of the converted account list.
func (p *PathResolver) AccountsFile() string {
	return filepath.Join(p.outputRoot, "accounts", "accounts.json")
}

// RevenueFile returns the path of the revenue identifier list.
func (p *PathResolver) RevenueFile() string {
	return filepath.Join(p.outputRoot, "accounts", "revenue.json")
}

// EquityFile returns the path of the equity-like identifier list.
func (p *PathResolver) EquityFile() string {
	return filepath.Join(p.outputRoot, "accounts", "equity.json")
}

// TransactionsFile returns the path of the flat transaction list.
func (p *PathResolver) TransactionsFile() string {
	return filepath.Join(p.outputRoot, "transactions", "transactions.json")
}

// TrackerDir returns the output directory for one livestock tracker.
// Example: {root}/livestock/Dairy Cows
func (p *PathResolver) TrackerDir(tracker string) string {
	return filepath.Join(p.outputRoot, "livestock", tracker)
}

// TrackerSummaryFile returns the tracker.json path for one tracker.
func (p *PathResolver) TrackerSummaryFile(tracker string) string {
	return filepath.Join(p.TrackerDir(tracker), "tracker.json")
}

// TrackerTransactionsFile returns the transactions.json path for one tracker.
func (p *PathResolver) TrackerTransactionsFile(tracker string) string {
	return filepath.Join(p.TrackerDir(tracker), "transactions.json")
}

// RawAccountsFile returns the path of a raw accounts dump, if one is used
// instead of the API.
func (p *PathResolver) RawAccountsFile() string {
	return filepath.Join(p.inputDir, "original_accounts.json")
}

// RawLivestockFile returns the path of a raw livestock transactions dump.
func (p *PathResolver) RawLivestockFile() string {
	return filepath.Join(p.inputDir, "original_livestock.json")
}

// CashflowFiles lists the exported cashflow report dumps in the input
// directory. Any file whose name ends in "cashflow.json" counts.
func (p *PathResolver) CashflowFiles() ([]string, error) {
	entries, err := os.ReadDir(p.inputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), "cashflow.json") {
			files = append(files, filepath.Join(p.inputDir, entry.Name()))
		}
	}

	return files, nil
}

// EnsureDir creates a directory if it doesn't exist, with all parents.
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists and is non-empty. The original export
// tooling leaves zero-byte placeholders behind; those count as missing.
func (p *PathResolver) FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return info.Size() > 0
}
