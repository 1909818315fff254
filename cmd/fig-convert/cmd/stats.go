package cmd

import (
	"fmt"
	"log/slog"

	"github.com/danilarb/fig-demo-converter/pkg/config"
	"github.com/danilarb/fig-demo-converter/pkg/db"
	"github.com/danilarb/fig-demo-converter/pkg/storage"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display conversion run statistics",
	Long: `Display statistics about past conversion runs.

Shows:
- Run counts per conversion stage
- Record count and duplicates removed by the latest transactions run
- Last run timestamp

Example:
  fig-convert stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("output.root"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	resolver := storage.New(storage.Config{
		OutputRoot:   cfg.Output.Root,
		DatabasePath: cfg.Output.DBPath,
		InputDir:     cfg.Output.InputDir,
	})

	dbPath := resolver.DatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewRunHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Conversion Statistics ===")
	fmt.Printf("Account runs:       %d\n", stats.AccountRuns)
	fmt.Printf("Livestock runs:     %d\n", stats.LivestockRuns)
	fmt.Printf("Transaction runs:   %d\n", stats.TransactionRuns)

	if lastRun, err := history.LastRun(db.RunTypeTransactions); err == nil && lastRun != nil {
		fmt.Printf("Last transactions:  %d records (%d duplicates removed)\n",
			lastRun.RecordCount, lastRun.DuplicatesRemoved)
	}

	if stats.LastRun.Valid {
		fmt.Printf("Last run:           %s\n", stats.LastRun.String)
	} else {
		fmt.Printf("Last run:           (never)\n")
	}

	if year, err := history.GetMetadata("reference_year"); err == nil && year != "" {
		fmt.Printf("Reference year:     %s\n", year)
	}

	fmt.Println()
}
