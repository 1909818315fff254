package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/danilarb/fig-demo-converter/pkg/config"
	"github.com/danilarb/fig-demo-converter/pkg/converter"
	"github.com/danilarb/fig-demo-converter/pkg/db"
	"github.com/danilarb/fig-demo-converter/pkg/figured"
	"github.com/danilarb/fig-demo-converter/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	dryRun         bool
	offline        bool
	dedupLivestock bool
	dedupInvoices  bool
)

// convertCmd represents the convert command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert farm data to reporting-template JSON",
	Long: `Convert the farm's accounting data into reporting-template JSON.

This command:
1. Classifies the account list into revenue and equity-like sets
2. Normalizes livestock tracker transactions per tracker
3. Flattens exported cashflow reports into flat transactions
4. Optionally removes transactions duplicated by livestock events or invoices
5. Writes JSON outputs and records run history in SQLite

Accounts and livestock transactions come from raw dumps in the input
directory when present, from the API otherwise. Cashflow reports are always
read from exported *cashflow.json dumps.

Example:
  fig-convert convert
  fig-convert convert --dedup-livestock --dedup-invoices
  fig-convert convert --offline --dry-run`,
	Run: runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&dryRun, "dry-run", false, "dry run mode (no file writes, no run records)")
	convertCmd.Flags().BoolVar(&offline, "offline", false, "never call the API; all inputs must be on disk")
	convertCmd.Flags().BoolVar(&dedupLivestock, "dedup-livestock", false, "remove transactions duplicated by livestock events")
	convertCmd.Flags().BoolVar(&dedupInvoices, "dedup-invoices", false, "remove transactions duplicated by invoices")
}

func runConvert(cmd *cobra.Command, args []string) {
	slog.Info("Starting conversion", "dry_run", dryRun, "offline", offline)

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate("output.root"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	rules, err := converter.LoadRules(cfg.Output.RulesPath)
	exitOnError(err, "failed to load conversion rules")

	legacyRules, err := rules.LegacyRules()
	exitOnError(err, "invalid legacy account rules")

	resolver := storage.New(storage.Config{
		OutputRoot:   cfg.Output.Root,
		DatabasePath: cfg.Output.DBPath,
		InputDir:     cfg.Output.InputDir,
	})
	repo := storage.NewRepository(resolver)

	conn, err := db.Open(resolver.DatabasePath())
	exitOnError(err, "failed to open run history database")
	defer conn.Close()

	history := db.NewRunHistory(conn)

	client := buildClient(cfg)

	// Accounts
	classification := convertAccounts(cfg, rules, repo, history, client)

	// Livestock
	records, trackerAccounts := convertLivestock(rules, repo, history, client, resolver)

	// Transactions
	convertTransactions(rules, legacyRules, classification, records, trackerAccounts, repo, history, client, resolver)

	if !dryRun {
		if err := history.SetMetadata("reference_year", fmt.Sprintf("%d", rules.ReferenceYear)); err != nil {
			slog.Error("Failed to record reference year", "error", err)
		}
	}

	slog.Info("Conversion completed")
	fmt.Println("Done!")
}

// buildClient constructs an API client with a valid access token, or nil in
// offline mode. Stages that need the API fail when the client is nil and
// their inputs are not on disk.
func buildClient(cfg *config.Config) *figured.Client {
	if offline {
		return nil
	}

	if err := cfg.Validate("figured.farmId", "figured.apiUrl"); err != nil {
		exitOnError(err, "invalid configuration")
	}

	manager := figured.NewTokenManager(oauthConfig(cfg), cfg.Figured.TokenPath)
	token, err := manager.GetValidToken(context.Background())
	exitOnError(err, "failed to get access token (run 'fig-convert auth' first)")

	return figured.NewClient(figured.ClientConfig{
		APIURL:      cfg.Figured.APIURL,
		FarmID:      cfg.Figured.FarmID,
		AccessToken: token.AccessToken,
		Timeout:     30 * time.Second,
	})
}

func convertAccounts(cfg *config.Config, rules *converter.Rules, repo *storage.Repository, history *db.RunHistory, client *figured.Client) *converter.Classification {
	raw, found, err := repo.ReadRawAccounts()
	exitOnError(err, "failed to read raw accounts dump")

	if !found {
		if client == nil {
			exitOnError(fmt.Errorf("no accounts dump in input directory"), "offline mode needs original_accounts.json")
		}
		slog.Info("Fetching accounts", "farm", cfg.Figured.FarmID)
		raw, err = client.FetchAccounts()
		exitOnError(err, "failed to fetch accounts")
	}
	slog.Info("Loaded accounts", "count", len(raw), "from_dump", found)

	classifier := converter.NewClassifier(rules.SystemAccounts)

	// A classification error aborts the whole batch before anything is
	// written; the system account table has to be extended by hand.
	classification, err := classifier.Classify(raw)
	exitOnError(err, "accounts not converted")

	slog.Info("Classified accounts",
		"accounts", len(classification.Accounts),
		"revenue", len(classification.Revenue),
		"equity", len(classification.Equity),
	)

	if dryRun {
		fmt.Printf("[DRY RUN] Would write %d accounts to %s\n", len(classification.Accounts), "accounts.json")
		return classification
	}

	exitOnError(repo.WriteAccounts(classification.Accounts), "failed to write accounts.json")
	exitOnError(repo.WriteRevenue(classification.Revenue), "failed to write revenue.json")
	exitOnError(repo.WriteEquity(classification.Equity), "failed to write equity.json")

	if err := history.RecordRun(db.RunRecord{
		RunType:     db.RunTypeAccounts,
		RecordCount: len(classification.Accounts),
		OutputFile:  "accounts/accounts.json",
	}); err != nil {
		slog.Error("Failed to record accounts run", "error", err)
	}

	slog.Info("Accounts converted successfully")
	return classification
}

func convertLivestock(rules *converter.Rules, repo *storage.Repository, history *db.RunHistory, client *figured.Client, resolver *storage.PathResolver) (map[string][]converter.LivestockRecord, map[string]converter.TrackerAccounts) {
	if client == nil {
		// Trackers and their account mappings only exist behind the API.
		slog.Warn("Skipping livestock conversion in offline mode")
		return nil, nil
	}

	trackers, err := client.FetchAllTrackers()
	exitOnError(err, "failed to fetch livestock trackers")

	events, found, err := repo.ReadRawLivestock()
	exitOnError(err, "failed to read raw livestock dump")
	if !found {
		events, err = client.FetchAllLivestockTransactions()
		exitOnError(err, "failed to fetch livestock transactions")
	}
	slog.Info("Loaded livestock data", "trackers", len(trackers), "events", len(events), "from_dump", found)

	normalizer := converter.NewLivestockNormalizer(rules.ReferenceYear)
	records := normalizer.Normalize(trackers, events)

	trackerAccounts := make(map[string]converter.TrackerAccounts, len(trackers))
	for _, tracker := range trackers {
		accounts, err := resolveTrackerAccounts(client, tracker)
		if err != nil {
			slog.Error("Skipping tracker with unresolvable account mappings", "tracker", tracker.Name, "error", err)
			continue
		}
		trackerAccounts[tracker.Name] = *accounts

		if dryRun {
			fmt.Printf("[DRY RUN] Would write %d livestock records to %s\n",
				len(records[tracker.Name]), resolver.TrackerDir(tracker.Name))
			continue
		}

		exitOnError(repo.WriteTrackerRecords(tracker.Name, records[tracker.Name]), "failed to write tracker transactions")
		exitOnError(repo.WriteTrackerSummary(tracker.Name, normalizer.BuildTrackerSummary(tracker, *accounts)), "failed to write tracker summary")
	}

	if !dryRun {
		if err := history.RecordRun(db.RunRecord{
			RunType:     db.RunTypeLivestock,
			RecordCount: len(events),
			OutputFile:  "livestock",
		}); err != nil {
			slog.Error("Failed to record livestock run", "error", err)
		}
	}

	slog.Info("Livestock converted successfully", "trackers", len(trackerAccounts))
	return records, trackerAccounts
}

// resolveTrackerAccounts resolves a tracker's purchase and sale account
// mappings to numeric account codes via the API.
func resolveTrackerAccounts(client *figured.Client, tracker figured.Tracker) (*converter.TrackerAccounts, error) {
	mappings, err := client.FetchAccountMappings(tracker.ID.String())
	if err != nil {
		return nil, err
	}

	var accounts converter.TrackerAccounts
	var havePurchase, haveSale bool

	for _, mapping := range mappings {
		switch mapping.Transition {
		case "purchase", "sale":
		default:
			continue
		}

		account, err := client.FetchAccount(mapping.AccountID)
		if err != nil {
			return nil, err
		}
		if account.Code == nil {
			return nil, fmt.Errorf("account %s for %s has no code", mapping.AccountID, mapping.Transition)
		}
		code, err := account.Code.Int()
		if err != nil {
			return nil, fmt.Errorf("account %s for %s has non-numeric code %q", mapping.AccountID, mapping.Transition, account.Code.String())
		}

		if mapping.Transition == "purchase" {
			accounts.Purchase = code
			havePurchase = true
		} else {
			accounts.Sale = code
			haveSale = true
		}
	}

	if !havePurchase || !haveSale {
		return nil, fmt.Errorf("tracker %s is missing a purchase or sale account mapping", tracker.Name)
	}

	return &accounts, nil
}

func convertTransactions(rules *converter.Rules, legacyRules []converter.LegacyAccountRule, classification *converter.Classification, records map[string][]converter.LivestockRecord, trackerAccounts map[string]converter.TrackerAccounts, repo *storage.Repository, history *db.RunHistory, client *figured.Client, resolver *storage.PathResolver) {
	reports, err := repo.ReadCashflowReports()
	exitOnError(err, "failed to read cashflow dumps")

	if len(reports) == 0 {
		slog.Warn("No cashflow dumps found, skipping transactions", "input_dir", resolver.InputDir())
		return
	}

	flattener := converter.NewFlattener(classification, rules.ReferenceYear, legacyRules)

	var transactions []converter.Transaction
	for _, report := range reports {
		transactions = append(transactions, flattener.Flatten(report)...)
	}
	slog.Info("Flattened cashflow reports", "reports", len(reports), "transactions", len(transactions))

	flattened := len(transactions)
	matcher := converter.NewMatcher(rules.ReferenceYear)

	if dedupLivestock {
		if records == nil {
			slog.Warn("Livestock dedup requested but livestock stage did not run")
		} else {
			transactions = matcher.RemoveLivestockDuplicates(transactions, records, trackerAccounts)
			slog.Info("Removed livestock duplicates", "removed", flattened-len(transactions))
		}
	}

	if dedupInvoices {
		if client == nil {
			slog.Warn("Invoice dedup requested but offline mode has no invoices")
		} else {
			invoices, err := client.FetchAllInvoices()
			exitOnError(err, "failed to fetch invoices")

			before := len(transactions)
			transactions = matcher.RemoveInvoiceDuplicates(transactions, invoices, classification.Accounts)
			slog.Info("Removed invoice duplicates", "invoices", len(invoices), "removed", before-len(transactions))
		}
	}

	if dryRun {
		fmt.Printf("[DRY RUN] Would write %d transactions to %s\n", len(transactions), resolver.TransactionsFile())
		return
	}

	exitOnError(repo.WriteTransactions(transactions), "failed to write transactions.json")

	if err := history.RecordRun(db.RunRecord{
		RunType:           db.RunTypeTransactions,
		RecordCount:       len(transactions),
		DuplicatesRemoved: flattened - len(transactions),
		OutputFile:        "transactions/transactions.json",
	}); err != nil {
		slog.Error("Failed to record transactions run", "error", err)
	}

	slog.Info("Transactions converted successfully", "count", len(transactions))
}
