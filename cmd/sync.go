package cmd

import (
	"fmt"

	syncfeature "adaudit/features/sync"
	"adaudit/features/web"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// SyncCommand runs a bulk sync from the command line and prints the report.
var SyncCommand = &cli.Command{
	Name:  "sync",
	Usage: "Run a bulk sync over registered ad accounts",
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "account",
			Aliases: []string{"a"},
			Usage:   "Account IDs to sync (repeatable). If omitted, sync all accounts.",
		},
		&cli.StringFlag{
			Name:    "operation",
			Aliases: []string{"o"},
			Value:   "sync",
			Usage:   "Operation to run: sync, redownload or purge",
		},
	},
	Action: runBulkSync,
}

func runBulkSync(c *cli.Context) error {
	op := syncfeature.Operation(c.String("operation"))
	if !op.IsValid() {
		return fmt.Errorf("unknown operation %q", c.String("operation"))
	}

	svcs, err := web.NewServices()
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.ReportStore.Close()
	if svcs.AuditDispatcher != nil {
		defer svcs.AuditDispatcher.Stop()
	}

	accts, err := svcs.AccountRepository.List(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if selected := c.StringSlice("account"); len(selected) > 0 {
		wanted := make(map[string]bool, len(selected))
		for _, id := range selected {
			wanted[id] = true
		}
		filtered := accts[:0]
		for _, a := range accts {
			if wanted[a.ID] {
				filtered = append(filtered, a)
			}
		}
		accts = filtered
	}

	if len(accts) == 0 {
		return fmt.Errorf("no accounts to sync")
	}

	log.Info().Str("operation", string(op)).Int("accounts", len(accts)).Msg("Starting bulk sync")

	report, err := svcs.SyncManager.RunBlocking(c.Context, op, accts)
	if err != nil {
		return fmt.Errorf("failed to run bulk sync: %w", err)
	}

	printReport(report)
	return nil
}

func printReport(report *syncfeature.BulkSession) {
	fmt.Printf("Session %s finished in %dms (cancelled: %v)\n",
		report.ID, report.TotalDurationMS, report.IsCancelled)

	for _, result := range report.Accounts {
		switch result.Status {
		case syncfeature.AccountSuccess:
			color.Green("  %s: success (%d campaigns, %d ad sets, %d creatives) in %dms",
				result.Name, result.Counts.Campaigns, result.Counts.AdSets, result.Counts.Creatives, result.DurationMS)
		case syncfeature.AccountError:
			color.Red("  %s: error: %s", result.Name, result.Error)
		case syncfeature.AccountCancelled:
			color.Yellow("  %s: cancelled", result.Name)
		default:
			fmt.Printf("  %s: %s\n", result.Name, result.Status)
		}
	}
}
