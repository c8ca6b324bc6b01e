package cmd

import (
	"fmt"
	"time"

	"adaudit/features/accounts"
	accountrepo "adaudit/features/accounts/repository"
	"adaudit/internal/db"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

// AccountsCommand manages the registry of connected ad accounts.
var AccountsCommand = &cli.Command{
	Name:  "accounts",
	Usage: "Manage connected ad accounts",
	Subcommands: []*cli.Command{
		{
			Name:   "list",
			Usage:  "List registered accounts",
			Action: listAccounts,
		},
		{
			Name:  "add",
			Usage: "Register an ad account",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true, Usage: "Display name"},
				&cli.StringFlag{Name: "platform", Required: true, Usage: "Ad platform: meta or google"},
				&cli.StringFlag{Name: "external-id", Required: true, Usage: "Platform-side account ID"},
			},
			Action: addAccount,
		},
		{
			Name:      "remove",
			Usage:     "Remove an account by ID",
			ArgsUsage: "<accountID>",
			Action:    removeAccount,
		},
	},
}

func accountRepository() (accountrepo.AccountRepository, error) {
	dbConn, err := db.GetDB()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return accountrepo.NewSQLiteAccountRepository(dbConn), nil
}

func listAccounts(c *cli.Context) error {
	repo, err := accountRepository()
	if err != nil {
		return err
	}

	accts, err := repo.List(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accts) == 0 {
		fmt.Println("No accounts registered.")
		return nil
	}
	for _, a := range accts {
		fmt.Printf("%s\t%s\t%s\t%s\n", a.ID, a.Platform, a.Name, a.ExternalID)
	}
	return nil
}

func addAccount(c *cli.Context) error {
	platform := accounts.Platform(c.String("platform"))
	if !platform.IsValid() {
		return fmt.Errorf("unknown platform %q", c.String("platform"))
	}

	repo, err := accountRepository()
	if err != nil {
		return err
	}

	acct := accounts.Account{
		ID:          uuid.New().String(),
		Name:        c.String("name"),
		Platform:    platform,
		ExternalID:  c.String("external-id"),
		ConnectedAt: time.Now().UTC(),
	}
	if err := repo.Save(c.Context, acct); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	fmt.Printf("Registered account %s (%s)\n", acct.ID, acct.Name)
	return nil
}

func removeAccount(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("accountID argument is required")
	}

	repo, err := accountRepository()
	if err != nil {
		return err
	}

	if err := repo.Delete(c.Context, id); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}

	fmt.Printf("Removed account %s\n", id)
	return nil
}
