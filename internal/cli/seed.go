package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"walletstats/internal/amqp"
	"walletstats/internal/config"
	"walletstats/internal/ledger"
	"walletstats/internal/ledger/memory"
	applog "walletstats/internal/log"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load transactions from a JSON file into the configured SQL backend",
	Long: `Insert the wallets and transactions of --file (the memory seed format: a JSON
array of transactions, or an object with "wallets" and "transactions") into the
SQLite or Postgres ledger. When AMQP_URL is set, one ledger-change event
is published per affected user so running servers drop their cached reports.`,
	Args: cobra.NoArgs,
	RunE: runSeedCmd,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringP("file", "f", "", "Seed file (required)")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeedCmd(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")

	cfg, logger, err := bootstrap(os.Stderr)
	if err != nil {
		return err
	}
	if cfg.DataBackend == "memory" {
		return fmt.Errorf("seed needs a persistent backend; set MEMORY_SEED_FILE to seed the memory backend")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	users, err := seedFile(ctx, res.Backend, path)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Seeded ledger", "file", path, "users", len(users), applog.FieldOperation, applog.OpSeed)

	return announceChanges(ctx, cfg, users, logger)
}

// seedFile inserts the wallets and transactions of path and returns the affected
// users.
func seedFile(ctx context.Context, w ledger.Writer, path string) ([]string, error) {
	seed, err := memory.ReadSeedFile(path)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var users []string
	touch := func(userID string) {
		if !seen[userID] {
			seen[userID] = true
			users = append(users, userID)
		}
	}

	for i, wallet := range seed.Wallets {
		if _, err := w.InsertWallet(ctx, wallet); err != nil {
			return users, fmt.Errorf("insert wallet %d: %w", i, err)
		}
		touch(wallet.UserID)
	}
	for i, tx := range seed.Transactions {
		if _, err := w.Insert(ctx, tx); err != nil {
			return users, fmt.Errorf("insert record %d: %w", i, err)
		}
		touch(tx.UserID)
	}
	return users, nil
}

func announceChanges(ctx context.Context, cfg *config.Config, users []string, logger *applog.Logger) error {
	if cfg.AMQPURL == "" || len(users) == 0 {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger, nil)
	if err != nil {
		return fmt.Errorf("connect to AMQP: %w", err)
	}
	defer client.Close()

	now := time.Now()
	for _, userID := range users {
		if err := client.PublishLedgerChanged(ctx, userID, now); err != nil {
			return fmt.Errorf("announce ledger change for %s: %w", userID, err)
		}
	}
	logger.InfoContext(ctx, "Announced ledger changes", "users", len(users), applog.FieldOperation, applog.OpPublish)
	return nil
}
