package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"walletstats/internal/config"
	"walletstats/internal/ledger"
	applog "walletstats/internal/log"
)

const dateLayout = "2006-01-02"

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print one user's stats report as JSON",
	Long: `Assemble the month-over-month report for --user and print it to stdout.
--at picks the reference day (YYYY-MM-DD, in REPORT_TIMEZONE); today by default.`,
	Args: cobra.NoArgs,
	RunE: runReportCmd,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("user", "u", "", "User ID (required)")
	reportCmd.Flags().String("at", "", "Reference day, YYYY-MM-DD")
	_ = reportCmd.MarkFlagRequired("user")
}

func runReportCmd(cmd *cobra.Command, args []string) error {
	userID, _ := cmd.Flags().GetString("user")
	at, _ := cmd.Flags().GetString("at")

	// Logs go to stderr so stdout holds only the report.
	cfg, logger, err := bootstrap(os.Stderr)
	if err != nil {
		return err
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

	return writeReport(ctx, cfg, res.Backend, logger, cmd.OutOrStdout(), userID, at)
}

// writeReport assembles the report for userID at the given day and writes it as
// indented JSON.
func writeReport(ctx context.Context, cfg *config.Config, store ledger.Store, logger *applog.Logger, out io.Writer, userID, at string) error {
	svc, err := newStatsService(cfg, store, logger, nil)
	if err != nil {
		return err
	}

	now := svc.Now()
	if at != "" {
		day, err := time.ParseInLocation(dateLayout, at, now.Location())
		if err != nil {
			return fmt.Errorf("invalid --at %q: want YYYY-MM-DD", at)
		}
		now = day
	}

	report, err := svc.ReportAt(ctx, userID, now)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"userId":         userID,
		"period":         report.Current.Label(),
		"previousPeriod": report.Previous.Label(),
		"data":           report,
	})
}
