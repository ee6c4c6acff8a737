package main

import (
	"errors"
	"fmt"

	"github.com/claude/healthtrends/internal/config"
	"github.com/claude/healthtrends/internal/mirror"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	syncTo        string
	syncAPIKey    string
	syncDryRun    bool
	syncBatchSize int
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy the last year of records into a local healthtrends server",
	Long: `Fetch the last year of every record family from the health API and
push the records to a healthtrends server running with source.mode local.

Only records newer than the previous sync to the same server are sent. The
checkpoint is kept in mirror.db next to the saved login.

EXAMPLES:

  healthtrends-chart sync --to http://localhost:8080 --api-key <key>
  healthtrends-chart sync --to http://localhost:8080 --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncTo == "" {
			return errors.New("--to is required")
		}
		if syncAPIKey == "" {
			syncAPIKey = cfg.Auth.APIKey
		}
		if syncAPIKey == "" && !syncDryRun {
			return errors.New("--api-key is required")
		}
		if cfg.Source.Mode != config.ModeRemote {
			return errors.New("sync reads from the remote API: source.mode must be remote")
		}

		be, err := openBackend(cmd)
		if err != nil {
			return err
		}
		defer be.Close()

		state, err := mirror.OpenStateDB(cfg.Session.Dir)
		if err != nil {
			return err
		}
		defer state.Close()

		m := mirror.New(be.Client, mirror.NewPusher(syncTo, syncAPIKey), state, syncTo, syncDryRun, syncBatchSize, log)
		stats, err := m.Run(cmd.Context())
		w := out(cmd)
		fmt.Fprintf(w, "families: %d  fetched: %d  skipped: %d  sent: %d  inserted: %d\n",
			stats.Families, stats.RecordsFetched, stats.RecordsSkipped, stats.RecordsSent, stats.RecordsInserted)
		if err != nil {
			return err
		}
		if syncDryRun {
			fmt.Fprintln(w, color.YellowString("dry run: nothing was sent"))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncTo, "to", "", "base URL of the local healthtrends server")
	syncCmd.Flags().StringVar(&syncAPIKey, "api-key", "", "server API key (defaults to auth.api_key)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "fetch and count without sending")
	syncCmd.Flags().IntVar(&syncBatchSize, "batch-size", 500, "records per request")
	rootCmd.AddCommand(syncCmd)
}
