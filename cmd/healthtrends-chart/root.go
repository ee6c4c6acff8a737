package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/claude/healthtrends/internal/backend"
	"github.com/claude/healthtrends/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	baseURL    string
	profile    string
	verbose    bool

	cfg *config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "healthtrends-chart",
	Short: "Health trend charts in the terminal",
	Long: `healthtrends-chart renders weekly, monthly and yearly health charts from
your health account, compares them to your targets, and computes BMI, BMR and
calorie needs from your profile.

QUICK START:

  $ healthtrends-chart login --base-url https://health.example --token <token>
  $ healthtrends-chart chart weight                 # last 7 days
  $ healthtrends-chart chart sleep --period month   # sleep stages, last 30 days
  $ healthtrends-chart chart bmi --period year      # monthly BMI with zones
  $ healthtrends-chart derived                      # BMI, BMR, activity table
  $ healthtrends-chart calories --level moderate --weekly-change -0.5

CONFIG:

  Without --config the tool uses the saved login and the HEALTHTRENDS_*
  environment variables. Logins are kept per --profile in
  ~/.healthtrends/session.db.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		var err error
		cfg, err = config.LoadOptional(configPath)
		if err != nil {
			return err
		}
		if baseURL != "" {
			cfg.Source.BaseURL = baseURL
		}
		if profile != "" {
			cfg.Session.Profile = profile
		}
		return nil
	},
}

// openBackend connects the configured source. In remote mode it falls back
// to the base URL saved at login.
func openBackend(cmd *cobra.Command) (*backend.Backend, error) {
	if cfg.Source.Mode == config.ModeRemote && cfg.Source.BaseURL == "" {
		login, err := currentLogin(cmd.Context())
		if err != nil {
			return nil, err
		}
		cfg.Source.BaseURL = login.BaseURL
	}
	return backend.Open(cmd.Context(), cfg, nil, log)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(out(cmd), Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "health API base URL")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "saved login profile")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
	rootCmd.AddCommand(versionCmd)
}
