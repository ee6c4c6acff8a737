package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/claude/healthtrends/internal/session"
	"github.com/claude/healthtrends/internal/source"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var loginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save an API token for the health account",
	Long: `Verify a token against the health API and save it for later commands.

The token is read from --token or, when omitted, from the first line of
stdin. It is checked by fetching the user profile before it is saved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Source.BaseURL == "" {
			return errors.New("--base-url is required")
		}
		token := strings.TrimSpace(loginToken)
		if token == "" {
			fmt.Fprint(os.Stderr, "Token: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading token: %w", err)
			}
			token = strings.TrimSpace(line)
		}
		if token == "" {
			return errors.New("empty token")
		}

		client := source.NewClient(cfg.Source.BaseURL, cfg.Source.Timeout(), source.StaticToken(token))
		if err := client.CheckAuth(cmd.Context()); err != nil {
			return fmt.Errorf("token rejected: %w", err)
		}

		store, err := openSession()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(cmd.Context(), cfg.Source.BaseURL, token); err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "%s logged in to %s (profile %s)\n",
			color.GreenString("✓"), cfg.Source.BaseURL, cfg.Session.Profile)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved token",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openSession()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(out(cmd), "Logged out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the saved login",
	RunE: func(cmd *cobra.Command, args []string) error {
		login, err := currentLogin(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out(cmd), "%s %s\n%s %s\n",
			faint.Sprint("API:     "), login.BaseURL,
			faint.Sprint("Saved at:"), login.SavedAt.Format("2006-01-02 15:04"))
		return nil
	},
}

func openSession() (*session.Store, error) {
	return session.Open(cfg.Session.Dir, cfg.Session.Profile)
}

func currentLogin(ctx context.Context) (*session.Login, error) {
	store, err := openSession()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	login, err := store.Current(ctx)
	if errors.Is(err, session.ErrNoToken) {
		return nil, errors.New("not logged in: run 'healthtrends-chart login' first")
	}
	return login, err
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "API token (read from stdin when omitted)")
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}
