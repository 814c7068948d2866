package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"thoreinstein.com/flightcheck/pkg/github"
)

// authCmd groups GitHub authentication subcommands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage GitHub authentication",
	Long: `Manage the GitHub credentials flightcheck uses to read repositories.

With github.auth_method = "oauth", 'auth login' runs the OAuth device flow and
stores the token in the system keychain (or a file when no keychain is
available). The "token" and "gh_cli" methods need no login.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with GitHub using the device flow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		_, err = github.Login(cmd.Context(), &cfg.GitHub, github.NewTokenCache(), cmd.OutOrStdout(), newLogger())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in to GitHub.")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached GitHub token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthLogout(github.NewTokenCache(), cmd.OutOrStdout())
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether flightcheck can reach GitHub",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		client, err := github.NewClient(cmd.Context(), &cfg.GitHub, newLogger())
		if err != nil {
			return err
		}
		return runAuthStatus(cmd.Context(), client, cfg.GitHub.AuthMethod, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd, authLogoutCmd, authStatusCmd)
}

func runAuthLogout(cache github.TokenCache, out io.Writer) error {
	if err := cache.Clear(); err != nil {
		return errors.Wrap(err, "failed to clear cached token")
	}
	fmt.Fprintln(out, "Removed cached GitHub token.")
	return nil
}

func runAuthStatus(ctx context.Context, client github.Client, method string, out io.Writer) error {
	if !client.IsAuthenticated(ctx) {
		return errors.Newf("not authenticated with GitHub (auth method %q)", method)
	}
	fmt.Fprintf(out, "Authenticated with GitHub (auth method %q).\n", method)
	return nil
}
