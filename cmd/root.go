package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"thoreinstein.com/flightcheck/pkg/bootstrap"
	"thoreinstein.com/flightcheck/pkg/config"
)

var cfgFile string
var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flightcheck",
	Short: "Flightcheck - check a repository against its project plan",
	Long: `Flightcheck compares the current state of a GitHub repository with a step
of a project plan and reports whether the work is aligned, partially done, or
misaligned.

A check snapshots the repository (file tree, key files, recent commits), asks
the configured AI provider for a step, feature and file level judgment, and
for misaligned work adds an impact analysis, the remaining next steps and a
set of questions to discuss.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file (default is $HOME/.config/flightcheck/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig bootstraps configuration from the global flags.
func loadConfig() (*config.Config, error) {
	return bootstrap.InitConfig(cfgFile, verbose)
}

// newLogger returns the logger handed to every component.
func newLogger() *slog.Logger {
	return bootstrap.NewLogger(os.Stderr, verbose)
}

// resetConfig clears the cached configuration.
// This is primarily used in tests to ensure each test starts with a fresh config.
func resetConfig() {
	bootstrap.Reset()
	viper.Reset()
}
