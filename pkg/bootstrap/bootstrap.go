// Package bootstrap loads configuration for the flightcheck CLI: a .env file
// in the working directory, the user config file, a repository-local
// .flightcheck.toml, and FLIGHTCHECK_* environment variables, in increasing
// order of precedence.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"thoreinstein.com/flightcheck/pkg/config"
)

var (
	lastLoadedConfig  string
	lastLoadedVerbose bool
	loadedConfig      *config.Config
)

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string, verbose bool) (*config.Config, error) {
	if os.Getenv("GO_TEST") != "true" && loadedConfig != nil && cfgFile == lastLoadedConfig && verbose == lastLoadedVerbose {
		return loadedConfig, nil
	}

	// A missing .env is the common case.
	_ = godotenv.Load()

	viper.Reset()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get home directory")
		}
		viper.AddConfigPath(filepath.Join(home, ".config", "flightcheck"))
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("FLIGHTCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	} else if verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	LoadRepoLocalConfig(verbose)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	for _, w := range config.CheckSecurityWarnings(cfg) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w.Message)
	}

	lastLoadedConfig = cfgFile
	lastLoadedVerbose = verbose
	loadedConfig = cfg

	return cfg, nil
}

// LoadRepoLocalConfig merges .flightcheck.toml from the git root and the
// current directory, when present.
func LoadRepoLocalConfig(verbose bool) {
	var paths []string

	if gitRoot, err := FindGitRoot(); err == nil && gitRoot != "" {
		paths = append(paths, filepath.Join(gitRoot, ".flightcheck.toml"))
		if cwd, _ := os.Getwd(); cwd != gitRoot {
			paths = append(paths, ".flightcheck.toml")
		}
	} else {
		paths = append(paths, ".flightcheck.toml")
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}

		local := viper.New()
		local.SetConfigFile(path)
		if err := local.ReadInConfig(); err != nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "Warning: could not read local config %s: %v\n", path, err)
			}
			continue
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "Using repository config: %s\n", path)
		}

		if err := viper.MergeConfigMap(local.AllSettings()); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "Warning: could not merge local config: %v\n", err)
		}
	}
}

// FindGitRoot finds the root of the current git repository
func FindGitRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			if info.IsDir() || info.Mode().IsRegular() {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// NewLogger returns the logger handed to every component. Verbose mode logs
// debug records to w; otherwise only warnings and errors are written.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Reset clears the cached configuration state.
func Reset() {
	lastLoadedConfig = ""
	lastLoadedVerbose = false
	loadedConfig = nil
}
