package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/flightcheck/pkg/config"
)

func TestRootCommandStructure(t *testing.T) {
	// Not parallel - accesses global rootCmd
	cmd := rootCmd

	assert.Equal(t, "flightcheck", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	for _, keyword := range []string{"snapshot", "plan", "misaligned"} {
		assert.Contains(t, cmd.Long, keyword)
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	// Not parallel - accesses global rootCmd
	cmd := rootCmd

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag, "root command should have --config persistent flag")
	assert.Empty(t, configFlag.DefValue)
	assert.Equal(t, "C", configFlag.Shorthand)
	assert.Contains(t, configFlag.Usage, "$HOME/.config/flightcheck")

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag, "root command should have --verbose persistent flag")
	assert.Equal(t, "false", verboseFlag.DefValue)
	assert.Equal(t, "v", verboseFlag.Shorthand)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	registered := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		registered[strings.Split(sub.Use, " ")[0]] = true
	}

	for _, expected := range []string{"check", "snapshot", "score", "discuss", "auth"} {
		assert.True(t, registered[expected], "missing %q subcommand", expected)
	}
}

func TestCheckCommandFlags(t *testing.T) {
	for _, name := range []string{"project", "ref", "current-branch", "model", "json", "fresh", "output", "retries"} {
		assert.NotNil(t, checkCmd.Flags().Lookup(name), "check command should have --%s flag", name)
	}
}

func TestLoadConfig_WithCustomConfigFile(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Chdir(tmpDir)

	configContent := `[ai]
provider = "ollama"

[snapshot]
freshness = "30m"
max_files = 20

[store]
path = "` + filepath.ToSlash(filepath.Join(tmpDir, "snapshots.db")) + `"
`
	customConfigPath := filepath.Join(tmpDir, "custom-config.toml")
	require.NoError(t, os.WriteFile(customConfigPath, []byte(configContent), 0o644))

	resetConfig()
	defer resetConfig()

	oldCfgFile := cfgFile
	cfgFile = customConfigPath
	defer func() { cfgFile = oldCfgFile }()

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.AI.Provider)
	assert.Equal(t, 20, cfg.Snapshot.MaxFiles)
	assert.Equal(t, 30*time.Minute, cfg.Snapshot.Freshness)
	assert.Equal(t, "sqlite", viper.GetString("store.driver"))
}

func TestLoadConfig_NoConfigFile(t *testing.T) {
	// Don't run in parallel - modifies global viper state
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Chdir(tmpDir)

	resetConfig()
	defer resetConfig()

	oldCfgFile := cfgFile
	cfgFile = ""
	defer func() { cfgFile = oldCfgFile }()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Snapshot.Freshness)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
}

func TestCheckModel(t *testing.T) {
	cfg := &config.Config{Alignment: config.AlignmentConfig{Model: "from-config"}}

	assert.Equal(t, "from-flag", checkModel(cfg, "from-flag"))
	assert.Equal(t, "from-config", checkModel(cfg, ""))
	assert.Empty(t, checkModel(&config.Config{}, ""))
}
