package github

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"thoreinstein.com/flightcheck/pkg/config"
)

func TestNewClient_NilConfig(t *testing.T) {
	_, err := NewClient(t.Context(), nil, nil)
	assert.Error(t, err)
}

func TestNewClient_UnknownAuthMethod(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	_, err := NewClient(t.Context(), &config.GitHubConfig{AuthMethod: "ssh"}, nil)
	assert.ErrorContains(t, err, "unknown auth method")
}

func TestNewClient_TokenAuthMissingToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("FLIGHTCHECK_GITHUB_TOKEN", "")

	_, err := NewClient(t.Context(), &config.GitHubConfig{AuthMethod: "token"}, nil)
	assert.ErrorContains(t, err, "token auth requires")
}

func TestNewClient_EnvTokenSelectsAPIClient(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("FLIGHTCHECK_GITHUB_TOKEN", "env-token")

	c, err := NewClient(t.Context(), &config.GitHubConfig{AuthMethod: "gh_cli"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &APIClient{}, c)
}

func TestLogin_UsesValidCachedToken(t *testing.T) {
	cache := NewFileTokenCache(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, cache.Set(&oauth2.Token{AccessToken: "cached", TokenType: "bearer"}))

	var out bytes.Buffer
	token, err := Login(t.Context(), &config.GitHubConfig{}, cache, &out, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "cached", token.AccessToken)
	assert.Empty(t, out.String())
}

func TestLogin_ExpiredTokenWithoutClientID(t *testing.T) {
	cache := NewFileTokenCache(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, cache.Set(&oauth2.Token{AccessToken: "old", Expiry: time.Now().Add(-time.Hour)}))

	_, err := Login(t.Context(), &config.GitHubConfig{}, cache, &bytes.Buffer{}, slog.Default())
	assert.ErrorContains(t, err, "client_id")
}

func TestDeviceAuth_MissingClientID(t *testing.T) {
	_, err := DeviceAuth(t.Context(), OAuthConfig{}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "client_id is required")
}
