package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"thoreinstein.com/flightcheck/pkg/github"
)

type fakeGitHubClient struct {
	github.RepoReader
	authenticated bool
}

func (f *fakeGitHubClient) IsAuthenticated(context.Context) bool { return f.authenticated }

func TestRunAuthStatus(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runAuthStatus(context.Background(), &fakeGitHubClient{authenticated: true}, "gh_cli", &out))
	assert.Contains(t, out.String(), `Authenticated with GitHub (auth method "gh_cli")`)

	err := runAuthStatus(context.Background(), &fakeGitHubClient{}, "token", &bytes.Buffer{})
	assert.ErrorContains(t, err, "not authenticated")
}

func TestRunAuthLogout(t *testing.T) {
	cache := github.NewFileTokenCache(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, cache.Set(&oauth2.Token{AccessToken: "abc"}))

	var out bytes.Buffer
	require.NoError(t, runAuthLogout(cache, &out))
	assert.Contains(t, out.String(), "Removed cached GitHub token.")

	tok, err := cache.Get()
	require.NoError(t, err)
	assert.Nil(t, tok)
}
