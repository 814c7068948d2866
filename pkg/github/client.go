package github

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/oauth2"

	"thoreinstein.com/flightcheck/pkg/config"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// RepoReader is the read surface the repository analyzer needs.
type RepoReader interface {
	// ListContents lists the entries directly under path ("" for the root).
	ListContents(ctx context.Context, owner, repo, path, ref string) ([]ContentEntry, error)

	// GetFileContent returns the decoded content of a single file.
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error)

	// ListCommits returns up to limit commits, newest first.
	ListCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error)
}

// Client defines read-only access to a GitHub repository.
type Client interface {
	RepoReader

	// IsAuthenticated checks if the client is authenticated with GitHub.
	IsAuthenticated(ctx context.Context) bool
}

var (
	_ Client = (*CLIClient)(nil)
	_ Client = (*APIClient)(nil)
)

// NewClient creates a GitHub client based on the provided configuration.
//
// Token resolution order:
//  1. GITHUB_TOKEN environment variable
//  2. FLIGHTCHECK_GITHUB_TOKEN environment variable
//  3. Token from config file (github.token)
//  4. Cached OAuth token (keychain or file), for auth_method "oauth"
//  5. OAuth device flow, for auth_method "oauth"
//  6. gh CLI
func NewClient(ctx context.Context, cfg *config.GitHubConfig, logger *slog.Logger) (Client, error) {
	if cfg == nil {
		return nil, fcerrors.NewGitHubError("NewClient", "github config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("FLIGHTCHECK_GITHUB_TOKEN")
	}
	if token == "" {
		token = cfg.Token
	}

	apiOpts := []APIClientOption{WithAPILogger(logger)}
	if cfg.BaseURL != "" {
		apiOpts = append(apiOpts, WithBaseURL(cfg.BaseURL))
	}

	switch AuthMethod(cfg.AuthMethod) {
	case AuthToken:
		if token == "" {
			return nil, fcerrors.NewGitHubError("NewClient",
				"token auth requires GITHUB_TOKEN, FLIGHTCHECK_GITHUB_TOKEN, or github.token in config")
		}
		return NewAPIClient(token, apiOpts...)

	case AuthOAuth:
		if token != "" {
			return NewAPIClient(token, apiOpts...)
		}
		cached, err := Login(ctx, cfg, NewTokenCache(), os.Stderr, logger)
		if err != nil {
			return nil, err
		}
		return NewAPIClient(cached.AccessToken, apiOpts...)

	case AuthGHCLI, "":
		if token != "" {
			return NewAPIClient(token, apiOpts...)
		}
		return NewCLIClient(WithLogger(logger))

	default:
		return nil, fcerrors.NewGitHubError("NewClient", "unknown auth method: "+cfg.AuthMethod)
	}
}

// Login returns a valid cached OAuth token, running the device flow and
// caching the result when none is available.
func Login(ctx context.Context, cfg *config.GitHubConfig, cache TokenCache, stdout io.Writer, logger *slog.Logger) (*oauth2.Token, error) {
	cached, err := cache.Get()
	if err != nil {
		logger.Debug("failed to read cached token", "error", err)
	}
	if cached != nil && cached.Valid() {
		logger.Debug("using cached OAuth token")
		return cached, nil
	}

	if cfg.ClientID == "" {
		return nil, fcerrors.NewGitHubError("Login",
			"oauth auth requires github.client_id in config; alternatively use the gh_cli auth method")
	}

	apiToken, err := DeviceAuth(ctx, OAuthConfig{ClientID: cfg.ClientID, Scopes: []string{DefaultScopes}}, stdout)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{AccessToken: apiToken.Token, TokenType: apiToken.Type}
	if err := cache.Set(token); err != nil {
		logger.Warn("failed to cache token", "error", err)
	} else {
		logger.Debug("cached OAuth token for future use")
	}

	return token, nil
}
