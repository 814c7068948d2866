package github

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// CLIClient implements the Client interface using `gh api`.
type CLIClient struct {
	token  string // Optional token for GITHUB_TOKEN env override
	logger *slog.Logger
	run    func(ctx context.Context, args ...string) (string, error)
}

// CLIClientOption is a functional option for configuring CLIClient.
type CLIClientOption func(*CLIClient)

// WithToken sets a token to be used via GITHUB_TOKEN environment variable.
func WithToken(token string) CLIClientOption {
	return func(c *CLIClient) {
		c.token = token
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) CLIClientOption {
	return func(c *CLIClient) {
		c.logger = logger
	}
}

// NewCLIClient creates a new gh CLI-based GitHub client.
func NewCLIClient(opts ...CLIClientOption) (*CLIClient, error) {
	c := &CLIClient{logger: slog.Default()}
	c.run = c.runGH

	for _, opt := range opts {
		opt(c)
	}

	if _, err := exec.LookPath("gh"); err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("NewCLIClient", "gh CLI not found in PATH", err)
	}

	return c, nil
}

// IsAuthenticated checks if gh CLI is authenticated with GitHub.
func (c *CLIClient) IsAuthenticated(ctx context.Context) bool {
	_, err := c.run(ctx, "auth", "status")
	return err == nil
}

// ListContents lists the entries directly under path.
func (c *CLIClient) ListContents(ctx context.Context, owner, repo, path, ref string) ([]ContentEntry, error) {
	c.logger.Debug("listing contents via gh", "owner", owner, "repo", repo, "path", path)

	out, err := c.run(ctx, "api", contentsEndpoint(owner, repo, path, ref))
	if err != nil {
		return nil, withOperation(err, "ListContents", owner, repo)
	}

	out = strings.TrimSpace(out)
	if strings.HasPrefix(out, "{") {
		var single ContentEntry
		if err := json.Unmarshal([]byte(out), &single); err != nil {
			return nil, fcerrors.NewGitHubErrorWithCause("ListContents", "failed to parse gh output", err).InRepo(owner, repo)
		}
		return []ContentEntry{single}, nil
	}

	var entries []ContentEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("ListContents", "failed to parse gh output", err).InRepo(owner, repo)
	}
	return entries, nil
}

// GetFileContent returns the raw content of the file at path.
func (c *CLIClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	c.logger.Debug("fetching file via gh", "owner", owner, "repo", repo, "path", path)

	out, err := c.run(ctx, "api", "-H", "Accept: application/vnd.github.raw", contentsEndpoint(owner, repo, path, ref))
	if err != nil {
		return "", withOperation(err, "GetFileContent", owner, repo)
	}
	return out, nil
}

// ListCommits returns up to limit commits, newest first.
func (c *CLIClient) ListCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error) {
	c.logger.Debug("listing commits via gh", "owner", owner, "repo", repo, "limit", limit)

	endpoint := "repos/" + owner + "/" + repo + "/commits"
	if limit > 0 {
		endpoint += "?per_page=" + strconv.Itoa(limit)
	}

	out, err := c.run(ctx, "api", endpoint)
	if err != nil {
		return nil, withOperation(err, "ListCommits", owner, repo)
	}

	var resp []ghCommitResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("ListCommits", "failed to parse gh output", err).InRepo(owner, repo)
	}

	if limit > 0 && len(resp) > limit {
		resp = resp[:limit]
	}

	commits := make([]Commit, 0, len(resp))
	for _, r := range resp {
		commits = append(commits, Commit{
			SHA:     r.SHA,
			Message: r.Commit.Message,
			Author:  r.Commit.Author.Name,
			Date:    r.Commit.Author.Date,
		})
	}
	return commits, nil
}

// runGH executes a gh command and returns its output.
func (c *CLIClient) runGH(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	if c.token != "" {
		cmd.Env = append(os.Environ(), "GITHUB_TOKEN="+c.token)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		ghErr := fcerrors.NewGitHubError("gh", errMsg)
		ghErr.StatusCode = ghStatusCode(errMsg)
		ghErr.Retryable = isRetryableGHError(errMsg)
		return "", ghErr
	}

	return stdout.String(), nil
}

func contentsEndpoint(owner, repo, path, ref string) string {
	endpoint := "repos/" + owner + "/" + repo + "/contents"
	if path != "" {
		endpoint += "/" + strings.TrimPrefix(path, "/")
	}
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}
	return endpoint
}

// withOperation stamps the calling operation and repository onto errors
// produced by runGH.
func withOperation(err error, operation, owner, repo string) error {
	var ghErr *fcerrors.GitHubError
	if fcerrors.As(err, &ghErr) && ghErr.Operation == "gh" {
		ghErr.Operation = operation
		return ghErr.InRepo(owner, repo)
	}
	return fcerrors.NewGitHubErrorWithCause(operation, "gh command failed", err).InRepo(owner, repo)
}

// ghStatusCode extracts the "(HTTP 404)" suffix gh api prints on failure.
func ghStatusCode(errMsg string) int {
	_, rest, ok := strings.Cut(errMsg, "(HTTP ")
	if !ok {
		return 0
	}
	code, _, _ := strings.Cut(rest, ")")
	n, err := strconv.Atoi(code)
	if err != nil {
		return 0
	}
	return n
}

// isRetryableGHError checks if a gh CLI error message indicates a retryable error.
func isRetryableGHError(errMsg string) bool {
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"network",
		"502",
		"503",
		"504",
	}

	lowerErr := strings.ToLower(errMsg)
	for _, pattern := range retryablePatterns {
		if strings.Contains(lowerErr, pattern) {
			return true
		}
	}
	return false
}
