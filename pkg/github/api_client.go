package github

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// APIClient implements Client using the GitHub REST API.
type APIClient struct {
	client  *gh.Client
	baseURL string
	logger  *slog.Logger
}

// APIClientOption is a functional option for configuring APIClient.
type APIClientOption func(*APIClient)

// WithAPILogger sets a custom logger for the API client.
func WithAPILogger(logger *slog.Logger) APIClientOption {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// WithBaseURL points the client at a GitHub Enterprise or test API root.
func WithBaseURL(baseURL string) APIClientOption {
	return func(c *APIClient) {
		c.baseURL = baseURL
	}
}

// NewAPIClient creates a GitHub API client with the given token.
func NewAPIClient(token string, opts ...APIClientOption) (*APIClient, error) {
	if token == "" {
		return nil, fcerrors.NewGitHubError("NewAPIClient", "token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	c := &APIClient{
		client: gh.NewClient(oauth2.NewClient(context.Background(), ts)),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(c.baseURL, "/") + "/")
		if err != nil {
			return nil, fcerrors.NewGitHubErrorWithCause("NewAPIClient", "invalid base URL", err)
		}
		c.client.BaseURL = u
	}

	return c, nil
}

// IsAuthenticated checks if the client is authenticated with GitHub.
func (c *APIClient) IsAuthenticated(ctx context.Context) bool {
	_, _, err := c.client.Users.Get(ctx, "")
	return err == nil
}

// ListContents lists the entries directly under path. When path names a
// file, the single file entry is returned.
func (c *APIClient) ListContents(ctx context.Context, owner, repo, path, ref string) ([]ContentEntry, error) {
	c.logger.Debug("listing contents", "owner", owner, "repo", repo, "path", path, "ref", ref)

	file, dir, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, path, contentOptions(ref))
	if err != nil {
		return nil, toGitHubError("ListContents", owner, repo, resp, err)
	}

	if file != nil {
		return []ContentEntry{entryFromGitHub(file)}, nil
	}

	entries := make([]ContentEntry, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, entryFromGitHub(item))
	}
	return entries, nil
}

// GetFileContent returns the decoded content of the file at path.
func (c *APIClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	c.logger.Debug("fetching file", "owner", owner, "repo", repo, "path", path, "ref", ref)

	file, _, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, path, contentOptions(ref))
	if err != nil {
		return "", toGitHubError("GetFileContent", owner, repo, resp, err)
	}
	if file == nil {
		return "", fcerrors.NewGitHubError("GetFileContent", path+" is a directory").InRepo(owner, repo)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fcerrors.NewGitHubErrorWithCause("GetFileContent", "failed to decode "+path, err).InRepo(owner, repo)
	}
	return content, nil
}

// ListCommits returns up to limit commits from the default branch.
func (c *APIClient) ListCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error) {
	c.logger.Debug("listing commits", "owner", owner, "repo", repo, "limit", limit)

	opts := &gh.CommitsListOptions{ListOptions: gh.ListOptions{PerPage: limit}}
	commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, toGitHubError("ListCommits", owner, repo, resp, err)
	}

	if limit > 0 && len(commits) > limit {
		commits = commits[:limit]
	}

	result := make([]Commit, 0, len(commits))
	for _, rc := range commits {
		author := rc.GetCommit().GetAuthor()
		result = append(result, Commit{
			SHA:     rc.GetSHA(),
			Message: rc.GetCommit().GetMessage(),
			Author:  author.GetName(),
			Date:    author.GetDate().Time,
		})
	}
	return result, nil
}

func contentOptions(ref string) *gh.RepositoryContentGetOptions {
	if ref == "" {
		return nil
	}
	return &gh.RepositoryContentGetOptions{Ref: ref}
}

func entryFromGitHub(rc *gh.RepositoryContent) ContentEntry {
	return ContentEntry{
		Path: rc.GetPath(),
		Name: rc.GetName(),
		Type: rc.GetType(),
		Size: rc.GetSize(),
	}
}

func toGitHubError(operation, owner, repo string, resp *gh.Response, err error) error {
	if resp != nil && resp.StatusCode > 0 {
		return fcerrors.NewGitHubErrorWithStatus(operation, resp.StatusCode, err.Error()).InRepo(owner, repo)
	}
	return fcerrors.NewGitHubErrorWithCause(operation, "API request failed", err).InRepo(owner, repo)
}

// ParseRepo splits "owner/repo", a GitHub HTTPS URL or an SSH remote into
// owner and repository name.
func ParseRepo(s string) (owner, repo string, err error) {
	s = strings.TrimSpace(s)

	if rest, ok := strings.CutPrefix(s, "git@"); ok {
		_, path, found := strings.Cut(rest, ":")
		if !found {
			return "", "", fcerrors.NewGitHubError("ParseRepo", "invalid SSH URL format")
		}
		s = path
	} else if strings.Contains(s, "://") {
		u, perr := url.Parse(s)
		if perr != nil {
			return "", "", fcerrors.NewGitHubErrorWithCause("ParseRepo", "invalid URL", perr)
		}
		s = strings.TrimPrefix(u.Path, "/")
	}

	s = strings.TrimSuffix(strings.TrimSuffix(s, "/"), ".git")
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fcerrors.NewGitHubError("ParseRepo", "expected owner/repo, got "+s)
	}
	return parts[0], parts[1], nil
}
