// Package git reads repository identity from a local git checkout, so
// commands can default to the GitHub repository the user is working in.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// RepoURL represents a parsed GitHub remote URL
type RepoURL struct {
	Original string // Original input
	Protocol string // "ssh" or "https"
	Host     string // github.com or an Enterprise host
	Owner    string // GitHub org/user
	Repo     string // Repository name (without .git)
}

// FullName returns "owner/repo".
func (u *RepoURL) FullName() string {
	return u.Owner + "/" + u.Repo
}

// Remote URL patterns
var (
	// SSH format: git@host:owner/repo.git or git@host:owner/repo
	sshURLRegex = regexp.MustCompile(`^git@([a-zA-Z0-9.-]+):([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?/?$`)

	// ssh:// format: ssh://git@host/owner/repo.git
	sshSchemeURLRegex = regexp.MustCompile(`^ssh://git@([a-zA-Z0-9.-]+)(?::\d+)?/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?/?$`)

	// HTTPS format: https://host/owner/repo or https://host/owner/repo.git
	httpsURLRegex = regexp.MustCompile(`^https://(?:[^@/]+@)?([a-zA-Z0-9.-]+)/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?/?$`)
)

// ParseRemoteURL parses the remote URL formats git prints for GitHub
// repositories:
//   - SSH: git@github.com:owner/repo.git
//   - SSH scheme: ssh://git@github.com/owner/repo.git
//   - HTTPS: https://github.com/owner/repo (credentials are ignored)
func ParseRemoteURL(input string) (*RepoURL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("empty URL provided")
	}

	for _, p := range []struct {
		re       *regexp.Regexp
		protocol string
	}{
		{sshURLRegex, "ssh"},
		{sshSchemeURLRegex, "ssh"},
		{httpsURLRegex, "https"},
	} {
		if m := p.re.FindStringSubmatch(input); len(m) == 4 {
			return &RepoURL{
				Original: input,
				Protocol: p.protocol,
				Host:     m[1],
				Owner:    m[2],
				Repo:     m[3],
			}, nil
		}
	}

	return nil, errors.Newf("unrecognized remote URL format: %q", input)
}

// CommandRunner runs a command in dir and returns its standard output.
type CommandRunner interface {
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Output implements CommandRunner.
func (ExecRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), msg)
		}
		return nil, errors.Wrapf(err, "%s %s", name, strings.Join(args, " "))
	}
	return out, nil
}

// Checkout is a local working copy.
type Checkout struct {
	Dir    string
	runner CommandRunner
}

// NewCheckout returns a Checkout for dir using git from PATH.
func NewCheckout(dir string) *Checkout {
	return NewCheckoutWithRunner(dir, ExecRunner{})
}

// NewCheckoutWithRunner returns a Checkout with a custom CommandRunner (for testing).
func NewCheckoutWithRunner(dir string, runner CommandRunner) *Checkout {
	return &Checkout{Dir: dir, runner: runner}
}

// RemoteURL returns the configured URL of remote.
func (c *Checkout) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := c.runner.Output(ctx, c.Dir, "git", "remote", "get-url", remote)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read remote %q", remote)
	}
	url := strings.TrimSpace(string(out))
	if url == "" {
		return "", errors.Newf("remote %q has no URL", remote)
	}
	return url, nil
}

// Repository returns the GitHub repository behind the origin remote.
func (c *Checkout) Repository(ctx context.Context) (*RepoURL, error) {
	if !IsGitRepo(c.Dir) {
		return nil, errors.Newf("%s is not a git repository", c.Dir)
	}
	url, err := c.RemoteURL(ctx, "origin")
	if err != nil {
		return nil, err
	}
	return ParseRemoteURL(url)
}

// CurrentBranch returns the checked-out branch name.
func (c *Checkout) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.runner.Output(ctx, c.Dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", errors.Wrap(err, "failed to get current branch")
	}
	branch := strings.TrimSpace(string(out))
	if branch == "HEAD" || branch == "" {
		return "", errors.New("not on a branch (detached HEAD state)")
	}
	return branch, nil
}

// IsGitRepo checks if a path is a git repository
func IsGitRepo(path string) bool {
	// Check for .git directory or file (for worktrees)
	if info, err := os.Stat(filepath.Join(path, ".git")); err == nil {
		return info.IsDir() || info.Mode().IsRegular()
	}
	return false
}

// String implements fmt.Stringer.
func (u *RepoURL) String() string {
	return fmt.Sprintf("%s/%s (%s)", u.Host, u.FullName(), u.Protocol)
}
