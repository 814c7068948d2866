// Package github provides read-only repository access for flightcheck.
//
// Two implementations of Client are provided: APIClient talks to the GitHub
// REST API through go-github, and CLIClient shells out to `gh api` so users
// who are already logged in to the gh CLI need no further setup.
package github

import "time"

// AuthMethod represents the authentication method for GitHub.
type AuthMethod string

const (
	// AuthToken uses a personal access token for authentication.
	AuthToken AuthMethod = "token"
	// AuthOAuth uses the OAuth device flow with a cached token.
	AuthOAuth AuthMethod = "oauth"
	// AuthGHCLI uses the gh CLI's stored credentials.
	AuthGHCLI AuthMethod = "gh_cli"
)

// Entry types reported by ListContents.
const (
	EntryFile = "file"
	EntryDir  = "dir"
)

// ContentEntry is one item of a repository directory listing.
type ContentEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"` // "file", "dir", "symlink" or "submodule"
	Size int    `json:"size"`
}

// Commit is the subset of commit metadata flightcheck records.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Author  string    `json:"author,omitempty"`
	Date    time.Time `json:"date"`
}

// ghCommitResponse mirrors the commit list payload returned by `gh api`.
type ghCommitResponse struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}
