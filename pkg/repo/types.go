// Package repo turns raw repository access into a bounded, normalized
// Analysis: the file tree, a handful of key files with extracted symbol
// names, recent commits, detected languages and an aggregate size.
package repo

import "time"

// Entry types in Analysis.FileStructure.
const (
	TypeFile      = "file"
	TypeDirectory = "directory"
)

// Entry is one node of the repository tree.
type Entry struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Size     int    `json:"size,omitempty"`
	Language string `json:"language,omitempty"`
}

// KeyFile is an allow-listed root file with truncated content.
type KeyFile struct {
	Path      string   `json:"path"`
	Content   string   `json:"content"`
	Functions []string `json:"functions,omitempty"`
}

// Commit is a recent commit, newest first.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// Analysis is a point-in-time view of a repository. It is not modified
// after Analyze returns.
type Analysis struct {
	FileStructure []Entry   `json:"fileStructure"`
	KeyFiles      []KeyFile `json:"keyFiles"`
	RecentCommits []Commit  `json:"recentCommits"`
	Languages     []string  `json:"languages"`
	TotalFiles    int       `json:"totalFiles"`

	// TotalLines approximates size by summing file sizes in bytes.
	TotalLines int `json:"totalLines"`
}
