package snapshot

import "thoreinstein.com/flightcheck/pkg/repo"

// Diff summarizes what changed between two snapshots.
type Diff struct {
	AddedFiles    []string `json:"addedFiles"`
	RemovedFiles  []string `json:"removedFiles"`
	ModifiedFiles []string `json:"modifiedFiles"`

	// NewCommits counts commits in the newer snapshot whose SHA differs from
	// the older snapshot's head commit.
	NewCommits int `json:"newCommits"`
}

// CompareSnapshots diffs file paths between two snapshots. Paths are
// compared by identity only, so every file present in both is reported as
// modified.
func CompareSnapshots(older, newer *Snapshot) Diff {
	oldFiles := filePaths(older)
	newFiles := filePaths(newer)

	oldSet := make(map[string]bool, len(oldFiles))
	for _, p := range oldFiles {
		oldSet[p] = true
	}
	newSet := make(map[string]bool, len(newFiles))
	for _, p := range newFiles {
		newSet[p] = true
	}

	d := Diff{AddedFiles: []string{}, RemovedFiles: []string{}, ModifiedFiles: []string{}}
	for _, p := range newFiles {
		if oldSet[p] {
			d.ModifiedFiles = append(d.ModifiedFiles, p)
		} else {
			d.AddedFiles = append(d.AddedFiles, p)
		}
	}
	for _, p := range oldFiles {
		if !newSet[p] {
			d.RemovedFiles = append(d.RemovedFiles, p)
		}
	}

	for _, c := range newer.Data.RecentCommits {
		if c.SHA != older.Data.CommitSHA {
			d.NewCommits++
		}
	}
	return d
}

func filePaths(s *Snapshot) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, e := range s.Data.FileStructure {
		if e.Type == repo.TypeFile && !seen[e.Path] {
			seen[e.Path] = true
			paths = append(paths, e.Path)
		}
	}
	return paths
}
