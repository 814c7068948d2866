package alignment

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// Level weights in OverallScore.
const (
	stepWeight    = 0.4
	featureWeight = 0.4
	fileWeight    = 0.2
)

// Status thresholds.
const (
	AlignedThreshold = 0.9
	PartialThreshold = 0.5
)

// LevelScore is a score with the status it maps to.
type LevelScore struct {
	Score  float64 `json:"score"`
	Status Status  `json:"status"`
}

// FeatureScore is a named LevelScore.
type FeatureScore struct {
	Name string `json:"name"`
	LevelScore
}

// FileScore adds a human-readable coverage line.
type FileScore struct {
	LevelScore
	Details string `json:"details"`
}

// Breakdown reports per-level scores and statuses.
type Breakdown struct {
	Overall      LevelScore     `json:"overall"`
	StepLevel    LevelScore     `json:"stepLevel"`
	FeatureLevel []FeatureScore `json:"featureLevel"`
	FileLevel    FileScore      `json:"fileLevel"`
}

// OverallScore is the weighted mean of the step score (0.4), the mean
// feature score (0.4) and the found/expected file ratio (0.2). A level with
// nothing to measure scores 1.0. Each level is clamped to [0,1] first.
func OverallScore(r *Result) float64 {
	return stepWeight*clamp(r.StepLevel.Score) +
		featureWeight*featureScore(r) +
		fileWeight*fileScore(r)
}

// DetermineStatus maps a score to a Status: >= 0.9 aligned, >= 0.5 partial,
// otherwise misaligned.
func DetermineStatus(score float64) Status {
	switch {
	case score >= AlignedThreshold:
		return StatusAligned
	case score >= PartialThreshold:
		return StatusPartial
	default:
		return StatusMisaligned
	}
}

// GetBreakdown scores each level of r independently. Features are sorted by
// name.
func GetBreakdown(r *Result) Breakdown {
	overall := OverallScore(r)
	step := clamp(r.StepLevel.Score)
	files := fileScore(r)

	b := Breakdown{
		Overall:      LevelScore{Score: overall, Status: DetermineStatus(overall)},
		StepLevel:    LevelScore{Score: step, Status: DetermineStatus(step)},
		FeatureLevel: []FeatureScore{},
		FileLevel: FileScore{
			LevelScore: LevelScore{Score: files, Status: DetermineStatus(files)},
			Details:    fmt.Sprintf("Found %d of %d expected files", len(r.FileLevel.Found), len(r.FileLevel.Expected)),
		},
	}

	for _, name := range slices.Sorted(maps.Keys(r.FeatureLevel)) {
		s := clamp(r.FeatureLevel[name].Score)
		b.FeatureLevel = append(b.FeatureLevel, FeatureScore{
			Name:       name,
			LevelScore: LevelScore{Score: s, Status: DetermineStatus(s)},
		})
	}
	return b
}

func featureScore(r *Result) float64 {
	if len(r.FeatureLevel) == 0 {
		return 1.0
	}
	var sum float64
	for _, f := range r.FeatureLevel {
		sum += clamp(f.Score)
	}
	return sum / float64(len(r.FeatureLevel))
}

func fileScore(r *Result) float64 {
	if len(r.FileLevel.Expected) == 0 {
		return 1.0
	}
	return clamp(float64(len(r.FileLevel.Found)) / float64(len(r.FileLevel.Expected)))
}

// clamp bounds a score to [0,1]. NaN becomes 0.
func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
