package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/flightcheck/pkg/alignment"
)

func writeTestReport(t *testing.T, result *alignment.CheckResult) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, writeReport(path, checkReport{
		Project:    "acme/web",
		SnapshotID: "snap-1",
		CommitSHA:  "0123456789abcdef",
		Step:       loginPlanStep(),
		Result:     result,
	}))
	return path
}

func TestRunScore(t *testing.T) {
	path := writeTestReport(t, misalignedCheck())

	var out bytes.Buffer
	require.NoError(t, runScore(path, &out))

	text := out.String()
	// 0.4*0.1 + 0.4*1.0 + 0.2*0.0
	assert.Contains(t, text, "Overall:  0.44 misaligned")
	assert.Contains(t, text, "Step:     0.10 misaligned")
	assert.Contains(t, text, "Files:    0.00 misaligned  Found 0 of 1 expected files")
	assert.NotContains(t, text, "Note:")
}

func TestRunScore_StatusDisagreement(t *testing.T) {
	result := &alignment.CheckResult{AlignmentResult: &alignment.Result{
		Overall:   alignment.StatusPartial,
		StepLevel: alignment.StepLevel{Score: 1},
	}}
	path := writeTestReport(t, result)

	var out bytes.Buffer
	require.NoError(t, runScore(path, &out))
	assert.Contains(t, out.String(), "the model reported partial; the weighted score suggests aligned")
}

func TestRunScore_JSON(t *testing.T) {
	path := writeTestReport(t, misalignedCheck())

	scoreJSON = true
	defer func() { scoreJSON = false }()

	var out bytes.Buffer
	require.NoError(t, runScore(path, &out))

	var b alignment.Breakdown
	require.NoError(t, json.Unmarshal(out.Bytes(), &b))
	assert.Equal(t, alignment.StatusMisaligned, b.Overall.Status)
	assert.InDelta(t, 0.44, b.Overall.Score, 1e-9)
}
