package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestHistoryRecordsRunsAndCases(t *testing.T) {
	h := openTestHistory(t)
	report := withErroredCase(threePassedOneFailed())
	require.NoError(t, h.Record(report, "http://localhost:8765/mcp", "TestConfiguration"))

	runs, err := h.Runs(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, RunSummary{
		RunID:     report.RunID,
		StartedAt: testStart,
		Target:    "http://localhost:8765/mcp",
		Project:   "TestConfiguration",
		Total:     5,
		Passed:    3,
		Failed:    1,
		Errored:   1,
		Duration:  1766 * time.Millisecond,
	}, runs[0])

	cases, err := h.Cases(report.RunID)
	require.NoError(t, err)
	var want []CaseRecord
	for _, r := range report.Tests {
		want = append(want, CaseRecord{Section: r.Section, Name: r.Name, Outcome: r.Outcome, Duration: r.Duration, Message: r.Message})
	}
	if diff := cmp.Diff(want, cases); diff != "" {
		t.Errorf("unexpected cases (-want +got):\n%s", diff)
	}
}

func TestHistoryRunsNewestFirst(t *testing.T) {
	h := openTestHistory(t)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, h.Record(framework.RunReport{
			RunID:     id,
			StartedAt: testStart.Add(time.Duration(i) * time.Hour),
		}, "t", "p"))
	}

	runs, err := h.Runs(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].RunID)
	assert.Equal(t, "run-b", runs[1].RunID)
}

func TestHistoryRejectsDuplicateRun(t *testing.T) {
	h := openTestHistory(t)
	report := threePassedOneFailed()
	require.NoError(t, h.Record(report, "t", "p"))
	assert.Error(t, h.Record(report, "t", "p"))

	cases, err := h.Cases(report.RunID)
	require.NoError(t, err)
	assert.Len(t, cases, 4)
}

func TestHistoryReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := OpenHistory(path)
	require.NoError(t, err)
	require.NoError(t, h.Record(threePassedOneFailed(), "t", "p"))
	require.NoError(t, h.Close())

	h, err = OpenHistory(path)
	require.NoError(t, err)
	defer h.Close()
	runs, err := h.Runs(10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
