package report

import (
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"
)

var testStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// threePassedOneFailed is a run whose last case failed.
func threePassedOneFailed() framework.RunReport {
	return framework.RunReport{
		RunID:     "01HWQ5X4Z3RUNID0000000000",
		StartedAt: testStart,
		Tests: []framework.TestResult{
			{Name: "health_check", Section: "Protocol Tests", Outcome: framework.Passed, Duration: 12 * time.Millisecond},
			{Name: "initialize", Section: "Protocol Tests", Outcome: framework.Passed, Duration: 250 * time.Millisecond},
			{Name: "list_projects", Section: "Standalone Tools", Outcome: framework.Passed, Duration: 1500 * time.Millisecond},
			{
				Name: "get_tags", Section: "Project Tools", Outcome: framework.Failed, Duration: 3 * time.Millisecond,
				Message: "Expected success but got error: code -32601: Tool not found: get_tags",
			},
		},
	}
}

func withErroredCase(report framework.RunReport) framework.RunReport {
	report.Tests = append(append([]framework.TestResult(nil), report.Tests...), framework.TestResult{
		Name: "session_terminate", Section: "Session", Outcome: framework.Errored, Duration: time.Millisecond,
		Message: "transport failure: connection refused",
	})
	return report
}
