package report

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// JSONReport builds the machine-readable form of a run. Unlike the JUnit form it keeps the
// distinction between Failed and Errored.
func JSONReport(report framework.RunReport) ldvalue.Value {
	passed, failed, errored := report.Counts()

	tests := ldvalue.ArrayBuildWithCapacity(len(report.Tests))
	for _, r := range report.Tests {
		t := ldvalue.ObjectBuild().
			Set("name", ldvalue.String(r.Name)).
			Set("section", ldvalue.String(r.Section)).
			Set("outcome", ldvalue.String(outcomeName(r.Outcome))).
			Set("durationMs", ldvalue.Int(int(milliseconds(r.Duration))))
		if r.Message != "" {
			t.Set("message", ldvalue.String(r.Message))
		}
		tests.Add(t.Build())
	}

	return ldvalue.ObjectBuild().
		Set("runId", ldvalue.String(report.RunID)).
		Set("startedAt", ldvalue.String(report.StartedAt.UTC().Format(time.RFC3339Nano))).
		Set("ok", ldvalue.Bool(report.OK())).
		Set("total", ldvalue.Int(len(report.Tests))).
		Set("passed", ldvalue.Int(passed)).
		Set("failed", ldvalue.Int(failed)).
		Set("errored", ldvalue.Int(errored)).
		Set("durationMs", ldvalue.Int(int(milliseconds(report.TotalDuration())))).
		Set("tests", tests.Build()).
		Build()
}

// WriteJSON writes JSONReport(report), indented.
func WriteJSON(w io.Writer, report framework.RunReport) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(JSONReport(report).JSONString()), "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func WriteJSONFile(path string, report framework.RunReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, report) })
}

func outcomeName(o framework.Outcome) string {
	switch o {
	case framework.Passed:
		return "passed"
	case framework.Failed:
		return "failed"
	default:
		return "errored"
	}
}

// parseOutcome is the inverse of outcomeName.
func parseOutcome(s string) framework.Outcome {
	switch strings.ToLower(s) {
	case "passed":
		return framework.Passed
	case "failed":
		return framework.Failed
	default:
		return framework.Errored
	}
}
