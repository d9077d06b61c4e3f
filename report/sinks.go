package report

import (
	"fmt"
	"io"

	"github.com/edt-mcp/mcp-contract-tests/framework"
)

// FileSinks is a framework.TestLogger that writes the requested report files once the run has
// finished. A sink that cannot be written is reported in Errors and never changes a verdict.
type FileSinks struct {
	JUnitPath string
	JSONPath  string
	History   *History
	// Target and Project label the run in the history database.
	Target  string
	Project string

	out    io.Writer
	errors []error
}

func NewFileSinks(out io.Writer) *FileSinks {
	return &FileSinks{out: out}
}

func (s *FileSinks) SectionStarted(string)                                       {}
func (s *FileSinks) TestStarted(string, string)                                  {}
func (s *FileSinks) TestFinished(framework.TestResult, framework.CapturedOutput) {}

func (s *FileSinks) RunFinished(report framework.RunReport) {
	if s.JUnitPath != "" {
		if err := WriteJUnitFile(s.JUnitPath, report); err != nil {
			s.errors = append(s.errors, fmt.Errorf("writing JUnit XML report: %w", err))
		} else {
			fmt.Fprintf(s.out, "JUnit XML report written to %s\n", s.JUnitPath)
		}
	}
	if s.JSONPath != "" {
		if err := WriteJSONFile(s.JSONPath, report); err != nil {
			s.errors = append(s.errors, fmt.Errorf("writing JSON report: %w", err))
		} else {
			fmt.Fprintf(s.out, "JSON report written to %s\n", s.JSONPath)
		}
	}
	if s.History != nil {
		if err := s.History.Record(report, s.Target, s.Project); err != nil {
			s.errors = append(s.errors, fmt.Errorf("recording run history: %w", err))
		}
	}
}

// Errors returns the sink failures of the run, if any.
func (s *FileSinks) Errors() []error {
	return s.errors
}
