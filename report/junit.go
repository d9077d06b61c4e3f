package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"
)

const (
	junitSuiteName   = "EDT-MCP-E2E"
	defaultClassname = "e2e"
)

type junitTestSuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

// WriteJUnit writes the report as a JUnit testsuite. The verdict is binary here: Failed and
// Errored cases both produce a failure element.
func WriteJUnit(w io.Writer, report framework.RunReport) error {
	suite := junitTestSuite{
		Name:  junitSuiteName,
		Tests: len(report.Tests),
		Time:  seconds(report.TotalDuration()),
	}
	for _, r := range report.Tests {
		classname := r.Section
		if classname == "" {
			classname = defaultClassname
		}
		tc := junitTestCase{
			Name:      r.Name,
			Classname: classname,
			Time:      seconds(r.Duration),
		}
		if !r.Passed() {
			suite.Failures++
			tc.Failure = &junitFailure{Message: r.Message, Text: r.Message}
		}
		suite.Cases = append(suite.Cases, tc)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(suite); err != nil {
		return fmt.Errorf("encoding JUnit report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteJUnitFile writes the JUnit report to path, replacing any existing file.
func WriteJUnitFile(path string, report framework.RunReport) error {
	return writeFile(path, func(w io.Writer) error { return WriteJUnit(w, report) })
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
