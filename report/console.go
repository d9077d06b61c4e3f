package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

const (
	suiteTitle   = "EDT MCP Server E2E Tests"
	rule         = "======================================================================"
	debugPrefix  = "    DEBUG "
	continuation = "        "
)

// ConsoleTestLogger prints a line per case as the run progresses, then a summary block.
type ConsoleTestLogger struct {
	out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	pass, fail, errored, heading *color.Color
}

// NewConsoleTestLogger creates a logger writing to out. If noColor is true no escape sequences are
// written even to a terminal.
func NewConsoleTestLogger(out io.Writer, noColor bool) *ConsoleTestLogger {
	c := &ConsoleTestLogger{
		out:     out,
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		errored: color.New(color.FgMagenta),
		heading: color.New(color.Bold),
	}
	if noColor {
		for _, s := range []*color.Color{c.pass, c.fail, c.errored, c.heading} {
			s.DisableColor()
		}
	}
	return c
}

// Banner announces the run.
func (c *ConsoleTestLogger) Banner(rpcURL, project string) {
	fmt.Fprintf(c.out, "\n%s\n", rule)
	fmt.Fprintf(c.out, "  %s\n", c.heading.Sprint(suiteTitle))
	fmt.Fprintf(c.out, "  Server: %s\n", rpcURL)
	fmt.Fprintf(c.out, "  Project: %s\n", project)
	fmt.Fprintf(c.out, "%s\n\n", rule)
}

func (c *ConsoleTestLogger) SectionStarted(title string) {
	fmt.Fprintf(c.out, "\n%s\n", c.heading.Sprintf("--- %s ---", title))
}

func (c *ConsoleTestLogger) TestStarted(section, name string) {}

func (c *ConsoleTestLogger) TestFinished(result framework.TestResult, debugOutput framework.CapturedOutput) {
	label := c.styleFor(result.Outcome).Sprint(fmt.Sprintf("%-5s", result.Outcome))
	line := fmt.Sprintf("  %s %s (%dms)", label, result.Name, milliseconds(result.Duration))
	if result.Outcome == framework.Passed || result.Message == "" {
		fmt.Fprintln(c.out, line)
	} else {
		lines := strings.Split(result.Message, "\n")
		fmt.Fprintf(c.out, "%s: %s\n", line, lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(c.out, "%s%s\n", continuation, l)
		}
	}

	failed := !result.Passed()
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		debugOutput.Dump(c.out, debugPrefix)
	}
}

func (c *ConsoleTestLogger) RunFinished(report framework.RunReport) {
	passed, failed, errored := report.Counts()
	total := len(report.Tests)

	fmt.Fprintf(c.out, "\n%s\n", rule)
	fmt.Fprintf(c.out, "  Results: %d/%d passed, %d failed, %d errored\n", passed, total, failed, errored)
	fmt.Fprintf(c.out, "  Total time: %.1fs\n", report.TotalDuration().Seconds())
	fmt.Fprintf(c.out, "  Run ID: %s\n", report.RunID)
	fmt.Fprintf(c.out, "%s\n", rule)

	nonPassing := report.NonPassing()
	if len(nonPassing) == 0 {
		return
	}
	fmt.Fprintf(c.out, "\n  Failed tests:\n")
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"SECTION", "NAME", "OUTCOME", "MESSAGE"})
	table.SetAutoWrapText(false)
	for _, r := range nonPassing {
		table.Append([]string{r.Section, r.Name, r.Outcome.String(), r.Message})
	}
	table.Render()
	fmt.Fprintln(c.out)
}

func (c *ConsoleTestLogger) styleFor(o framework.Outcome) *color.Color {
	switch o {
	case framework.Passed:
		return c.pass
	case framework.Failed:
		return c.fail
	default:
		return c.errored
	}
}

func milliseconds(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}

// WriteRunsTable lists stored runs, one row each.
func WriteRunsTable(w io.Writer, runs []RunSummary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"RUN ID", "STARTED", "TARGET", "PROJECT", "PASSED", "FAILED", "ERRORED", "TIME"})
	for _, r := range runs {
		table.Append([]string{
			r.RunID,
			r.StartedAt.Local().Format(time.RFC3339),
			r.Target,
			r.Project,
			fmt.Sprintf("%d/%d", r.Passed, r.Total),
			fmt.Sprint(r.Failed),
			fmt.Sprint(r.Errored),
			fmt.Sprintf("%.1fs", r.Duration.Seconds()),
		})
	}
	table.Render()
}
