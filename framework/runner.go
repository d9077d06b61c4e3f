package framework

import (
	"errors"
	"fmt"
)

// ErrRunStarted is returned by Register once the Runner has started running.
var ErrRunStarted = errors.New("cannot register cases after the run has started")

type runState int

const (
	stateNotStarted runState = iota
	stateRunning
	stateCompleted
)

type testCase struct {
	section string
	name    string
	action  func(*Context)
}

// Runner executes an ordered list of cases, one at a time, and collects their verdicts.
//
// Every registered case runs exactly once, in registration order, whatever the outcome of the
// cases before it. Filtering happens when a case is registered, never during the run.
type Runner struct {
	cases   []testCase
	names   map[string]struct{}
	section string
	filter  Filter
	logger  TestLogger
	clock   Clock
	state   runState
	report  RunReport
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithFilter sets the registration-time filter.
func WithFilter(filter Filter) RunnerOption {
	return func(r *Runner) { r.filter = filter }
}

// WithTestLogger sets the receiver of progress notifications.
func WithTestLogger(logger TestLogger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithClock replaces the system clock, which is used for durations and debug timestamps.
func WithClock(clock Clock) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

func NewRunner(options ...RunnerOption) *Runner {
	r := &Runner{
		names:  make(map[string]struct{}),
		logger: nullTestLogger{},
		clock:  SystemClock(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// Section sets the section that subsequently registered cases belong to.
func (r *Runner) Section(title string) {
	r.section = title
}

// Register appends a case to the run. Names must be unique within a run. A case rejected by the
// filter is silently not registered.
func (r *Runner) Register(name string, action func(*Context)) error {
	if r.state != stateNotStarted {
		return ErrRunStarted
	}
	if name == "" {
		return errors.New("case name must not be empty")
	}
	if action == nil {
		return fmt.Errorf("case %q has no body", name)
	}
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("duplicate case name %q", name)
	}
	if r.filter != nil && !r.filter(CaseID(r.section, name)) {
		return nil
	}
	r.names[name] = struct{}{}
	r.cases = append(r.cases, testCase{section: r.section, name: name, action: action})
	return nil
}

// Registered returns the names of the registered cases in execution order.
func (r *Runner) Registered() []string {
	ret := make([]string, 0, len(r.cases))
	for _, c := range r.cases {
		ret = append(ret, c.name)
	}
	return ret
}

// Run executes every registered case and returns the report. A Runner runs only once; calling Run
// again returns the same report.
func (r *Runner) Run() RunReport {
	if r.state != stateNotStarted {
		return r.report
	}
	r.state = stateRunning

	startedAt := r.clock.Now()
	report := RunReport{
		RunID:     newRunID(startedAt),
		StartedAt: startedAt,
		Tests:     make([]TestResult, 0, len(r.cases)),
	}
	currentSection := ""
	for _, tc := range r.cases {
		if tc.section != "" && tc.section != currentSection {
			r.logger.SectionStarted(tc.section)
		}
		currentSection = tc.section
		report.Tests = append(report.Tests, r.runCase(tc))
	}

	r.report = report
	r.state = stateCompleted
	r.logger.RunFinished(report)
	return report
}

func (r *Runner) runCase(tc testCase) TestResult {
	r.logger.TestStarted(tc.section, tc.name)
	c := newContext(tc.name, r.clock)

	start := r.clock.Now()
	outcome, message := c.run(tc.action)
	duration := r.clock.Now().Sub(start)
	if duration < 0 {
		duration = 0
	}

	result := TestResult{
		Name:     tc.name,
		Section:  tc.section,
		Outcome:  outcome,
		Duration: duration,
		Message:  message,
		Response: c.response,
	}
	r.logger.TestFinished(result, c.debugLogger.Output())
	return result
}
