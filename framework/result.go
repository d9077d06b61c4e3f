package framework

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Outcome is the verdict of a single test case.
type Outcome int

const (
	// Passed means the case body returned normally.
	Passed Outcome = iota
	// Failed means an assertion about the service's response was violated.
	Failed
	// Errored means the case hit an unexpected fault: a transport failure it did not handle, a
	// malformed response, or a bug in the case body.
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "PASS"
	case Failed:
		return "FAIL"
	case Errored:
		return "ERROR"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// TestResult is the verdict recorded for one case.
type TestResult struct {
	Name     string
	Section  string
	Outcome  Outcome
	Duration time.Duration
	Message  string
	// Response is the raw body of the last response the case received, if any.
	Response string
}

func (r TestResult) Passed() bool { return r.Outcome == Passed }

// RunReport is the immutable outcome of a complete run. Tests are in execution order, which is
// always registration order.
type RunReport struct {
	RunID     string
	StartedAt time.Time
	Tests     []TestResult
}

func newRunID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// OK is true if and only if every verdict is Passed. An empty run is OK.
func (r RunReport) OK() bool {
	for _, t := range r.Tests {
		if !t.Passed() {
			return false
		}
	}
	return true
}

// Counts returns the number of verdicts of each kind.
func (r RunReport) Counts() (passed, failed, errored int) {
	for _, t := range r.Tests {
		switch t.Outcome {
		case Passed:
			passed++
		case Failed:
			failed++
		default:
			errored++
		}
	}
	return
}

// NonPassing returns the Failed and Errored verdicts, in execution order.
func (r RunReport) NonPassing() []TestResult {
	var ret []TestResult
	for _, t := range r.Tests {
		if !t.Passed() {
			ret = append(ret, t)
		}
	}
	return ret
}

// TotalDuration is the sum of the per-case durations.
func (r RunReport) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range r.Tests {
		total += t.Duration
	}
	return total
}
