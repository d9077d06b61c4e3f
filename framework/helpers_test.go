package framework

import (
	"time"
)

// fakeClock advances by step on every call to Now, and by the requested amount on Sleep.
type fakeClock struct {
	now   time.Time
	step  time.Duration
	slept []time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

type loggedEvent struct {
	Kind string
	Name string
}

type recordingTestLogger struct {
	events      []loggedEvent
	results     []TestResult
	debugOutput map[string]CapturedOutput
	finished    *RunReport
}

func (r *recordingTestLogger) SectionStarted(title string) {
	r.events = append(r.events, loggedEvent{"section", title})
}

func (r *recordingTestLogger) TestStarted(section, name string) {
	r.events = append(r.events, loggedEvent{"start", name})
}

func (r *recordingTestLogger) TestFinished(result TestResult, debugOutput CapturedOutput) {
	r.events = append(r.events, loggedEvent{"finish", result.Name})
	r.results = append(r.results, result)
	if r.debugOutput == nil {
		r.debugOutput = make(map[string]CapturedOutput)
	}
	r.debugOutput[result.Name] = debugOutput
}

func (r *recordingTestLogger) RunFinished(report RunReport) {
	r.finished = &report
}
