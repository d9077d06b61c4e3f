package framework

// TestLogger receives progress notifications from a Runner. All calls happen on the run's single
// thread of control, in execution order.
type TestLogger interface {
	SectionStarted(title string)
	TestStarted(section, name string)
	TestFinished(result TestResult, debugOutput CapturedOutput)
	RunFinished(report RunReport)
}

type nullTestLogger struct{}

func (n nullTestLogger) SectionStarted(string)                   {}
func (n nullTestLogger) TestStarted(string, string)              {}
func (n nullTestLogger) TestFinished(TestResult, CapturedOutput) {}
func (n nullTestLogger) RunFinished(RunReport)                   {}

// MultiTestLogger forwards every notification to each of its members in order.
type MultiTestLogger []TestLogger

func (m MultiTestLogger) SectionStarted(title string) {
	for _, l := range m {
		l.SectionStarted(title)
	}
}

func (m MultiTestLogger) TestStarted(section, name string) {
	for _, l := range m {
		l.TestStarted(section, name)
	}
}

func (m MultiTestLogger) TestFinished(result TestResult, debugOutput CapturedOutput) {
	for _, l := range m {
		l.TestFinished(result, debugOutput)
	}
}

func (m MultiTestLogger) RunFinished(report RunReport) {
	for _, l := range m {
		l.RunFinished(report)
	}
}
