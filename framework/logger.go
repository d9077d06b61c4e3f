package framework

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the minimal logging interface used throughout the harness. *log.Logger satisfies it.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

type CapturedOutput []CapturedMessage

// CapturingLogger keeps everything logged during one test case so that it can be shown only
// if the case did not pass.
type CapturingLogger struct {
	output []CapturedMessage
	clock  Clock
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	now := time.Now()
	if l.clock != nil {
		now = l.clock.Now()
	}
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: now, Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Dump writes each message with a timestamp; continuation lines of multi-line messages are
// indented under the first.
func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		lines := strings.Split(strings.TrimRight(m.Message, "\n"), "\n")
		stamp := m.Time.Format(timestampFormat)
		fmt.Fprintf(dest, "%s[%s] %s\n", prefix, stamp, lines[0])
		pad := strings.Repeat(" ", len(stamp)+3)
		for _, line := range lines[1:] {
			fmt.Fprintf(dest, "%s%s%s\n", prefix, pad, line)
		}
	}
}
