package framework

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// faultSignal is the panic value used by Context.Fault.
type faultSignal struct {
	err error
}

// Context is the state of one running test case. It is similar to *testing.T: it implements the
// Errorf and FailNow methods that the testify assert and require packages need, so those packages
// can be used for assertions by passing a Context (or a type that wraps one).
//
// A case signals its verdict only by how it ends. Returning normally means Passed. Errorf or
// FailNow means Failed. Fault, or any other panic, means Errored.
type Context struct {
	name        string
	debugLogger CapturingLogger
	failed      bool
	errors      []error
	fault       error
	response    string
}

func newContext(name string, clock Clock) *Context {
	c := &Context{name: name}
	c.debugLogger.clock = clock
	return c
}

// Name returns the name the case was registered with.
func (c *Context) Name() string {
	return c.name
}

// Errorf records an assertion failure without stopping the case.
func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	c.errors = append(c.errors, errors.New(reformatAssertion(fmt.Sprintf(format, args...))))
}

// FailNow stops the case immediately with a Failed verdict.
func (c *Context) FailNow() {
	c.failed = true
	panic(c)
}

// Fail records message verbatim as an assertion failure and stops the case.
func (c *Context) Fail(message string) {
	c.failed = true
	c.errors = append(c.errors, errors.New(message))
	panic(c)
}

// Failf is like Fail with a format string.
func (c *Context) Failf(format string, args ...interface{}) {
	c.Fail(fmt.Sprintf(format, args...))
}

// Fault stops the case immediately with an Errored verdict. It is for conditions that are not
// assertions about the service, such as an unparseable response or an unusable test input.
func (c *Context) Fault(err error) {
	if err == nil {
		err = errors.New("fault with no error")
	}
	panic(faultSignal{err: err})
}

// Debug adds a line to the case's captured debug output.
func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

// DebugLogger returns the logger whose output is captured for this case.
func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}

// AttachResponse remembers a raw response body; the last one attached is kept in the verdict.
func (c *Context) AttachResponse(raw string) {
	c.response = raw
}

func (c *Context) run(action func(*Context)) (outcome Outcome, message string) {
	defer func() {
		if r := recover(); r != nil {
			switch sig := r.(type) {
			case *Context:
				if sig != c {
					c.fault = errors.New("FailNow was called on a different test context")
				} else if len(c.errors) == 0 {
					c.errors = append(c.errors, errors.New("test failed with no failure message"))
				}
			case faultSignal:
				c.fault = sig.err
			default:
				c.fault = fmt.Errorf("unexpected panic in test: %+v", r)
				c.debugLogger.Printf("panic stack:\n%s", debug.Stack())
			}
		}
		switch {
		case c.fault != nil:
			outcome, message = Errored, c.fault.Error()
		case c.failed:
			msgs := make([]string, 0, len(c.errors))
			for _, e := range c.errors {
				msgs = append(msgs, e.Error())
			}
			outcome, message = Failed, strings.Join(msgs, "; ")
		default:
			outcome, message = Passed, ""
		}
	}()

	action(c)
	return Passed, ""
}
