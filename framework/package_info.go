// Package framework contains the domain-agnostic part of the conformance harness.
//
// The general model is:
//
// 1. Cases are registered with a Runner, optionally grouped into sections. A case is a function
// that receives a *Context, which is similar to Go's *testing.T: the testify assert and require
// packages can be used with it.
//
// 2. The Runner executes the cases strictly one at a time in registration order and classifies
// each one by how it ends: normal return is Passed, an assertion failure is Failed, and anything
// else (Context.Fault or an unexpected panic) is Errored.
//
// 3. Progress is reported through a TestLogger, and the finished run is summarized as an
// immutable RunReport.
//
// The code that knows what is being tested (the MCP cases) lives elsewhere and builds its own
// test API on top of Context.
package framework
