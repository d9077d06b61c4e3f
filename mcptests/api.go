package mcptests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/client"
	"github.com/edt-mcp/mcp-contract-tests/framework"
	"github.com/edt-mcp/mcp-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Environment is what every case has access to: the server under test and the client whose
// Session is shared by the whole run.
type Environment struct {
	Client *client.Client
	Target client.Target
	// Timeout is the per-call timeout for calls that do not specify one.
	Timeout time.Duration
}

// T represents one case in the MCP conformance suite.
//
// It implements the same basic functionality as Go's testing.T, so the testify assert and require
// packages can be used by passing the *T as if it were a *testing.T. On top of that it provides
// methods for talking to the server under test. Those methods write a trace of every exchange to
// the case's debug output, and turn a response body that is not a valid JSON-RPC envelope into an
// Errored verdict.
type T struct {
	context *framework.Context
	env     *Environment
	client  *client.Client
}

func newT(c *framework.Context, env *Environment) *T {
	return &T{
		context: c,
		env:     env,
		client:  env.Client.WithLogger(c.DebugLogger()),
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately exit. The methods in
// the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Failf fails the case immediately with exactly the given message.
func (t *T) Failf(format string, args ...interface{}) {
	t.context.Failf(format, args...)
}

// Fault ends the case with an Errored verdict.
func (t *T) Fault(err error) {
	t.context.Fault(err)
}

// Debug logs some debug output for the case. It is shown only with --debug or --debug-all.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

func (t *T) Name() string { return t.context.Name() }

// Project is the name of the project that project-scoped tools are called with.
func (t *T) Project() string { return t.env.Target.Project }

func (t *T) Target() client.Target { return t.env.Target }

func (t *T) Session() *client.Session { return t.env.Client.Session() }

// Call sends a JSON-RPC request to the RPC endpoint with the default timeout.
func (t *T) Call(method string, params ldvalue.Value) servicedef.Response {
	resp, err := t.client.Send(context.Background(), t.env.Target.RPCURL(), method, params, t.env.Timeout)
	return t.checked(resp, err)
}

// CallTool invokes a tool. A zero timeout means the default.
func (t *T) CallTool(toolName string, arguments ldvalue.Value, timeout time.Duration) servicedef.Response {
	if timeout <= 0 {
		timeout = t.env.Timeout
	}
	resp, err := t.client.CallTool(context.Background(), t.env.Target.RPCURL(), toolName, arguments, timeout)
	return t.checked(resp, err)
}

// SendRaw posts a body that is not necessarily a valid request.
func (t *T) SendRaw(body []byte) servicedef.Response {
	resp, err := t.client.SendRaw(context.Background(), t.env.Target.RPCURL(), body, t.env.Timeout)
	return t.checked(resp, err)
}

// Notify sends a notification and returns what the server answered.
func (t *T) Notify(method string, params ldvalue.Value) client.NotificationResult {
	result, err := t.client.Notify(context.Background(), t.env.Target.RPCURL(), method, params, t.env.Timeout)
	if err != nil {
		t.Fault(fmt.Errorf("transport failure: %w", err))
	}
	t.context.AttachResponse(result.Body)
	return result
}

// Health queries the liveness endpoint.
func (t *T) Health() client.HealthStatus {
	h, err := t.client.Health(context.Background(), t.env.Target.HealthURL())
	if err != nil {
		t.Fault(fmt.Errorf("transport failure: %w", err))
	}
	t.context.AttachResponse(h.Raw)
	return h
}

// TerminateSession asks the server to end the session and returns the HTTP status.
func (t *T) TerminateSession() int {
	status, err := t.client.TerminateSession(context.Background(), t.env.Target.RPCURL(), t.env.Timeout)
	if err != nil {
		t.Fault(fmt.Errorf("transport failure: %w", err))
	}
	return status
}

func (t *T) checked(resp servicedef.Response, err error) servicedef.Response {
	if err != nil {
		var malformed *servicedef.MalformedResponseError
		if errors.As(err, &malformed) {
			t.context.AttachResponse(malformed.Body)
		}
		t.Fault(err)
	}
	t.context.AttachResponse(resp.Raw)
	return resp
}

// requireFromServer ends the case as Errored if the response was synthesized for a transport
// failure or an HTTP error status. Those are not answers to the request, so no assertion about
// the response can be made.
func (t *T) requireFromServer(resp servicedef.Response) {
	if resp.Origin == servicedef.OriginServer {
		return
	}
	e, _ := resp.Err()
	switch resp.Origin {
	case servicedef.OriginHTTPStatus:
		t.Fault(fmt.Errorf("HTTP error %d: %s", e.Code, e.Message))
	default:
		t.Fault(fmt.Errorf("transport failure: %s", e.Message))
	}
}

// RequireSuccess asserts the success shape: no error member and a result member. It returns the
// result.
func (t *T) RequireSuccess(resp servicedef.Response) ldvalue.Value {
	t.requireFromServer(resp)
	if e, ok := resp.Err(); ok {
		t.Failf("Expected success but got error: %s", e)
	}
	result, _ := resp.Result()
	return result
}

// RequireError asserts that the response has an error member and returns it.
func (t *T) RequireError(resp servicedef.Response) servicedef.RPCError {
	t.requireFromServer(resp)
	e, ok := resp.Err()
	if !ok {
		result, _ := resp.Result()
		t.Failf("Expected error but got success: %s", result.JSONString())
	}
	return e
}

// RequireErrorCode asserts that the response has an error member with the given code. A response
// synthesized for a transport failure or an HTTP error status passes if code is exactly its code
// (servicedef.ErrorTransport or the status), so a case can anticipate a timeout or a rejection by
// the HTTP layer. Any other synthesized response is Errored.
func (t *T) RequireErrorCode(resp servicedef.Response, code int) servicedef.RPCError {
	if resp.Origin != servicedef.OriginServer {
		if e, ok := resp.Err(); ok && e.Code == code {
			return e
		}
	}
	e := t.RequireError(resp)
	if e.Code != code {
		t.Failf("Expected error code %d, got %d (%s)", code, e.Code, e.Message)
	}
	return e
}

// ResultText extracts the text of a tool result: the text of the first content item if it is a
// text item, or the embedded text of a resource item. Anything else yields "".
func ResultText(result ldvalue.Value) string {
	first := result.GetByKey("content").GetByIndex(0)
	switch first.GetByKey("type").StringValue() {
	case "text":
		return first.GetByKey("text").StringValue()
	case "resource":
		return first.GetByKey("resource").GetByKey("text").StringValue()
	}
	return ""
}

// StructuredContent returns the structuredContent member of a tool result, or null.
func StructuredContent(result ldvalue.Value) ldvalue.Value {
	return result.GetByKey("structuredContent")
}
