package mcptests

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/edt-mcp/mcp-contract-tests/servicedef"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// CoreTools must be advertised by every server.
var CoreTools = []string{"get_edt_version", "list_projects", "get_metadata_objects"}

const (
	clientName    = "e2e-test"
	clientVersion = "1.0.0"
	unknownMethod = "nonexistent/method"
	unknownTool   = "nonexistent_tool_xyz"
)

func DoHealthCheck(t *T) {
	h := t.Health()
	if !h.OK() {
		t.Failf("Health check failed: HTTP %d %s", h.HTTPStatus, h.Raw)
	}
}

// DoInitialize performs the handshake. Later cases depend on it: it establishes the session id
// and protocol version that are sent with every subsequent call.
func DoInitialize(t *T) {
	params := ldvalue.ObjectBuild().
		Set("protocolVersion", ldvalue.String(servicedef.ProtocolVersion)).
		Set("capabilities", ldvalue.ObjectBuild().Build()).
		Set("clientInfo", ldvalue.ObjectBuild().
			Set("name", ldvalue.String(clientName)).
			Set("version", ldvalue.String(clientVersion)).
			Build()).
		Build()
	resp := t.Call(servicedef.MethodInitialize, params)
	result := t.RequireSuccess(resp)

	if result.GetByKey("protocolVersion").IsNull() {
		t.Failf("Missing protocolVersion")
	}
	if result.GetByKey("serverInfo").IsNull() {
		t.Failf("Missing serverInfo")
	}
	var init mcp.InitializeResult
	if err := json.Unmarshal([]byte(result.JSONString()), &init); err != nil {
		t.Fault(fmt.Errorf("initialize result could not be decoded: %w", err))
	}
	t.Debug("Server %s %s, protocol %s", init.ServerInfo.Name, init.ServerInfo.Version, init.ProtocolVersion)

	sessionID := resp.SessionID
	if sessionID == "" {
		sessionID = "e2e-" + uuid.NewString()
		t.Debug("Server did not issue a session id; using %s", sessionID)
	}
	t.Session().SetSessionID(sessionID)
	t.Session().SetProtocolVersion(init.ProtocolVersion)
}

func DoInitializedNotification(t *T) {
	result := t.Notify(servicedef.MethodInitialized, ldvalue.Null())
	if result.HTTPStatus < 200 || result.HTTPStatus >= 300 {
		t.Failf("Expected a 2xx status for the initialized notification, got %d: %s", result.HTTPStatus, result.Body)
	}
	if strings.TrimSpace(result.Body) == "" {
		return
	}
	// A notification has no response, so any 2xx body is accepted unless it is a JSON-RPC error.
	if r, err := servicedef.ParseResponse([]byte(result.Body)); err == nil && r.IsError() {
		e, _ := r.Err()
		t.Failf("Initialized notification was rejected: %s", e)
	}
}

func DoToolsList(t *T) {
	result := t.RequireSuccess(t.Call(servicedef.MethodToolsList, ldvalue.Null()))

	var list mcp.ListToolsResult
	if err := json.Unmarshal([]byte(result.JSONString()), &list); err != nil {
		t.Fault(fmt.Errorf("tools/list result could not be decoded: %w", err))
	}
	require.NotEmpty(t, list.Tools, "No tools registered")
	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	t.Debug("Server advertises %d tools: %s", len(names), strings.Join(names, ", "))
	for _, tool := range CoreTools {
		assert.Contains(t, names, tool, "Missing tool: %s", tool)
	}
}

// DoToolsListSchemas checks that every advertised input schema is a usable JSON Schema.
func DoToolsListSchemas(t *T) {
	result := t.RequireSuccess(t.Call(servicedef.MethodToolsList, ldvalue.Null()))

	tools := result.GetByKey("tools")
	require.Greater(t, tools.Count(), 0, "No tools registered")
	for i := 0; i < tools.Count(); i++ {
		tool := tools.GetByIndex(i)
		name := tool.GetByKey("name").StringValue()
		schema := tool.GetByKey("inputSchema")
		if schema.IsNull() {
			t.Errorf("Tool %s has no inputSchema", name)
			continue
		}
		if err := compileSchema(name, schema); err != nil {
			t.Errorf("Tool %s has an invalid inputSchema: %s", name, err)
		}
	}
}

func compileSchema(toolName string, schema ldvalue.Value) error {
	var doc any
	if err := json.Unmarshal([]byte(schema.JSONString()), &doc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}
	location := toolName + ".schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(location, doc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	if _, err := c.Compile(location); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return nil
}

func DoInvalidMethod(t *T) {
	resp := t.Call(unknownMethod, ldvalue.Null())
	t.RequireErrorCode(resp, servicedef.ErrorMethodNotFound)
}

func DoInvalidJSONRPC(t *T) {
	body := fmt.Sprintf(`{"jsonrpc":"1.0","id":%d,"method":"%s"}`,
		t.Session().NextRequestID(), servicedef.MethodInitialize)
	resp := t.SendRaw([]byte(body))
	t.requireFromServer(resp)
	if !resp.IsError() {
		t.Failf("Expected error for invalid JSON-RPC version")
	}
}

// DoMalformedJSON sends a body that is not JSON at all. Servers answer either with a parse error
// or with an invalid-request error.
func DoMalformedJSON(t *T) {
	e := t.RequireError(t.SendRaw([]byte(`{"jsonrpc":"2.0","id":`)))
	if e.Code != servicedef.ErrorParse && e.Code != servicedef.ErrorInvalidRequest {
		t.Failf("Expected error code %d or %d, got %d (%s)",
			servicedef.ErrorParse, servicedef.ErrorInvalidRequest, e.Code, e.Message)
	}
}

func DoToolNotFound(t *T) {
	resp := t.CallTool(unknownTool, ldvalue.Null(), 0)
	t.RequireErrorCode(resp, servicedef.ErrorMethodNotFound)
}

func DoResponseIDEcho(t *T) {
	resp := t.Call(servicedef.MethodToolsList, ldvalue.Null())
	t.RequireSuccess(resp)
	id, ok := resp.IDInt()
	if !ok {
		t.Failf("Response id is not an integer: %s", resp.ID.JSONString())
	}
	assert.Equal(t, resp.RequestID, id, "response id does not match request id")
}

func DoSessionTerminate(t *T) {
	if _, ok := t.Session().CurrentSessionID(); !ok {
		t.Fault(errors.New("no session was established by initialize"))
	}
	status := t.TerminateSession()
	if status < 200 || status >= 300 {
		t.Failf("Expected a 2xx status for session termination, got %d", status)
	}
}
