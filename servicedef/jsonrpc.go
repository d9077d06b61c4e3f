package servicedef

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// JSONRPCVersion is the only protocol version tag the harness emits.
const JSONRPCVersion = "2.0"

// ProtocolVersion is the MCP protocol revision announced during the handshake.
const ProtocolVersion = "2025-11-25"

const (
	MethodInitialize  = string(mcp.MethodInitialize)
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = string(mcp.MethodToolsList)
	MethodToolsCall   = string(mcp.MethodToolsCall)
)

const (
	HeaderSessionID       = "MCP-Session-Id"
	HeaderProtocolVersion = "MCP-Protocol-Version"
)

// Reserved JSON-RPC error codes.
const (
	ErrorParse          = mcp.PARSE_ERROR
	ErrorInvalidRequest = mcp.INVALID_REQUEST
	ErrorMethodNotFound = mcp.METHOD_NOT_FOUND
	ErrorInvalidParams  = mcp.INVALID_PARAMS
	ErrorInternal       = mcp.INTERNAL_ERROR
)

// ErrorTransport is the code of a response synthesized for a transport failure (connection
// refused, DNS failure, timeout). It lies outside the range reserved by JSON-RPC.
const ErrorTransport = -1

// Request is a JSON-RPC 2.0 request envelope. ID is nil for notifications.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest builds a request envelope. A null params value omits the params member.
func NewRequest(id int64, method string, params ldvalue.Value) Request {
	r := NewNotification(method, params)
	r.ID = &id
	return r
}

// NewNotification builds an envelope without an id.
func NewNotification(method string, params ldvalue.Value) Request {
	r := Request{JSONRPC: JSONRPCVersion, Method: method}
	if !params.IsNull() {
		r.Params = json.RawMessage(params.JSONString())
	}
	return r
}

// ToolCallParams nests a tool name and its arguments the way tools/call expects them. Arguments
// are omitted when null or an empty object.
func ToolCallParams(toolName string, arguments ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild().Set("name", ldvalue.String(toolName))
	if !arguments.IsNull() && !(arguments.Type() == ldvalue.ObjectType && arguments.Count() == 0) {
		b.Set("arguments", arguments)
	}
	return b.Build()
}
