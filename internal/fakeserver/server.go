// Package fakeserver is an in-process MCP server used to test the harness against. It follows the
// server contract the suite checks: JSON-RPC over POST /mcp, optional SSE framing of replies, a
// session id issued on initialize, and GET /health.
package fakeserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/edt-mcp/mcp-contract-tests/framework"
	"github.com/edt-mcp/mcp-contract-tests/servicedef"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	ServerName    = "fake-edt-mcp"
	ServerVersion = "0.0.1"
	EDTVersion    = "2024.2.1"
)

// ToolHandler produces the result of a tool call from its arguments.
type ToolHandler func(arguments map[string]interface{}) *mcp.CallToolResult

type registeredTool struct {
	tool    mcp.Tool
	handler ToolHandler
}

// Server is an http.Handler. Use it with httptest.NewServer.
type Server struct {
	tools          []registeredTool
	sse            bool
	requireSession bool
	healthStatus   string
	parseErrorCode int
	logger         framework.Logger

	sessions   map[string]bool
	issued     []string
	eventID    int64
	requests   []string
	sessionIDs []string
	lock       sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithSSE makes the server frame replies as text/event-stream when the client accepts it.
func WithSSE() Option {
	return func(s *Server) { s.sse = true }
}

// WithRequireSession makes the server reject requests other than initialize that do not carry a
// session id it issued.
func WithRequireSession() Option {
	return func(s *Server) { s.requireSession = true }
}

// WithTool adds or replaces a tool.
func WithTool(tool mcp.Tool, handler ToolHandler) Option {
	return func(s *Server) {
		s.removeTool(tool.Name)
		s.tools = append(s.tools, registeredTool{tool: tool, handler: handler})
	}
}

// WithoutTool removes a tool.
func WithoutTool(name string) Option {
	return func(s *Server) { s.removeTool(name) }
}

// WithHealthStatus sets the status reported by /health. The default is "ok".
func WithHealthStatus(status string) Option {
	return func(s *Server) { s.healthStatus = status }
}

// WithParseErrorCode sets the code returned for bodies that are not valid requests. The default
// is -32600.
func WithParseErrorCode(code int) Option {
	return func(s *Server) { s.parseErrorCode = code }
}

func WithLogger(logger framework.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a server with the default tool set.
func New(options ...Option) *Server {
	s := &Server{
		healthStatus:   "ok",
		parseErrorCode: servicedef.ErrorInvalidRequest,
		logger:         framework.NullLogger(),
		sessions:       make(map[string]bool),
		tools:          defaultTools(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

func (s *Server) removeTool(name string) {
	kept := s.tools[:0]
	for _, t := range s.tools {
		if t.tool.Name != name {
			kept = append(kept, t)
		}
	}
	s.tools = kept
}

func (s *Server) findTool(name string) (registeredTool, bool) {
	for _, t := range s.tools {
		if t.tool.Name == name {
			return t, true
		}
	}
	return registeredTool{}, false
}

// Requests returns the bodies of all POST requests received so far.
func (s *Server) Requests() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.requests...)
}

// RequestSessionIDs returns the MCP-Session-Id header of each POST request, in the same order as
// Requests. A request without the header has "".
func (s *Server) RequestSessionIDs() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.sessionIDs...)
}

// IssuedSessions returns the session ids handed out by initialize.
func (s *Server) IssuedSessions() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.issued...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/health" && r.Method == http.MethodGet:
		s.serveHealth(w)
	case r.URL.Path == "/mcp" && r.Method == http.MethodPost:
		s.serveRPC(w, r)
	case r.URL.Path == "/mcp" && r.Method == http.MethodDelete:
		s.lock.Lock()
		delete(s.sessions, r.Header.Get(servicedef.HeaderSessionID))
		s.lock.Unlock()
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/mcp":
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	default:
		s.logger.Printf("Received request for unrecognized URL path %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) serveHealth(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": s.healthStatus, "edt_version": EDTVersion})
}

type incomingRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type outgoingResponse struct {
	JSONRPC string               `json:"jsonrpc"`
	ID      json.RawMessage      `json:"id"`
	Result  interface{}          `json:"result,omitempty"`
	Error   *servicedef.RPCError `json:"error,omitempty"`
}

var defaultID = json.RawMessage("1")

func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Printf("Unexpected error trying to read request body: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	s.lock.Lock()
	s.requests = append(s.requests, string(body))
	s.sessionIDs = append(s.sessionIDs, r.Header.Get(servicedef.HeaderSessionID))
	s.lock.Unlock()

	var req incomingRequest
	if err := json.Unmarshal(body, &req); err != nil || req.JSONRPC != servicedef.JSONRPCVersion {
		id := defaultID
		if err == nil && len(req.ID) > 0 {
			id = req.ID
		}
		s.reply(w, r, false, "", errorResponse(id, s.parseErrorCode, "Invalid JSON-RPC version, expected 2.0"))
		return
	}
	if len(req.ID) == 0 {
		// Notifications get no reply.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if req.Method == servicedef.MethodInitialize {
		sessionID := uuid.NewString()
		s.lock.Lock()
		s.sessions[sessionID] = true
		s.issued = append(s.issued, sessionID)
		s.lock.Unlock()
		s.reply(w, r, true, sessionID, resultResponse(req.ID, mcp.InitializeResult{
			ProtocolVersion: servicedef.ProtocolVersion,
			ServerInfo:      mcp.Implementation{Name: ServerName, Version: ServerVersion},
		}))
		return
	}

	if s.requireSession {
		s.lock.Lock()
		known := s.sessions[r.Header.Get(servicedef.HeaderSessionID)]
		s.lock.Unlock()
		if !known {
			writeJSON(w, http.StatusBadRequest, errorResponse(req.ID, servicedef.ErrorInvalidRequest, "Missing or unknown session"))
			return
		}
	}

	switch req.Method {
	case servicedef.MethodToolsList:
		tools := make([]mcp.Tool, 0, len(s.tools))
		for _, t := range s.tools {
			tools = append(tools, t.tool)
		}
		s.reply(w, r, false, "", resultResponse(req.ID, mcp.ListToolsResult{Tools: tools}))
	case servicedef.MethodToolsCall:
		s.reply(w, r, false, "", s.callTool(req))
	default:
		s.reply(w, r, false, "", errorResponse(req.ID, servicedef.ErrorMethodNotFound, "Method not found"))
	}
}

func (s *Server) callTool(req incomingRequest) outgoingResponse {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, servicedef.ErrorInvalidParams, err.Error())
	}
	t, ok := s.findTool(params.Name)
	if !ok {
		return errorResponse(req.ID, servicedef.ErrorMethodNotFound, "Tool not found: "+params.Name)
	}
	for _, required := range t.tool.InputSchema.Required {
		if _, present := params.Arguments[required]; !present {
			return errorResponse(req.ID, servicedef.ErrorInvalidParams, "Missing required argument: "+required)
		}
	}
	return resultResponse(req.ID, t.handler(params.Arguments))
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, initialize bool, sessionID string, resp outgoingResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Printf("Unable to encode response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if initialize {
		w.Header().Set(servicedef.HeaderSessionID, sessionID)
	}
	if s.sse && strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.lock.Lock()
		s.eventID++
		id := s.eventID
		s.lock.Unlock()
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "id: %d\ndata: %s\n\n", id, data)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func resultResponse(id json.RawMessage, result interface{}) outgoingResponse {
	return outgoingResponse{JSONRPC: servicedef.JSONRPCVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) outgoingResponse {
	return outgoingResponse{JSONRPC: servicedef.JSONRPCVersion, ID: id, Error: &servicedef.RPCError{Code: code, Message: message}}
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	data, _ := json.Marshal(value)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
