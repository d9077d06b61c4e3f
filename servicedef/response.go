package servicedef

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const maxQuotedBody = 500

// Origin tells where the contents of a Response came from.
type Origin int

const (
	// OriginServer means the response was decoded from a JSON-RPC envelope sent by the server.
	OriginServer Origin = iota + 1
	// OriginHTTPStatus means the server answered with a non-2xx status; the error code is the status.
	OriginHTTPStatus
	// OriginTransport means no HTTP exchange completed; the error code is ErrorTransport.
	OriginTransport
)

func (o Origin) String() string {
	switch o {
	case OriginServer:
		return "server"
	case OriginHTTPStatus:
		return "http-status"
	case OriginTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    ldvalue.Value `json:"data,omitempty"`
}

func (e RPCError) Error() string {
	if e.Data.IsNull() {
		return fmt.Sprintf("code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("code %d: %s (data: %s)", e.Code, e.Message, e.Data.JSONString())
}

// Response holds exactly one of a result value or an RPCError. Instances are created by
// ParseResponse or by the New* constructors; the zero value is not a valid Response and its
// accessors panic.
type Response struct {
	// RequestID is the id the client assigned to the request that produced this response.
	RequestID int64
	// ID is the id echoed by the server, or null for synthesized responses.
	ID ldvalue.Value
	// Origin tells whether the response came from the server or was synthesized.
	Origin Origin
	// HTTPStatus is the status of the HTTP exchange, or 0 if none completed.
	HTTPStatus int
	// SessionID is the value of the session header sent back by the server, if any.
	SessionID string
	// Raw is the body text as received, for diagnostics.
	Raw string

	result ldvalue.Value
	err    *RPCError
}

// NewResultResponse builds a success response.
func NewResultResponse(id, result ldvalue.Value) Response {
	return Response{ID: id, Origin: OriginServer, result: result}
}

// NewErrorResponse builds an error response with the given origin.
func NewErrorResponse(id ldvalue.Value, origin Origin, e RPCError) Response {
	return Response{ID: id, Origin: origin, err: &e}
}

// NewHTTPStatusResponse synthesizes the response for a non-2xx HTTP status.
func NewHTTPStatusResponse(status int, body string) Response {
	r := NewErrorResponse(ldvalue.Null(), OriginHTTPStatus, RPCError{Code: status, Message: body})
	r.HTTPStatus = status
	r.Raw = body
	return r
}

// NewTransportErrorResponse synthesizes the response for a failed HTTP exchange.
func NewTransportErrorResponse(err error) Response {
	return NewErrorResponse(ldvalue.Null(), OriginTransport, RPCError{Code: ErrorTransport, Message: err.Error()})
}

func (r Response) mustBeValid() {
	if r.Origin == 0 || (r.Origin != OriginServer && r.err == nil) {
		panic("servicedef: use of an uninitialized or inconsistent Response")
	}
}

// IsError reports whether the response carries an error member.
func (r Response) IsError() bool {
	r.mustBeValid()
	return r.err != nil
}

// Result returns the result value; ok is false for error responses.
func (r Response) Result() (value ldvalue.Value, ok bool) {
	r.mustBeValid()
	if r.err != nil {
		return ldvalue.Null(), false
	}
	return r.result, true
}

// Err returns the error member; ok is false for success responses.
func (r Response) Err() (e RPCError, ok bool) {
	r.mustBeValid()
	if r.err == nil {
		return RPCError{}, false
	}
	return *r.err, true
}

// IDInt returns the echoed id when it is an integer.
func (r Response) IDInt() (int64, bool) {
	if !r.ID.IsInt() {
		return 0, false
	}
	return int64(r.ID.IntValue()), true
}

func (r Response) String() string {
	if r.Origin == 0 {
		return "<invalid response>"
	}
	if r.err != nil {
		return fmt.Sprintf("error from %s: %s", r.Origin, r.err)
	}
	return "result: " + r.result.JSONString()
}

// MalformedResponseError means a body could not be interpreted as a JSON-RPC response. This is a
// contract violation rather than a protocol-level error, so it is never folded into a Response.
type MalformedResponseError struct {
	Reason string
	Body   string
}

func (e *MalformedResponseError) Error() string {
	body := e.Body
	if len(body) > maxQuotedBody {
		body = body[:maxQuotedBody] + "..."
	}
	return fmt.Sprintf("malformed JSON-RPC response (%s): %q", e.Reason, body)
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

var jsonNull = []byte("null")

// ParseResponse decodes a JSON-RPC response body.
//
// An "error" member whose value is null counts as absent. A null "result" counts as present
// unless an error is also present, since some servers serialize both members.
func ParseResponse(data []byte) (Response, error) {
	malformed := func(reason string) (Response, error) {
		return Response{}, &MalformedResponseError{Reason: reason, Body: string(data)}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return malformed("empty body")
	}
	if trimmed[0] != '{' {
		return malformed("not a JSON object")
	}
	var w wireResponse
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return malformed(err.Error())
	}

	hasError := len(w.Error) > 0 && !bytes.Equal(bytes.TrimSpace(w.Error), jsonNull)
	hasResult := len(w.Result) > 0
	if hasError && hasResult && bytes.Equal(bytes.TrimSpace(w.Result), jsonNull) {
		hasResult = false
	}
	switch {
	case hasError && hasResult:
		return malformed("both result and error present")
	case !hasError && !hasResult:
		return malformed("neither result nor error present")
	}

	id := ldvalue.Null()
	if len(w.ID) > 0 {
		if err := json.Unmarshal(w.ID, &id); err != nil {
			return malformed("invalid id: " + err.Error())
		}
	}

	var r Response
	if hasError {
		var e RPCError
		if err := json.Unmarshal(w.Error, &e); err != nil {
			return malformed("invalid error object: " + err.Error())
		}
		r = NewErrorResponse(id, OriginServer, e)
	} else {
		var result ldvalue.Value
		if err := json.Unmarshal(w.Result, &result); err != nil {
			return malformed("invalid result: " + err.Error())
		}
		r = NewResultResponse(id, result)
	}
	r.Raw = string(data)
	return r, nil
}
