package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"
	"github.com/edt-mcp/mcp-contract-tests/servicedef"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// DefaultTimeout is used for calls that do not specify one. It is generous because some tools,
// such as screenshot rendering, are slow.
const DefaultTimeout = 120 * time.Second

const acceptHeader = "application/json, text/event-stream"

// Client sends JSON-RPC requests to the server under test. It never retries.
//
// Transport failures and non-2xx statuses are folded into a synthesized servicedef.Response, so
// callers always get one shape to assert against. The only error a call returns is a
// *servicedef.MalformedResponseError, for a 2xx body that is not a JSON-RPC response.
type Client struct {
	session        *Session
	httpClient     *http.Client
	logger         framework.Logger
	defaultTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithDefaultTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.defaultTimeout = timeout
		}
	}
}

// NewClient creates a Client that takes request ids and the session header from session. A nil
// session makes the Client use a private one.
func NewClient(session *Session, options ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		session:        session,
		httpClient:     http.DefaultClient,
		logger:         framework.NullLogger(),
		defaultTimeout: DefaultTimeout,
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// WithLogger returns a copy of the Client that writes request and response traces to logger.
func (c *Client) WithLogger(logger framework.Logger) *Client {
	if logger == nil {
		logger = framework.NullLogger()
	}
	copied := *c
	copied.logger = logger
	return &copied
}

func (c *Client) Session() *Session { return c.session }

// Send issues one request with a fresh id. A zero timeout means the default.
func (c *Client) Send(
	ctx context.Context,
	endpoint, method string,
	params ldvalue.Value,
	timeout time.Duration,
) (servicedef.Response, error) {
	id := c.session.NextRequestID()
	body, err := json.Marshal(servicedef.NewRequest(id, method, params))
	if err != nil {
		return servicedef.Response{}, fmt.Errorf("encoding %s request: %w", method, err)
	}
	return c.post(ctx, endpoint, body, id, timeout)
}

// CallTool invokes a tool through the tools/call method.
func (c *Client) CallTool(
	ctx context.Context,
	endpoint, toolName string,
	arguments ldvalue.Value,
	timeout time.Duration,
) (servicedef.Response, error) {
	return c.Send(ctx, endpoint, servicedef.MethodToolsCall, servicedef.ToolCallParams(toolName, arguments), timeout)
}

// SendRaw posts body exactly as given and interprets the reply like Send does. It is for requests
// that are deliberately not valid envelopes.
func (c *Client) SendRaw(
	ctx context.Context,
	endpoint string,
	body []byte,
	timeout time.Duration,
) (servicedef.Response, error) {
	return c.post(ctx, endpoint, body, 0, timeout)
}

// NotificationResult is what the server sent back for a notification, which has no response
// envelope.
type NotificationResult struct {
	HTTPStatus int
	Body       string
}

// Notify sends a notification (a request without an id). The error is non-nil only for a
// transport failure.
func (c *Client) Notify(
	ctx context.Context,
	endpoint, method string,
	params ldvalue.Value,
	timeout time.Duration,
) (NotificationResult, error) {
	body, err := json.Marshal(servicedef.NewNotification(method, params))
	if err != nil {
		return NotificationResult{}, fmt.Errorf("encoding %s notification: %w", method, err)
	}
	status, _, data, err := c.exchange(ctx, http.MethodPost, endpoint, body, timeout)
	if err != nil {
		return NotificationResult{}, err
	}
	return NotificationResult{HTTPStatus: status, Body: string(data)}, nil
}

// TerminateSession asks the server to end the current session with an HTTP DELETE. It returns
// the HTTP status; the error is non-nil only for a transport failure.
func (c *Client) TerminateSession(ctx context.Context, endpoint string, timeout time.Duration) (int, error) {
	status, _, _, err := c.exchange(ctx, http.MethodDelete, endpoint, nil, timeout)
	return status, err
}

func (c *Client) post(
	ctx context.Context,
	endpoint string,
	body []byte,
	requestID int64,
	timeout time.Duration,
) (servicedef.Response, error) {
	status, header, data, err := c.exchange(ctx, http.MethodPost, endpoint, body, timeout)
	if err != nil {
		r := servicedef.NewTransportErrorResponse(err)
		r.RequestID = requestID
		return r, nil
	}
	if status < 200 || status >= 300 {
		r := servicedef.NewHTTPStatusResponse(status, string(data))
		r.RequestID = requestID
		return r, nil
	}

	payload := data
	if isEventStream(header.Get("Content-Type")) {
		payload, err = servicedef.ExtractSSEPayload(data, requestID)
		if err != nil {
			return servicedef.Response{}, &servicedef.MalformedResponseError{Reason: err.Error(), Body: string(data)}
		}
	}
	r, err := servicedef.ParseResponse(payload)
	if err != nil {
		return servicedef.Response{}, err
	}
	r.RequestID = requestID
	r.HTTPStatus = status
	r.SessionID = header.Get(servicedef.HeaderSessionID)
	r.Raw = string(payload)
	return r, nil
}

// exchange performs one HTTP request carrying the MCP headers and reads the whole reply.
func (c *Client) exchange(
	ctx context.Context,
	method, endpoint string,
	body []byte,
	timeout time.Duration,
) (int, http.Header, []byte, error) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", acceptHeader)
	if id, ok := c.session.CurrentSessionID(); ok {
		req.Header.Set(servicedef.HeaderSessionID, id)
	}
	if v := c.session.ProtocolVersion(); v != "" {
		req.Header.Set(servicedef.HeaderProtocolVersion, v)
	}
	c.logger.Printf("Request: %s", CurlCommand(method, endpoint, req.Header, body))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("Transport error after %s: %s", time.Since(start), err)
		return 0, nil, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Printf("Error reading response body: %s", err)
		return 0, nil, nil, fmt.Errorf("reading response body: %w", err)
	}
	c.logger.Printf("Response (HTTP %d, %s): %s", resp.StatusCode, time.Since(start), string(data))
	return resp.StatusCode, resp.Header, data, nil
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/event-stream"
}
