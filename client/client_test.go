package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/servicedef"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func jsonHeaders() http.Header {
	return http.Header{"Content-Type": []string{"application/json"}}
}

func TestSendBuildsEnvelopeAndHeaders(t *testing.T) {
	session := NewSession()
	session.SetSessionID("sess-1")
	session.SetProtocolVersion(servicedef.ProtocolVersion)
	body := []byte(`{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`)
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithResponse(200, jsonHeaders(), body))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		c := NewClient(session)
		resp, err := c.Send(context.Background(), server.URL, "tools/list", ldvalue.Null(), time.Second)
		require.NoError(t, err)

		result, ok := resp.Result()
		require.True(t, ok)
		assert.Equal(t, `{"tools":[]}`, result.JSONString())
		assert.Equal(t, int64(1), resp.RequestID)
		assert.Equal(t, 200, resp.HTTPStatus)
		assert.Equal(t, servicedef.OriginServer, resp.Origin)

		r := <-requestsCh
		assert.Equal(t, "POST", r.Request.Method)
		assert.Equal(t, "application/json", r.Request.Header.Get("Content-Type"))
		assert.Contains(t, r.Request.Header.Get("Accept"), "text/event-stream")
		assert.Equal(t, "sess-1", r.Request.Header.Get(servicedef.HeaderSessionID))
		assert.Equal(t, servicedef.ProtocolVersion, r.Request.Header.Get(servicedef.HeaderProtocolVersion))
		assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, string(r.Body))
	})
}

func TestSendOmitsSessionHeaderBeforeHandshake(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithResponse(200, jsonHeaders(), body))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		_, err := NewClient(nil).Send(context.Background(), server.URL, "initialize", ldvalue.Null(), 0)
		require.NoError(t, err)

		r := <-requestsCh
		_, present := r.Request.Header[http.CanonicalHeaderKey(servicedef.HeaderSessionID)]
		assert.False(t, present)
	})
}

func TestRequestIDsIncreaseAcrossCalls(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(200, jsonHeaders(), []byte(`{"jsonrpc":"2.0","id":0,"result":{}}`)))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		c := NewClient(NewSession())
		for i := 1; i <= 3; i++ {
			resp, err := c.Send(context.Background(), server.URL, "tools/list", ldvalue.Null(), 0)
			require.NoError(t, err)
			assert.Equal(t, int64(i), resp.RequestID)

			r := <-requestsCh
			var req servicedef.Request
			require.NoError(t, json.Unmarshal(r.Body, &req))
			require.NotNil(t, req.ID)
			assert.Equal(t, int64(i), *req.ID)
		}
	})
}

func TestCallToolNestsNameAndArguments(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"1.2.3"}]}}`)
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithResponse(200, jsonHeaders(), body))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		args := ldvalue.ObjectBuild().Set("projectName", ldvalue.String("TestConfiguration")).Build()
		_, err := NewClient(nil).CallTool(context.Background(), server.URL, "list_modules", args, 0)
		require.NoError(t, err)

		r := <-requestsCh
		assert.JSONEq(t,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call",
			"params":{"name":"list_modules","arguments":{"projectName":"TestConfiguration"}}}`,
			string(r.Body))
	})
}

func TestServerErrorIsReturnedAsErrorResponse(t *testing.T) {
	body := []byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"Method not found: nonexistent/method"}}`)

	httphelpers.WithServer(httphelpers.HandlerWithResponse(200, jsonHeaders(), body), func(server *httptest.Server) {
		resp, err := NewClient(nil).Send(context.Background(), server.URL, "nonexistent/method", ldvalue.Null(), 0)
		require.NoError(t, err)

		e, ok := resp.Err()
		require.True(t, ok)
		assert.Equal(t, servicedef.ErrorMethodNotFound, e.Code)
		assert.Equal(t, servicedef.OriginServer, resp.Origin)
	})
}

func TestHTTPErrorStatusIsSynthesized(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithResponse(503, nil, []byte("overloaded")), func(server *httptest.Server) {
		resp, err := NewClient(nil).Send(context.Background(), server.URL, "tools/list", ldvalue.Null(), 0)
		require.NoError(t, err)

		e, ok := resp.Err()
		require.True(t, ok)
		assert.Equal(t, 503, e.Code)
		assert.Equal(t, "overloaded", e.Message)
		assert.Equal(t, servicedef.OriginHTTPStatus, resp.Origin)
		assert.Equal(t, 503, resp.HTTPStatus)
	})
}

func TestTransportFailureIsSynthesized(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	url := server.URL
	server.Close()

	resp, err := NewClient(nil).Send(context.Background(), url, "tools/list", ldvalue.Null(), time.Second)
	require.NoError(t, err)

	e, ok := resp.Err()
	require.True(t, ok)
	assert.Equal(t, servicedef.ErrorTransport, e.Code)
	assert.NotEmpty(t, e.Message)
	assert.Equal(t, servicedef.OriginTransport, resp.Origin)
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	httphelpers.WithServer(handler, func(server *httptest.Server) {
		defer close(release)
		resp, err := NewClient(nil).Send(context.Background(), server.URL, "tools/call", ldvalue.Null(), 50*time.Millisecond)
		require.NoError(t, err)

		e, ok := resp.Err()
		require.True(t, ok)
		assert.Equal(t, servicedef.ErrorTransport, e.Code)
	})
}

func TestMalformedBodyIsReturnedAsError(t *testing.T) {
	for name, body := range map[string]string{
		"not JSON":      "<html>oops</html>",
		"neither":       `{"jsonrpc":"2.0","id":1}`,
		"both":          `{"jsonrpc":"2.0","id":1,"result":{},"error":{"code":1,"message":"x"}}`,
		"empty success": "",
	} {
		t.Run(name, func(t *testing.T) {
			handler := httphelpers.HandlerWithResponse(200, jsonHeaders(), []byte(body))
			httphelpers.WithServer(handler, func(server *httptest.Server) {
				_, err := NewClient(nil).Send(context.Background(), server.URL, "tools/list", ldvalue.Null(), 0)
				require.Error(t, err)
				var malformed *servicedef.MalformedResponseError
				assert.ErrorAs(t, err, &malformed)
			})
		})
	}
}

func TestEventStreamResponseIsUnwrapped(t *testing.T) {
	body := []byte("id: 9\ndata: {\"jsonrpc\":\"2.0\",\"id\":9,\"result\":{}}\n\n" +
		"id: 1\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"ok\":true}}\n\n")
	headers := http.Header{"Content-Type": []string{"text/event-stream; charset=utf-8"}}

	httphelpers.WithServer(httphelpers.HandlerWithResponse(200, headers, body), func(server *httptest.Server) {
		resp, err := NewClient(nil).Send(context.Background(), server.URL, "tools/list", ldvalue.Null(), 0)
		require.NoError(t, err)

		result, ok := resp.Result()
		require.True(t, ok)
		assert.True(t, result.GetByKey("ok").BoolValue())
	})
}

func TestSessionHeaderFromServerIsCaptured(t *testing.T) {
	headers := jsonHeaders()
	headers.Set(servicedef.HeaderSessionID, "f3b5a1e2")
	body := []byte(`{"jsonrpc":"2.0","id":1,"result":{"protocolVersion":"2025-11-25"}}`)

	httphelpers.WithServer(httphelpers.HandlerWithResponse(200, headers, body), func(server *httptest.Server) {
		resp, err := NewClient(nil).Send(context.Background(), server.URL, "initialize", ldvalue.Null(), 0)
		require.NoError(t, err)
		assert.Equal(t, "f3b5a1e2", resp.SessionID)
	})
}

func TestSendRawPostsBodyVerbatim(t *testing.T) {
	raw := []byte(`{"jsonrpc":"1.0","id":5,"method":"initialize"}`)
	reply := []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32600,"message":"Invalid Request"}}`)
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithResponse(200, jsonHeaders(), reply))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		resp, err := NewClient(nil).SendRaw(context.Background(), server.URL, raw, 0)
		require.NoError(t, err)

		e, ok := resp.Err()
		require.True(t, ok)
		assert.Equal(t, servicedef.ErrorInvalidRequest, e.Code)
		assert.Equal(t, string(raw), string((<-requestsCh).Body))
	})
}

func TestNotifyReturnsStatus(t *testing.T) {
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(202))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		result, err := NewClient(nil).Notify(context.Background(), server.URL, servicedef.MethodInitialized, ldvalue.Null(), 0)
		require.NoError(t, err)
		assert.Equal(t, 202, result.HTTPStatus)
		assert.Empty(t, result.Body)
		assert.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, string((<-requestsCh).Body))
	})
}

func TestTerminateSessionSendsDelete(t *testing.T) {
	session := NewSession()
	session.SetSessionID("abc")
	handler, requestsCh := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))

	httphelpers.WithServer(handler, func(server *httptest.Server) {
		status, err := NewClient(session).TerminateSession(context.Background(), server.URL, 0)
		require.NoError(t, err)
		assert.Equal(t, 200, status)

		r := <-requestsCh
		assert.Equal(t, "DELETE", r.Request.Method)
		assert.Equal(t, "abc", r.Request.Header.Get(servicedef.HeaderSessionID))
	})
}

func TestHealth(t *testing.T) {
	for _, p := range []struct {
		name   string
		status int
		body   string
		ok     bool
	}{
		{"ok", 200, `{"status":"ok","edt_version":"2024.1"}`, true},
		{"not ok", 200, `{"status":"starting"}`, false},
		{"bad status", 500, `{"status":"ok"}`, false},
		{"not JSON", 200, `ok`, false},
	} {
		t.Run(p.name, func(t *testing.T) {
			handler := httphelpers.HandlerWithResponse(p.status, jsonHeaders(), []byte(p.body))
			httphelpers.WithServer(handler, func(server *httptest.Server) {
				c := NewClient(nil)
				h, err := c.Health(context.Background(), server.URL)
				require.NoError(t, err)
				assert.Equal(t, p.ok, h.OK())

				ready, err := c.HealthProbe(server.URL)(context.Background())
				assert.Equal(t, p.ok, ready)
				assert.Equal(t, p.ok, err == nil)
			})
		})
	}
}

func TestTargetURLs(t *testing.T) {
	target := Target{Host: "localhost", Port: 8765, Project: "TestConfiguration"}

	assert.Equal(t, "http://localhost:8765", target.BaseURL())
	assert.Equal(t, "http://localhost:8765/mcp", target.RPCURL())
	assert.Equal(t, "http://localhost:8765/health", target.HealthURL())
}

func TestCurlCommandQuotesArguments(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	cmd := CurlCommand("POST", "http://localhost:8765/mcp", header, []byte(`{"id":1}`))

	assert.Equal(t,
		`curl -sS -X POST -H 'Content-Type: application/json' --data-raw '{"id":1}' http://localhost:8765/mcp`,
		cmd)
}
