package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/framework"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const healthTimeout = 5 * time.Second

// HealthStatus is the decoded body of the liveness endpoint.
type HealthStatus struct {
	HTTPStatus int
	Body       ldvalue.Value
	Raw        string
}

// OK is true for a 200 response whose "status" field is "ok".
func (h HealthStatus) OK() bool {
	return h.HTTPStatus == http.StatusOK && h.Body.GetByKey("status").StringValue() == "ok"
}

// Health queries the liveness endpoint. A body that is not JSON yields a null Body rather than an
// error; only transport failures are returned as errors.
func (c *Client) Health(ctx context.Context, url string) (HealthStatus, error) {
	status, _, data, err := c.exchange(ctx, http.MethodGet, url, nil, healthTimeout)
	if err != nil {
		return HealthStatus{}, err
	}
	body := ldvalue.Parse(data)
	return HealthStatus{HTTPStatus: status, Body: body, Raw: string(data)}, nil
}

// HealthProbe adapts Health for framework.WaitUntilReady.
func (c *Client) HealthProbe(url string) framework.ReadinessProbe {
	return func(ctx context.Context) (bool, error) {
		h, err := c.Health(ctx, url)
		if err != nil {
			return false, err
		}
		if !h.OK() {
			return false, fmt.Errorf("health endpoint returned HTTP %d: %s", h.HTTPStatus, h.Raw)
		}
		return true, nil
	}
}
