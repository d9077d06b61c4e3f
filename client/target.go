package client

import (
	"fmt"
	"net"
	"strconv"
)

// Target identifies the server under test and the project the cases operate on. It is created
// once at startup and never changes.
type Target struct {
	Host    string
	Port    int
	Project string
}

// BaseURL is the server root, for instance "http://localhost:8765".
func (t Target) BaseURL() string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(t.Host, strconv.Itoa(t.Port)))
}

// RPCURL is the JSON-RPC endpoint.
func (t Target) RPCURL() string { return t.BaseURL() + "/mcp" }

// HealthURL is the liveness endpoint.
func (t Target) HealthURL() string { return t.BaseURL() + "/health" }
