package mcptests

import (
	"net"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/client"
	"github.com/edt-mcp/mcp-contract-tests/framework"
	"github.com/edt-mcp/mcp-contract-tests/internal/fakeserver"

	"github.com/stretchr/testify/require"
)

const testProject = "TestConfiguration"

func targetFor(t *testing.T, serverURL string) client.Target {
	u, err := url.Parse(serverURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return client.Target{Host: host, Port: port, Project: testProject}
}

func newEnvironment(target client.Target) *Environment {
	return &Environment{
		Client:  client.NewClient(client.NewSession()),
		Target:  target,
		Timeout: 5 * time.Second,
	}
}

// runAgainst runs the whole suite against a fake server built with the given options.
func runAgainst(t *testing.T, server *fakeserver.Server, catalogs ...Catalog) framework.RunReport {
	hs := httptest.NewServer(server)
	defer hs.Close()

	runner := framework.NewRunner()
	require.NoError(t, Register(runner, newEnvironment(targetFor(t, hs.URL)), catalogs...))
	return runner.Run()
}

func verdictOf(t *testing.T, report framework.RunReport, name string) framework.TestResult {
	for _, r := range report.Tests {
		if r.Name == name {
			return r
		}
	}
	require.Failf(t, "case not found", "no verdict for %q", name)
	return framework.TestResult{}
}

func reportFailures(t *testing.T, report framework.RunReport) {
	for _, r := range report.NonPassing() {
		t.Errorf("%s %s/%s: %s", r.Outcome, r.Section, r.Name, r.Message)
	}
}
