package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/client"
	"github.com/edt-mcp/mcp-contract-tests/framework"

	"github.com/spf13/cobra"
)

const (
	defaultHost    = "localhost"
	defaultPort    = 8765
	defaultProject = "TestConfiguration"

	envHost    = "MCP_HOST"
	envPort    = "MCP_PORT"
	envProject = "MCP_PROJECT"

	defaultHistoryLimit = 20
)

type commandParams struct {
	host       string
	port       int
	project    string
	waitSecs   int
	junitXML   string
	jsonReport string
	historyDB  string
	catalogs   []string
	filters    framework.RegexFilters
	timeout    time.Duration
	debug      bool
	debugAll   bool
	noColor    bool
}

// envLookup has the signature of os.LookupEnv.
type envLookup func(key string) (string, bool)

// defaultParams applies the environment over the built-in defaults. Flags are applied over the
// result by cobra.
func defaultParams(lookup envLookup) (commandParams, error) {
	p := commandParams{
		host:    defaultHost,
		port:    defaultPort,
		project: defaultProject,
		timeout: client.DefaultTimeout,
	}
	if v, ok := lookup(envHost); ok && v != "" {
		p.host = v
	}
	if v, ok := lookup(envPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return p, fmt.Errorf("invalid %s value %q: must be a port number", envPort, v)
		}
		p.port = port
	}
	if v, ok := lookup(envProject); ok && v != "" {
		p.project = v
	}
	return p, nil
}

func (p *commandParams) bindFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&p.host, "host", p.host, "MCP server host (env "+envHost+")")
	fs.IntVar(&p.port, "port", p.port, "MCP server port (env "+envPort+")")
	fs.StringVar(&p.project, "project", p.project, "EDT project used by project-scoped tools (env "+envProject+")")
	fs.IntVar(&p.waitSecs, "wait", 0, "seconds to wait for the server's health endpoint before running (0 = no wait)")
	fs.StringVar(&p.junitXML, "junit-xml", "", "write a JUnit XML report to this path")
	fs.StringVar(&p.jsonReport, "json-report", "", "write a JSON report to this path")
	fs.StringVar(&p.historyDB, "history-db", "", "record the run in this SQLite database")
	fs.StringArrayVar(&p.catalogs, "cases", nil, "YAML file of additional tool cases (repeatable)")
	fs.Var(&p.filters.MustMatch, "run", "regex pattern(s) of section/name to select cases to run")
	fs.Var(&p.filters.MustNotMatch, "skip", "regex pattern(s) of section/name to select cases not to run")
	fs.DurationVar(&p.timeout, "timeout", p.timeout, "default per-call timeout")
	fs.BoolVar(&p.debug, "debug", false, "show captured traffic for cases that did not pass")
	fs.BoolVar(&p.debugAll, "debug-all", false, "show captured traffic for all cases, and harness debug logging")
	fs.BoolVar(&p.noColor, "no-color", false, "disable colored output")
}

func (p commandParams) validate() error {
	if p.host == "" {
		return fmt.Errorf("--host must not be empty")
	}
	if p.port <= 0 || p.port > 65535 {
		return fmt.Errorf("--port %d is not a port number", p.port)
	}
	if p.waitSecs < 0 {
		return fmt.Errorf("--wait must not be negative")
	}
	if p.timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	return nil
}

func (p commandParams) target() client.Target {
	return client.Target{Host: p.host, Port: p.port, Project: p.project}
}
