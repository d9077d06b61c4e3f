package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/edt-mcp/mcp-contract-tests/client"
	"github.com/edt-mcp/mcp-contract-tests/framework"
	"github.com/edt-mcp/mcp-contract-tests/mcptests"
	"github.com/edt-mcp/mcp-contract-tests/report"

	"github.com/spf13/cobra"
)

const (
	exitOK           = 0
	exitFailed       = 1
	exitNotAvailable = 2
)

// exitError carries the process exit status out of a command.
type exitError struct {
	code int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// paramsError is a problem with the environment or the flags of the root command.
type paramsError struct {
	err error
}

func (e paramsError) Error() string { return e.err.Error() }

func (e paramsError) Unwrap() error { return e.err }

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit status.
func execute(ctx context.Context, args []string, lookup envLookup, stdout, stderr io.Writer) int {
	cmd := newRootCommand(lookup, stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		var invalid paramsError
		if errors.As(err, &invalid) {
			fmt.Fprintf(stderr, "Invalid parameters: %s\n", err)
			return exitFailed
		}
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return exitFailed
	}
	return exitOK
}

// newRootCommand builds the command line. The environment is read here so that it supplies the
// flag defaults, but an invalid value is reported only when the suite itself runs, leaving
// subcommands usable.
func newRootCommand(lookup envLookup, stdout, stderr io.Writer) *cobra.Command {
	params, envErr := defaultParams(lookup)
	cmd := &cobra.Command{
		Use:           "mcp-contract-tests",
		Short:         "Black-box conformance tests for an EDT MCP server",
		Long:          "Runs the MCP protocol and tool cases in order against a running server and reports a verdict for each.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return paramsError{envErr}
			}
			if err := params.validate(); err != nil {
				return paramsError{err}
			}
			return runSuite(cmd.Context(), params, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	params.bindFlags(cmd)
	cmd.AddCommand(newHistoryCommand(stdout))
	return cmd
}

func newHistoryCommand(stdout io.Writer) *cobra.Command {
	var (
		path  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return errors.New("--history-db is required")
			}
			h, err := report.OpenHistory(path)
			if err != nil {
				return err
			}
			defer h.Close()
			runs, err := h.Runs(limit)
			if err != nil {
				return err
			}
			report.WriteRunsTable(stdout, runs)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "history-db", "", "SQLite database written by --history-db")
	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "number of runs to show")
	return cmd
}

func runSuite(ctx context.Context, params commandParams, stdout, stderr io.Writer) error {
	target := params.target()

	catalogs := []mcptests.Catalog{mcptests.DefaultCatalog()}
	for _, path := range params.catalogs {
		c, err := mcptests.LoadCatalogFile(path)
		if err != nil {
			return err
		}
		catalogs = append(catalogs, c)
	}

	sinks := report.NewFileSinks(stdout)
	sinks.JUnitPath = params.junitXML
	sinks.JSONPath = params.jsonReport
	sinks.Target = target.RPCURL()
	sinks.Project = target.Project
	if params.historyDB != "" {
		h, err := report.OpenHistory(params.historyDB)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer h.Close()
		sinks.History = h
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(stdout, "", log.LstdFlags)
	}
	mcpClient := client.NewClient(client.NewSession(), client.WithDefaultTimeout(params.timeout)).
		WithLogger(mainDebugLogger)

	console := report.NewConsoleTestLogger(stdout, params.noColor)
	console.DebugOutputOnFailure = params.debug || params.debugAll
	console.DebugOutputOnSuccess = params.debugAll

	if params.waitSecs > 0 {
		policy := framework.ReadinessPolicy{
			Interval: framework.DefaultReadinessInterval,
			Deadline: time.Duration(params.waitSecs) * time.Second,
		}
		if !framework.WaitUntilReady(ctx, policy, target.BaseURL(), mcpClient.HealthProbe(target.HealthURL()), stdout) {
			fmt.Fprintln(stdout, "FATAL: Server did not become available in time")
			return exitError{code: exitNotAvailable}
		}
	}

	console.Banner(target.RPCURL(), target.Project)
	params.filters.Describe(stdout)

	options := []framework.RunnerOption{
		framework.WithTestLogger(framework.MultiTestLogger{console, sinks}),
	}
	if params.filters.IsDefined() {
		options = append(options, framework.WithFilter(params.filters.AsFilter))
	}
	runner := framework.NewRunner(options...)
	env := &mcptests.Environment{Client: mcpClient, Target: target, Timeout: params.timeout}
	if err := mcptests.Register(runner, env, catalogs...); err != nil {
		return err
	}

	result := runner.Run()
	for _, err := range sinks.Errors() {
		fmt.Fprintf(stderr, "Report error: %s\n", err)
	}
	if !result.OK() {
		return exitError{code: exitFailed}
	}
	return nil
}
