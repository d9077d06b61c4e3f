package mcptests

import (
	"fmt"

	"github.com/edt-mcp/mcp-contract-tests/framework"
)

const (
	SectionProtocol = "Protocol Tests"
	SectionSession  = "Session"
)

type registrar struct {
	runner *framework.Runner
	env    *Environment
	err    error
}

func (r *registrar) add(name string, action func(*T)) {
	if r.err != nil {
		return
	}
	env := r.env
	r.err = r.runner.Register(name, func(c *framework.Context) {
		action(newT(c, env))
	})
}

// Register adds the whole suite to runner: the protocol cases, then every section of each catalog
// in order, then session termination. The order is significant. "initialize" establishes the
// session that later cases use, and "session_terminate" ends it, so it must come last.
func Register(runner *framework.Runner, env *Environment, catalogs ...Catalog) error {
	r := &registrar{runner: runner, env: env}

	runner.Section(SectionProtocol)
	r.add("health_check", DoHealthCheck)
	r.add("initialize", DoInitialize)
	r.add("initialized_notification", DoInitializedNotification)
	r.add("tools_list", DoToolsList)
	r.add("tools_list_schemas", DoToolsListSchemas)
	r.add("invalid_method", DoInvalidMethod)
	r.add("invalid_jsonrpc", DoInvalidJSONRPC)
	r.add("malformed_json", DoMalformedJSON)
	r.add("tool_not_found", DoToolNotFound)
	r.add("response_id_echo", DoResponseIDEcho)

	for _, catalog := range catalogs {
		for _, section := range catalog.Sections {
			runner.Section(section.Title)
			for _, tc := range section.Cases {
				r.add(tc.Name, tc.Run)
			}
		}
	}

	runner.Section(SectionSession)
	r.add("session_terminate", DoSessionTerminate)

	if r.err != nil {
		return fmt.Errorf("registering cases: %w", r.err)
	}
	return nil
}
