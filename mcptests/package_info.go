// Package mcptests contains the MCP conformance cases themselves and their supporting API.
//
// Protocol cases are Go functions. Tool cases are data: each entry of the embedded catalog.yaml,
// or of a catalog supplied on the command line, becomes one case that calls a tool and checks the
// shape of the response.
//
// Harness infrastructure that is not specific to MCP, such as running cases and classifying their
// outcomes, is in the lower-level framework package.
package mcptests
