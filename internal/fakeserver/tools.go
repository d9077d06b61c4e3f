package fakeserver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func projectTool(name, description string, extra ...mcp.ToolOption) mcp.Tool {
	options := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("projectName", mcp.Required(), mcp.Description("EDT project name")),
	}
	return mcp.NewTool(name, append(options, extra...)...)
}

// echoHandler answers with a text item naming the tool and its arguments.
func echoHandler(toolName string) ToolHandler {
	return func(arguments map[string]interface{}) *mcp.CallToolResult {
		keys := make([]string, 0, len(arguments))
		for k := range arguments {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, arguments[k]))
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s(%s)", toolName, strings.Join(parts, ", ")))
	}
}

// defaultTools returns the tools that the built-in catalog exercises.
func defaultTools() []registeredTool {
	var ret []registeredTool
	add := func(tool mcp.Tool, handler ToolHandler) {
		if handler == nil {
			handler = echoHandler(tool.Name)
		}
		ret = append(ret, registeredTool{tool: tool, handler: handler})
	}

	add(mcp.NewTool("get_edt_version", mcp.WithDescription("Returns the EDT version")),
		func(map[string]interface{}) *mcp.CallToolResult { return mcp.NewToolResultText(EDTVersion) })
	add(mcp.NewTool("list_projects", mcp.WithDescription("Lists workspace projects")), nil)
	add(mcp.NewTool("get_platform_documentation",
		mcp.WithDescription("Returns platform type documentation"),
		mcp.WithString("typeName", mcp.Required(), mcp.Description("Platform type name"))), nil)
	add(mcp.NewTool("get_check_description",
		mcp.WithDescription("Describes a code check"),
		mcp.WithString("checkId", mcp.Required(), mcp.Description("Check identifier"))), nil)

	add(projectTool("get_configuration_properties", "Returns configuration properties"), nil)
	add(projectTool("get_metadata_objects", "Lists metadata objects",
		mcp.WithString("metadataType", mcp.Description("Metadata type filter"))), nil)
	add(projectTool("get_metadata_details", "Returns metadata object details",
		mcp.WithArray("objectFqns", mcp.Required(), mcp.Description("Fully qualified names"))), nil)
	add(projectTool("get_problem_summary", "Summarizes project problems"), nil)
	add(projectTool("get_project_errors", "Lists project errors"), nil)
	add(projectTool("get_tags", "Lists tags"), nil)
	add(mcp.NewTool("get_bookmarks", mcp.WithDescription("Lists bookmarks")), nil)
	add(projectTool("get_tasks", "Lists tasks"), nil)

	add(projectTool("list_modules", "Lists BSL modules"), nil)
	add(projectTool("get_module_structure", "Returns the structure of a module",
		mcp.WithString("modulePath", mcp.Required(), mcp.Description("Module path"))), nil)
	add(projectTool("read_module_source", "Returns module source",
		mcp.WithString("modulePath", mcp.Required(), mcp.Description("Module path"))),
		func(arguments map[string]interface{}) *mcp.CallToolResult {
			path, _ := arguments["modulePath"].(string)
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.EmbeddedResource{
						Type: "resource",
						Resource: mcp.TextResourceContents{
							URI:      "bsl://" + path,
							MIMEType: "text/plain",
							Text:     "Procedure OK() Export\nEndProcedure\n",
						},
					},
				},
			}
		})
	add(projectTool("read_method_source", "Returns the source of one method",
		mcp.WithString("modulePath", mcp.Required(), mcp.Description("Module path")),
		mcp.WithString("methodName", mcp.Required(), mcp.Description("Method name"))), nil)
	add(projectTool("search_in_code", "Searches module code",
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("outputMode", mcp.Description("full or count"))), nil)

	add(projectTool("find_references", "Finds references to an object",
		mcp.WithString("objectFqn", mcp.Required(), mcp.Description("Fully qualified name"))), nil)
	add(projectTool("get_applications", "Lists applications"), nil)
	add(projectTool("get_form_screenshot", "Renders a form",
		mcp.WithString("formPath", mcp.Required(), mcp.Description("Form path"))), nil)

	return ret
}
