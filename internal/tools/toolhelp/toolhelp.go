// Package toolhelp provides the get_tool_help tool, which returns the usage notes other tools ship.
package toolhelp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sahilm/fuzzy"
	"github.com/sammcj/mcp-searxng/internal/params"
	"github.com/sammcj/mcp-searxng/internal/registry"
	"github.com/sammcj/mcp-searxng/internal/tools"
	"github.com/sirupsen/logrus"
)

// ToolName is the name the tool is registered under
const ToolName = "get_tool_help"

var signature = params.Signature{
	{Name: "tool_name", Kind: params.KindString},
}

// Response is the JSON document returned to the caller
type Response struct {
	ToolName        string              `json:"tool_name"`
	BasicInfo       map[string]any      `json:"basic_info"`
	ExtendedInfo    *tools.ExtendedHelp `json:"extended_info,omitempty"`
	HasExtendedInfo bool                `json:"has_extended_info"`
	Message         string              `json:"message,omitempty"`
}

// ToolHelpTool looks tools up in the registry at call time
type ToolHelpTool struct{}

// New creates the tool
func New() *ToolHelpTool {
	return &ToolHelpTool{}
}

// Definition returns the tool's definition for MCP registration.
// Build it after the tools it documents are registered so the enum is complete.
func (t *ToolHelpTool) Definition() mcp.Tool {
	names := registry.GetToolNamesWithExtendedHelp()

	description := "Get detailed usage examples and troubleshooting for this server's tools when a call fails unexpectedly."
	if len(names) == 0 {
		description = "No tools currently provide extended help information."
		names = []string{}
	}

	return mcp.NewTool(
		ToolName,
		mcp.WithDescription(description),
		mcp.WithString("tool_name",
			mcp.Required(),
			mcp.Description("Name of the tool to get help for"),
			mcp.Enum(names...),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
}

// Execute returns the help document for one tool
func (t *ToolHelpTool) Execute(_ context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	values, err := params.Clean(signature, args)
	if err != nil {
		return nil, err
	}
	raw, present := values.Get("tool_name")
	if !present {
		return nil, &params.ValidationError{Param: "tool_name"}
	}
	toolName, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("invalid value for 'tool_name': expected a string, got %T", raw)
	}

	available := registry.GetToolNamesWithExtendedHelp()
	tool, exists := registry.GetTool(toolName)
	help := tools.HelpFor(tool)
	if !exists || help == nil {
		msg := fmt.Sprintf("tool '%s' not found, disabled, or does not provide extended help. Tools with extended help: %s",
			toolName, strings.Join(available, ", "))
		if matches := fuzzy.Find(toolName, available); len(matches) > 0 {
			msg += fmt.Sprintf(" (did you mean %q?)", matches[0].Str)
		}
		return nil, fmt.Errorf("%s", msg)
	}

	logger.WithField("tool", toolName).Debug("Serving extended tool help")

	definition := tool.Definition()
	response := &Response{
		ToolName: toolName,
		BasicInfo: map[string]any{
			"name":         definition.Name,
			"description":  definition.Description,
			"input_schema": definition.InputSchema,
		},
		ExtendedInfo:    help,
		HasExtendedInfo: true,
	}

	out, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
