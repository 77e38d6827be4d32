package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// Tool is an MCP tool served by this process
type Tool interface {
	// Definition returns the schema advertised in tools/list
	Definition() mcp.Tool

	// Execute runs one call. Returned errors are reported to the caller as a failed tool call.
	Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error)
}

// ExtendedHelpProvider is implemented by tools that ship usage notes beyond their schema
type ExtendedHelpProvider interface {
	ProvideExtendedInfo() *ExtendedHelp
}

// ExtendedHelp documents how to call a tool well
type ExtendedHelp struct {
	Examples         []ToolExample        `json:"examples,omitempty" yaml:"examples,omitempty"`
	CommonPatterns   []string             `json:"common_patterns,omitempty" yaml:"common_patterns,omitempty"`
	Troubleshooting  []TroubleshootingTip `json:"troubleshooting,omitempty" yaml:"troubleshooting,omitempty"`
	ParameterDetails map[string]string    `json:"parameter_details,omitempty" yaml:"parameter_details,omitempty"`
	WhenToUse        string               `json:"when_to_use,omitempty" yaml:"when_to_use,omitempty"`
}

// ToolExample is a sample call
type ToolExample struct {
	Description    string         `json:"description" yaml:"description"`
	Arguments      map[string]any `json:"arguments" yaml:"arguments"`
	ExpectedResult string         `json:"expected_result,omitempty" yaml:"expected_result,omitempty"`
}

// TroubleshootingTip pairs a symptom with its fix
type TroubleshootingTip struct {
	Problem  string `json:"problem" yaml:"problem"`
	Solution string `json:"solution" yaml:"solution"`
}

// HelpFor returns a tool's extended help, if it provides any
func HelpFor(tool Tool) *ExtendedHelp {
	if p, ok := tool.(ExtendedHelpProvider); ok {
		return p.ProvideExtendedInfo()
	}
	return nil
}
