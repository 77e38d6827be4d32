// Package cli runs registered tools straight from the command line, without an MCP client.
// Tools are invoked in-process through the registry.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-searxng/internal/registry"
	"github.com/sirupsen/logrus"
)

// OutputFormat controls how results are rendered
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Runner executes CLI commands against the tool registry
type Runner struct {
	logger *logrus.Logger
	out    io.Writer
	output OutputFormat
}

// NewRunner creates a Runner writing to out
func NewRunner(logger *logrus.Logger, out io.Writer, output OutputFormat) *Runner {
	return &Runner{logger: logger, out: out, output: output}
}

// ListTools prints all enabled tools with the first line of their description
func (r *Runner) ListTools() error {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var entries []entry
	for _, name := range registry.GetEnabledToolNames() {
		tool, ok := registry.GetTool(name)
		if !ok {
			continue
		}
		entries = append(entries, entry{Name: name, Description: firstLine(tool.Definition().Description)})
	}

	if r.output == OutputJSON {
		return r.writeJSON(entries)
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Description)
	}
	return w.Flush()
}

// HelpTool prints the parameters of a single tool
func (r *Runner) HelpTool(name string) error {
	tool, ok := registry.GetTool(resolveName(name))
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	def := tool.Definition()

	if r.output == OutputJSON {
		return r.writeJSON(def)
	}

	_, _ = fmt.Fprintf(r.out, "Tool: %s\n\n%s\n\n", def.Name, def.Description)

	props := def.InputSchema.Properties
	if len(props) == 0 {
		_, _ = fmt.Fprintln(r.out, "No parameters.")
		return nil
	}

	names := make([]string, 0, len(props))
	for k := range props {
		names = append(names, k)
	}
	slices.Sort(names)

	_, _ = fmt.Fprintln(r.out, "Parameters:")
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, pName := range names {
		pMap, ok := props[pName].(map[string]any)
		if !ok {
			continue
		}
		pType, _ := pMap["type"].(string)
		pDesc, _ := pMap["description"].(string)

		required := ""
		if slices.Contains(def.InputSchema.Required, pName) {
			required = " (required)"
		}
		_, _ = fmt.Fprintf(w, "  --%s\t%s\t%s%s%s\n", toFlagName(pName), pType, firstLine(pDesc), required, formatEnum(pMap))
	}
	return w.Flush()
}

// RunTool executes a tool by name. args are --key=value flags, --key value pairs,
// bare --flag for booleans, or a JSON object; flags win over JSON keys.
func (r *Runner) RunTool(ctx context.Context, name string, args []string) error {
	tool, ok := registry.GetTool(resolveName(name))
	if !ok {
		return fmt.Errorf("unknown tool: %s (run 'mcp-searxng tools list' to see available tools)", name)
	}

	params, err := parseArgs(args, tool.Definition())
	if err != nil {
		return fmt.Errorf("argument error: %w", err)
	}

	result, err := tool.Execute(ctx, r.logger, params)
	if err != nil {
		return fmt.Errorf("tool error: %w", err)
	}
	return r.renderResult(result)
}

func parseArgs(args []string, def mcp.Tool) (map[string]any, error) {
	params := make(map[string]any)
	flagged := make(map[string]bool)
	schema := buildSchemaInfo(def)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(arg), &obj); err != nil {
				return nil, fmt.Errorf("invalid JSON argument: %w", err)
			}
			for k, v := range obj {
				if !flagged[k] {
					params[k] = v
				}
			}
			continue
		}

		if !strings.HasPrefix(arg, "--") {
			return nil, fmt.Errorf("unexpected argument: %s (use --key=value flags or pass a JSON object)", arg)
		}

		stripped := strings.TrimPrefix(arg, "--")
		flagName, rawVal, hasValue := strings.Cut(stripped, "=")
		paramName := schema.resolveParam(flagName)
		paramType := schema.types[paramName]

		switch {
		case hasValue:
			params[paramName] = coerceValue(rawVal, paramType)
		case paramType == "boolean":
			params[paramName] = true
		default:
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("flag --%s requires a value", flagName)
			}
			params[paramName] = coerceValue(args[i], paramType)
		}
		flagged[paramName] = true
	}

	return params, nil
}

type schemaInfo struct {
	types       map[string]string
	flagToParam map[string]string
}

func buildSchemaInfo(def mcp.Tool) schemaInfo {
	info := schemaInfo{
		types:       make(map[string]string, len(def.InputSchema.Properties)),
		flagToParam: make(map[string]string, len(def.InputSchema.Properties)),
	}
	for name, prop := range def.InputSchema.Properties {
		if pm, ok := prop.(map[string]any); ok {
			if t, ok := pm["type"].(string); ok {
				info.types[name] = t
			}
		}
		info.flagToParam[toFlagName(name)] = name
	}
	return info
}

// resolveParam maps a kebab-case flag to its schema property, falling back to snake_case
func (s schemaInfo) resolveParam(flagName string) string {
	if actual, ok := s.flagToParam[flagName]; ok {
		return actual
	}
	return strings.ReplaceAll(flagName, "-", "_")
}

// coerceValue converts a flag value to the JSON type the schema declares,
// producing the same shapes an MCP client would send
func coerceValue(raw, schemaType string) any {
	switch schemaType {
	case "number", "integer":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
		return raw
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
		return raw
	case "array":
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			return arr
		}
		var items []any
		for part := range strings.SplitSeq(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items
	default:
		return raw
	}
}

func (r *Runner) renderResult(result *mcp.CallToolResult) error {
	if result == nil {
		return nil
	}
	if r.output == OutputJSON {
		return r.writeJSON(result)
	}

	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			_, _ = fmt.Fprintln(r.out, text.Text)
			continue
		}
		data, err := json.MarshalIndent(content, "", "  ")
		if err != nil {
			_, _ = fmt.Fprintf(r.out, "%+v\n", content)
			continue
		}
		_, _ = fmt.Fprintln(r.out, string(data))
	}

	if result.IsError {
		return fmt.Errorf("tool returned an error")
	}
	return nil
}

// resolveName accepts kebab-case names for snake_case tools
func resolveName(name string) string {
	if _, ok := registry.GetTool(name); ok {
		return name
	}
	return strings.ReplaceAll(name, "-", "_")
}

func (r *Runner) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	before, _, _ := strings.Cut(s, "\n")
	return before
}

// toFlagName converts snake_case to kebab-case
func toFlagName(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

func formatEnum(pMap map[string]any) string {
	var vals []string
	switch enum := pMap["enum"].(type) {
	case []string:
		vals = enum
	case []any:
		for _, v := range enum {
			vals = append(vals, fmt.Sprint(v))
		}
	}
	if len(vals) == 0 {
		return ""
	}
	return " [" + strings.Join(vals, "|") + "]"
}
