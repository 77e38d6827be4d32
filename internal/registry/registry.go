package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/sammcj/mcp-searxng/internal/tools"
	"github.com/sirupsen/logrus"
)

var (
	mu sync.RWMutex

	// toolRegistry maps tool names to implementations
	toolRegistry = make(map[string]tools.Tool)

	// disabledTools is the set of tool names switched off via DISABLED_TOOLS
	disabledTools = make(map[string]bool)

	// logger is the shared logger instance
	logger *logrus.Logger
)

// Init resets the registry, stores the shared logger and records which tools are disabled
func Init(l *logrus.Logger, disabled []string) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	toolRegistry = make(map[string]tools.Tool)
	disabledTools = make(map[string]bool)

	for _, name := range disabled {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		disabledTools[name] = true
		if logger != nil {
			logger.WithField("tool", name).Debug("Tool disabled")
		}
	}
}

// ParseDisabledTools splits a DISABLED_TOOLS style comma-separated list
func ParseDisabledTools(value string) []string {
	var names []string
	for name := range strings.SplitSeq(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Register adds a tool unless it has been disabled
func Register(tool tools.Tool) {
	name := tool.Definition().Name

	mu.Lock()
	defer mu.Unlock()

	if disabledTools[name] {
		if logger != nil {
			logger.WithField("tool", name).Debug("Tool not registered (disabled)")
		}
		return
	}

	toolRegistry[name] = tool
	if logger != nil {
		logger.WithField("tool", name).Debug("Tool successfully registered")
	}
}

// GetTool retrieves a tool by name, returns false if disabled or unknown
func GetTool(name string) (tools.Tool, bool) {
	mu.RLock()
	defer mu.RUnlock()

	if disabledTools[name] {
		return nil, false
	}
	tool, ok := toolRegistry[name]
	return tool, ok
}

// GetEnabledTools returns all registered tools that are not disabled
func GetEnabledTools() map[string]tools.Tool {
	mu.RLock()
	defer mu.RUnlock()

	filtered := make(map[string]tools.Tool, len(toolRegistry))
	for name, tool := range toolRegistry {
		if disabledTools[name] {
			continue
		}
		filtered[name] = tool
	}
	return filtered
}

// GetEnabledToolNames returns a sorted list of enabled tool names
func GetEnabledToolNames() []string {
	var names []string
	for name := range GetEnabledTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetToolNamesWithExtendedHelp returns a sorted list of enabled tools that provide extended help
func GetToolNamesWithExtendedHelp() []string {
	var names []string
	for name, tool := range GetEnabledTools() {
		if _, ok := tool.(tools.ExtendedHelpProvider); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsDisabled reports whether name was switched off
func IsDisabled(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	return disabledTools[name]
}

// GetLogger returns the shared logger instance
func GetLogger() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
