package search

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sammcj/mcp-searxng/internal/searxng"
)

// ArgumentError reports a tool argument with the wrong type or an unknown value
type ArgumentError struct {
	Param      string
	Reason     string
	Suggestion string
}

func (e *ArgumentError) Error() string {
	msg := fmt.Sprintf("invalid value for '%s': %s", e.Param, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// parseRequest decodes MCP call arguments into a search request.
// Type and range checks happen here; emptiness of required values is left to the sanitiser.
func parseRequest(args map[string]any) (*searxng.SearchRequest, error) {
	req := &searxng.SearchRequest{PageNo: 1, Format: searxng.DefaultFormat}
	var err error

	if req.Query, err = optionalString(args, "q"); err != nil {
		return nil, err
	}
	if req.Language, err = optionalString(args, "language"); err != nil {
		return nil, err
	}

	if req.Categories, err = enumList(args, "categories", "category", searxng.ParseCategory, searxng.Strings(searxng.Categories())); err != nil {
		return nil, err
	}
	engineNames := searxng.Strings(searxng.Engines())
	if req.Engines, err = enumList(args, "engines", "engine", searxng.ParseEngine, engineNames); err != nil {
		return nil, err
	}
	if req.EnabledEngines, err = enumList(args, "enabled_engines", "engine", searxng.ParseEngine, engineNames); err != nil {
		return nil, err
	}
	if req.DisabledEngines, err = enumList(args, "disabled_engines", "engine", searxng.ParseEngine, engineNames); err != nil {
		return nil, err
	}
	pluginNames := searxng.Strings(searxng.Plugins())
	if req.EnabledPlugins, err = enumList(args, "enabled_plugins", "plugin", searxng.ParsePlugin, pluginNames); err != nil {
		return nil, err
	}
	if req.DisabledPlugins, err = enumList(args, "disabled_plugins", "plugin", searxng.ParsePlugin, pluginNames); err != nil {
		return nil, err
	}

	if page, ok, err := optionalInt(args, "pageno"); err != nil {
		return nil, err
	} else if ok {
		if page < 1 {
			return nil, &ArgumentError{Param: "pageno", Reason: "must be 1 or greater"}
		}
		req.PageNo = page
	}

	timeRange, err := optionalString(args, "time_range")
	if err != nil {
		return nil, err
	}
	if timeRange != "" {
		tr := searxng.TimeRange(timeRange)
		valid := searxng.Strings(searxng.TimeRanges())
		if !slices.Contains(valid, timeRange) {
			return nil, &ArgumentError{
				Param:      "time_range",
				Reason:     fmt.Sprintf("must be one of %s", strings.Join(valid, ", ")),
				Suggestion: suggest(timeRange, valid),
			}
		}
		req.TimeRange = tr
	}

	// Unrecognised formats are passed through and answered with the raw body.
	format, err := optionalString(args, "format")
	if err != nil {
		return nil, err
	}
	if format != "" {
		req.Format = searxng.Format(format)
	}

	if v, ok := args["image_proxy"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, &ArgumentError{Param: "image_proxy", Reason: fmt.Sprintf("expected a boolean, got %T", v)}
		}
		req.ImageProxy = &b
	}

	if level, ok, err := optionalInt(args, "safesearch"); err != nil {
		return nil, err
	} else if ok {
		if level < searxng.SafeSearchOff || level > searxng.SafeSearchStrict {
			return nil, &ArgumentError{Param: "safesearch", Reason: "must be 0, 1 or 2"}
		}
		req.SafeSearch = &level
	}

	return req, nil
}

func optionalString(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ArgumentError{Param: name, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
	return s, nil
}

// optionalInt accepts JSON numbers holding whole values and numeric strings
func optionalInt(args map[string]any, name string) (int, bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, false, nil
	}

	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, false, &ArgumentError{Param: name, Reason: fmt.Sprintf("expected an integer, got %v", n)}
		}
		return int(n), true, nil
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case string:
		if n == "" {
			return 0, false, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false, &ArgumentError{Param: name, Reason: fmt.Sprintf("expected an integer, got %q", n)}
		}
		return i, true, nil
	default:
		return 0, false, &ArgumentError{Param: name, Reason: fmt.Sprintf("expected an integer, got %T", v)}
	}
}

// enumList decodes an array of identifiers. A single comma-separated string is also accepted.
func enumList[T any](args map[string]any, name, kind string, parse func(string) (T, error), known []string) ([]T, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}

	var raw []string
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, &ArgumentError{Param: name, Reason: fmt.Sprintf("expected a list of strings, found %T", item)}
			}
			raw = append(raw, s)
		}
	case []string:
		raw = items
	case string:
		for part := range strings.SplitSeq(items, ",") {
			if part = strings.TrimSpace(part); part != "" {
				raw = append(raw, part)
			}
		}
	default:
		return nil, &ArgumentError{Param: name, Reason: fmt.Sprintf("expected a list of strings, got %T", v)}
	}

	out := make([]T, 0, len(raw))
	for _, s := range raw {
		member, err := parse(s)
		if err != nil {
			return nil, &ArgumentError{
				Param:      name,
				Reason:     fmt.Sprintf("unknown %s %q", kind, s),
				Suggestion: suggest(s, known),
			}
		}
		out = append(out, member)
	}
	return out, nil
}

// suggest returns the closest known identifier, or "" when nothing is close
func suggest(input string, known []string) string {
	matches := fuzzy.Find(input, known)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}
