// Package search provides the "search" MCP tool backed by a SearXNG instance.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sammcj/mcp-searxng/internal/searxng"
	"github.com/sammcj/mcp-searxng/internal/tools"
	"github.com/sirupsen/logrus"
)

// ToolName is the name the tool is registered under
const ToolName = "search"

const queryDescription = `The search query. This string is passed to external search services.
Thus, SearXNG supports syntax of each search service.
For example, site:github.com SearXNG is a valid query for Google.
However, if simply the query above is passed to any search engine
which does not filter its results based on this syntax,
you might not get the results you wanted.`

const enabledPluginsDescription = `List of the enabled search plugins.
Defaults:
  - Hash_plugin
  - Self_Information
  - Tracker_URL_remover
  - Ahmia_blacklist`

const disabledPluginsDescription = `List of the disabled search plugins.
Defaults:
  - Hostnames_plugin
  - Open_Access_DOI_rewrite
  - Vim-like_hotkeys
  - Tor_check_plugin`

// Searcher runs a single backend search
type Searcher interface {
	Search(ctx context.Context, req *searxng.SearchRequest) (*searxng.Result, error)
}

// SearchTool exposes SearXNG's /search endpoint as an MCP tool
type SearchTool struct {
	searcher Searcher
}

// New creates the tool around a backend client
func New(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

// Definition returns the tool's definition for MCP registration
func (t *SearchTool) Definition() mcp.Tool {
	categories := searxng.Strings(searxng.Categories())
	engines := searxng.Strings(searxng.Engines())
	plugins := searxng.Strings(searxng.Plugins())

	return mcp.NewTool(
		ToolName,
		mcp.WithDescription(`Search the web through a SearXNG metasearch instance.

Results are aggregated from the selected engines. format=json (default) returns structured results,
format=csv returns {"output": [[...], ...]} rows, html and rss return the raw page.`),
		mcp.WithString("q",
			mcp.Required(),
			mcp.Description(queryDescription),
		),
		mcp.WithArray("categories",
			mcp.Description("List of the active search categories."),
			mcp.Items(map[string]any{"type": "string", "enum": categories}),
		),
		mcp.WithArray("engines",
			mcp.Description("List of the active search engines."),
			mcp.Items(map[string]any{"type": "string", "enum": engines}),
		),
		mcp.WithString("language",
			mcp.Description("ISO language code."),
		),
		mcp.WithNumber("pageno",
			mcp.Description("Page number of query result."),
			mcp.DefaultNumber(1),
			mcp.Min(1),
		),
		mcp.WithString("time_range",
			mcp.Description("Time range of search for engines which support it."),
			mcp.Enum(searxng.Strings(searxng.TimeRanges())...),
		),
		mcp.WithString("format",
			mcp.Description("Output format of results. Defaults to json."),
			mcp.DefaultString(string(searxng.DefaultFormat)),
			mcp.Enum(searxng.Strings(searxng.Formats())...),
		),
		mcp.WithBoolean("image_proxy",
			mcp.Description("Proxy image results through SearXNG."),
		),
		mcp.WithNumber("safesearch",
			mcp.Description("Filter search results of engines which support safe search. Higher the number, the stricter the safety level (0, 1 or 2)."),
			mcp.Min(searxng.SafeSearchOff),
			mcp.Max(searxng.SafeSearchStrict),
		),
		mcp.WithArray("enabled_plugins",
			mcp.Description(enabledPluginsDescription),
			mcp.Items(map[string]any{"type": "string", "enum": plugins}),
		),
		mcp.WithArray("disabled_plugins",
			mcp.Description(disabledPluginsDescription),
			mcp.Items(map[string]any{"type": "string", "enum": plugins}),
		),
		mcp.WithArray("enabled_engines",
			mcp.Description("List of the enabled search engines."),
			mcp.Items(map[string]any{"type": "string", "enum": engines}),
		),
		mcp.WithArray("disabled_engines",
			mcp.Description("List of the disabled search engines."),
			mcp.Items(map[string]any{"type": "string", "enum": engines}),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute runs one search and maps the backend response to MCP content
func (t *SearchTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	req, err := parseRequest(args)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"tool":   ToolName,
		"format": req.EffectiveFormat(),
		"pageno": req.PageNo,
	}).Info("Executing SearXNG search")

	res, err := t.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return newToolResult(res)
}

// newToolResult shapes a backend result for the protocol
func newToolResult(res *searxng.Result) (*mcp.CallToolResult, error) {
	switch res.Kind {
	case searxng.ResultStructured:
		return &mcp.CallToolResult{
			Content:           []mcp.Content{mcp.NewTextContent(string(res.Body))},
			StructuredContent: res.Structured,
		}, nil

	case searxng.ResultRows:
		payload, err := json.Marshal(map[string]any{"output": res.Rows})
		if err != nil {
			return nil, fmt.Errorf("failed to encode csv rows: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil

	default:
		return mcp.NewToolResultText(string(res.Body)), nil
	}
}

// ProvideExtendedInfo provides detailed usage information for the search tool
func (t *SearchTool) ProvideExtendedInfo() *tools.ExtendedHelp {
	return &tools.ExtendedHelp{
		Examples: []tools.ToolExample{
			{
				Description:    "Basic web search",
				Arguments:      map[string]any{"q": "golang generics tutorial"},
				ExpectedResult: "Structured JSON with a results array of title, url and content entries",
			},
			{
				Description: "Recent news in English from specific engines",
				Arguments: map[string]any{
					"q":          "open source licensing",
					"categories": []string{"news"},
					"engines":    []string{"bing_news", "google_news"},
					"language":   "en",
					"time_range": "month",
				},
				ExpectedResult: "News results from the last month",
			},
			{
				Description: "Second page as CSV rows",
				Arguments: map[string]any{
					"q":      "site:github.com searxng",
					"pageno": 2,
					"format": "csv",
				},
				ExpectedResult: `Text containing {"output": [["title","url",...], ...]}`,
			},
			{
				Description: "Strict safe search with the tracker remover forced on",
				Arguments: map[string]any{
					"q":               "science experiments for kids",
					"safesearch":      2,
					"enabled_plugins": []string{"Tracker_URL_remover"},
				},
			},
		},
		CommonPatterns: []string{
			"Leave format unset to get structured JSON; use csv for compact tabular output",
			"Narrow results with categories before reaching for individual engines",
			"Engine-specific query syntax such as site: is passed through untouched",
			"Increase pageno to walk further through the result set",
		},
		Troubleshooting: []tools.TroubleshootingTip{
			{
				Problem:  "SearXNG API error (HTTP 403) when requesting json or csv",
				Solution: "The instance must list the format under search.formats in its settings.yml. Only html is enabled by default.",
			},
			{
				Problem:  "SearXNG request failed: connection refused",
				Solution: "Check SEARXNG_URL points at a reachable instance, including scheme and port.",
			},
			{
				Problem:  "SearXNG API error (HTTP 429)",
				Solution: "The instance's limiter is rejecting requests. Lower SEARXNG_RATE_LIMIT or disable the limiter for this client.",
			},
			{
				Problem:  "Empty results array",
				Solution: "Some engines may be suspended on the instance. Try other engines or categories, or remove time_range.",
			},
		},
		ParameterDetails: map[string]string{
			"q":          "Required, non-empty. Passed verbatim to every selected engine.",
			"categories": "Any of: general, images, videos, news, map, music, it, science, files, social_media.",
			"format":     "json (structured), csv (rows), html or rss (raw text). Other values are sent as-is and answered with the raw body.",
			"pageno":     "Whole number starting at 1.",
			"safesearch": "0 off, 1 moderate, 2 strict.",
		},
		WhenToUse: "Looking up current information on the web, finding links to documentation, news or media via a self-hosted SearXNG instance.",
	}
}
