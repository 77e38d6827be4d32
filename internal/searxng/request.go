package searxng

import (
	"slices"

	"github.com/sammcj/mcp-searxng/internal/params"
)

// Format is the output format requested from the backend
type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatRSS  Format = "rss"
)

// DefaultFormat is used when a request leaves Format empty
const DefaultFormat = FormatJSON

var formats = []Format{FormatHTML, FormatJSON, FormatCSV, FormatRSS}

// Formats returns the formats the backend is known to produce
func Formats() []Format { return slices.Clone(formats) }

// Known reports whether f is one of the documented backend formats
func (f Format) Known() bool { return slices.Contains(formats, f) }

// TimeRange limits results to a recent window on engines that support it
type TimeRange string

const (
	TimeRangeDay   TimeRange = "day"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// TimeRanges returns every accepted time range
func TimeRanges() []TimeRange { return []TimeRange{TimeRangeDay, TimeRangeMonth, TimeRangeYear} }

// SafeSearch levels, higher is stricter
const (
	SafeSearchOff      = 0
	SafeSearchModerate = 1
	SafeSearchStrict   = 2
)

// SearchRequest holds one call's worth of search parameters.
// Zero values mean "not supplied"; nil pointers distinguish absent from false/0.
type SearchRequest struct {
	Query           string
	Categories      []Category
	Engines         []Engine
	Language        string
	PageNo          int
	TimeRange       TimeRange
	Format          Format
	ImageProxy      *bool
	SafeSearch      *int
	EnabledPlugins  []Plugin
	DisabledPlugins []Plugin
	EnabledEngines  []Engine
	DisabledEngines []Engine
}

// Signature declares the backend /search parameters in the order they are sent
var Signature = params.Signature{
	{Name: "q", Kind: params.KindString},
	{Name: "categories", Kind: params.KindList, Optional: true},
	{Name: "engines", Kind: params.KindList, Optional: true},
	{Name: "language", Kind: params.KindString, Optional: true},
	{Name: "pageno", Kind: params.KindInteger, Optional: true},
	{Name: "time_range", Kind: params.KindString, Optional: true},
	{Name: "format", Kind: params.KindString, Optional: true},
	{Name: "image_proxy", Kind: params.KindBoolean, Optional: true},
	{Name: "safesearch", Kind: params.KindInteger, Optional: true},
	{Name: "enabled_plugins", Kind: params.KindList, Optional: true},
	{Name: "disabled_plugins", Kind: params.KindList, Optional: true},
	{Name: "enabled_engines", Kind: params.KindList, Optional: true},
	{Name: "disabled_engines", Kind: params.KindList, Optional: true},
}

// EffectiveFormat returns the requested format with the default applied
func (r *SearchRequest) EffectiveFormat() Format {
	if r.Format == "" {
		return DefaultFormat
	}
	return r.Format
}

func (r *SearchRequest) pageNo() int {
	if r.PageNo < 1 {
		return 1
	}
	return r.PageNo
}

// Args builds the raw argument bag with defaults applied
func (r *SearchRequest) Args() map[string]any {
	return map[string]any{
		"q":                r.Query,
		"categories":       params.EnumList(r.Categories),
		"engines":          params.EnumList(r.Engines),
		"language":         r.Language,
		"pageno":           r.pageNo(),
		"time_range":       string(r.TimeRange),
		"format":           string(r.EffectiveFormat()),
		"image_proxy":      r.ImageProxy,
		"safesearch":       r.SafeSearch,
		"enabled_plugins":  params.EnumList(r.EnabledPlugins),
		"disabled_plugins": params.EnumList(r.DisabledPlugins),
		"enabled_engines":  params.EnumList(r.EnabledEngines),
		"disabled_engines": params.EnumList(r.DisabledEngines),
	}
}

// Params sanitises the request into backend query parameters
func (r *SearchRequest) Params() (params.Values, error) {
	return params.Clean(Signature, r.Args())
}
