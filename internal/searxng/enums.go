package searxng

import (
	"fmt"
	"slices"
)

// Category is a SearXNG search category
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryImages      Category = "images"
	CategoryVideos      Category = "videos"
	CategoryNews        Category = "news"
	CategoryMap         Category = "map"
	CategoryMusic       Category = "music"
	CategoryIT          Category = "it"
	CategoryScience     Category = "science"
	CategoryFiles       Category = "files"
	CategorySocialMedia Category = "social_media"
)

var categories = []Category{
	CategoryGeneral, CategoryImages, CategoryVideos, CategoryNews, CategoryMap,
	CategoryMusic, CategoryIT, CategoryScience, CategoryFiles, CategorySocialMedia,
}

// EnumValue returns the identifier sent to the backend
func (c Category) EnumValue() string { return string(c) }

// Categories returns every known category
func Categories() []Category { return slices.Clone(categories) }

// ParseCategory resolves a category identifier
func ParseCategory(s string) (Category, error) {
	if slices.Contains(categories, Category(s)) {
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Engine is a SearXNG engine name. The known set lives in engines.go.
type Engine string

// EnumValue returns the identifier sent to the backend
func (e Engine) EnumValue() string { return string(e) }

// Engines returns every known engine
func Engines() []Engine {
	out := make([]Engine, len(engineNames))
	for i, name := range engineNames {
		out[i] = Engine(name)
	}
	return out
}

// ParseEngine resolves an engine identifier
func ParseEngine(s string) (Engine, error) {
	if slices.Contains(engineNames, s) {
		return Engine(s), nil
	}
	return "", fmt.Errorf("unknown engine %q", s)
}

// Plugin is a SearXNG result plugin
type Plugin string

const (
	PluginHash                 Plugin = "Hash_plugin"
	PluginSelfInformation      Plugin = "Self_Information"
	PluginTrackerURLRemover    Plugin = "Tracker_URL_remover"
	PluginAhmiaBlacklist       Plugin = "Ahmia_blacklist"
	PluginHostnames            Plugin = "Hostnames_plugin"
	PluginOpenAccessDOIRewrite Plugin = "Open_Access_DOI_rewrite"
	PluginVimHotkeys           Plugin = "Vim-like_hotkeys"
	PluginTorCheck             Plugin = "Tor_check_plugin"
)

var plugins = []Plugin{
	PluginHash, PluginSelfInformation, PluginTrackerURLRemover, PluginAhmiaBlacklist,
	PluginHostnames, PluginOpenAccessDOIRewrite, PluginVimHotkeys, PluginTorCheck,
}

// EnumValue returns the identifier sent to the backend
func (p Plugin) EnumValue() string { return string(p) }

// Plugins returns every known plugin
func Plugins() []Plugin { return slices.Clone(plugins) }

// ParsePlugin resolves a plugin identifier
func ParsePlugin(s string) (Plugin, error) {
	if slices.Contains(plugins, Plugin(s)) {
		return Plugin(s), nil
	}
	return "", fmt.Errorf("unknown plugin %q", s)
}

// Strings converts enumeration members to their backend identifiers
func Strings[T ~string](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = string(item)
	}
	return out
}
