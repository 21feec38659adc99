package siteconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

var (
	ErrTitleRequired           = errors.New("site config: title is required")
	ErrURLRequired             = errors.New("site config: url is required")
	ErrOutputDirRequired       = errors.New("site config: build output directory is required")
	ErrBrokenLinkPolicyInvalid = errors.New("site config: broken link policy must be throw, warn or ignore")
	ErrDefaultLocaleMissing    = errors.New("site config: default locale must be listed in i18n.locales")
	ErrManifestStoreInvalid    = errors.New("site config: manifest store must be file or bolt")
	ErrLoggingProviderUnknown  = errors.New("site config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("site config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("site config: logging format is invalid")
	ErrWorkersInvalid          = errors.New("site config: build workers must be zero or positive")
)

// Policy decides what happens when a broken link is found.
type Policy string

const (
	PolicyThrow  Policy = "throw"
	PolicyWarn   Policy = "warn"
	PolicyIgnore Policy = "ignore"
)

func (p Policy) valid() bool {
	switch p {
	case PolicyThrow, PolicyWarn, PolicyIgnore:
		return true
	}
	return false
}

// Config is the declarative site description. It is built once by Load or
// DefaultConfig and shared read-only afterwards.
type Config struct {
	Title                 string `mapstructure:"title" json:"title"`
	Tagline               string `mapstructure:"tagline" json:"tagline"`
	URL                   string `mapstructure:"url" json:"url"`
	BaseURL               string `mapstructure:"base_url" json:"base_url"`
	Favicon               string `mapstructure:"favicon" json:"favicon"`
	OrganizationName      string `mapstructure:"organization_name" json:"organization_name"`
	ProjectName           string `mapstructure:"project_name" json:"project_name"`
	OnBrokenLinks         Policy `mapstructure:"on_broken_links" json:"on_broken_links"`
	OnBrokenMarkdownLinks Policy `mapstructure:"on_broken_markdown_links" json:"on_broken_markdown_links"`
	// SourceDir holds data, docs, blog and static folders. Relative content
	// paths are resolved against it.
	SourceDir string `mapstructure:"source_dir" json:"source_dir"`

	I18N     I18NConfig     `mapstructure:"i18n" json:"i18n"`
	Navbar   NavbarConfig   `mapstructure:"navbar" json:"navbar"`
	Footer   FooterConfig   `mapstructure:"footer" json:"footer"`
	Theme    ThemeConfig    `mapstructure:"theme" json:"theme"`
	Docs     DocsConfig     `mapstructure:"docs" json:"docs"`
	Blog     BlogConfig     `mapstructure:"blog" json:"blog"`
	Features FeaturesConfig `mapstructure:"features" json:"features"`
	Podcast  PodcastConfig  `mapstructure:"podcast" json:"podcast"`
	Build    BuildConfig    `mapstructure:"build" json:"build"`
	Logging  LoggingConfig  `mapstructure:"logging" json:"logging"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`

	copyright string
}

type I18NConfig struct {
	DefaultLocale string   `mapstructure:"default_locale" json:"default_locale"`
	Locales       []string `mapstructure:"locales" json:"locales"`
}

type NavbarConfig struct {
	Title string     `mapstructure:"title" json:"title"`
	Logo  LogoConfig `mapstructure:"logo" json:"logo"`
	Items []NavItem  `mapstructure:"items" json:"items"`
}

type LogoConfig struct {
	Alt string `mapstructure:"alt" json:"alt"`
	Src string `mapstructure:"src" json:"src"`
}

// NavItem links to exactly one of a route (To), an external URL (Href) or a
// doc (Type "doc" with DocID).
type NavItem struct {
	Type      string `mapstructure:"type" json:"type,omitempty"`
	Label     string `mapstructure:"label" json:"label"`
	To        string `mapstructure:"to" json:"to,omitempty"`
	Href      string `mapstructure:"href" json:"href,omitempty"`
	DocID     string `mapstructure:"doc_id" json:"doc_id,omitempty"`
	SidebarID string `mapstructure:"sidebar_id" json:"sidebar_id,omitempty"`
	Position  string `mapstructure:"position" json:"position"`
}

type FooterConfig struct {
	Style string        `mapstructure:"style" json:"style"`
	Links []FooterGroup `mapstructure:"links" json:"links"`
	// Copyright may contain a {year} placeholder.
	Copyright string `mapstructure:"copyright" json:"copyright"`
}

type FooterGroup struct {
	Title string       `mapstructure:"title" json:"title"`
	Items []FooterItem `mapstructure:"items" json:"items"`
}

type FooterItem struct {
	Label string `mapstructure:"label" json:"label"`
	To    string `mapstructure:"to" json:"to,omitempty"`
	Href  string `mapstructure:"href" json:"href,omitempty"`
}

type ThemeConfig struct {
	CodeTheme     string `mapstructure:"code_theme" json:"code_theme"`
	CodeDarkTheme string `mapstructure:"code_dark_theme" json:"code_dark_theme"`
	CustomCSS     string `mapstructure:"custom_css" json:"custom_css"`
	// Dir optionally points at a go-theme manifest directory.
	Dir       string `mapstructure:"dir" json:"dir"`
	Name      string `mapstructure:"name" json:"name"`
	Variant   string `mapstructure:"variant" json:"variant"`
	CSSPrefix string `mapstructure:"css_prefix" json:"css_prefix"`
}

type DocsConfig struct {
	Path          string `mapstructure:"path" json:"path"`
	RouteBasePath string `mapstructure:"route_base_path" json:"route_base_path"`
	EditURL       string `mapstructure:"edit_url" json:"edit_url"`
}

type BlogConfig struct {
	Path            string `mapstructure:"path" json:"path"`
	RouteBasePath   string `mapstructure:"route_base_path" json:"route_base_path"`
	Title           string `mapstructure:"title" json:"title"`
	Description     string `mapstructure:"description" json:"description"`
	EditURL         string `mapstructure:"edit_url" json:"edit_url"`
	ShowReadingTime bool   `mapstructure:"show_reading_time" json:"show_reading_time"`
	Feed            bool   `mapstructure:"feed" json:"feed"`
}

type FeaturesConfig struct {
	Heading string `mapstructure:"heading" json:"heading"`
	Data    string `mapstructure:"data" json:"data"`
}

type PodcastConfig struct {
	RouteBasePath  string `mapstructure:"route_base_path" json:"route_base_path"`
	Title          string `mapstructure:"title" json:"title"`
	Description    string `mapstructure:"description" json:"description"`
	Heading        string `mapstructure:"heading" json:"heading"`
	Intro          string `mapstructure:"intro" json:"intro"`
	SubscribeLabel string `mapstructure:"subscribe_label" json:"subscribe_label"`
	SubscribeURL   string `mapstructure:"subscribe_url" json:"subscribe_url"`
	Data           string `mapstructure:"data" json:"data"`
	Feed           bool   `mapstructure:"feed" json:"feed"`
}

type BuildConfig struct {
	OutputDir     string `mapstructure:"output_dir" json:"output_dir"`
	StaticDir     string `mapstructure:"static_dir" json:"static_dir"`
	Clean         bool   `mapstructure:"clean" json:"clean"`
	Incremental   bool   `mapstructure:"incremental" json:"incremental"`
	Workers       int    `mapstructure:"workers" json:"workers"`
	Sitemap       bool   `mapstructure:"sitemap" json:"sitemap"`
	Robots        bool   `mapstructure:"robots" json:"robots"`
	Feeds         bool   `mapstructure:"feeds" json:"feeds"`
	ManifestStore string `mapstructure:"manifest_store" json:"manifest_store"`
	ManifestPath  string `mapstructure:"manifest_path" json:"manifest_path"`
}

type LoggingConfig struct {
	Provider string   `mapstructure:"provider" json:"provider"`
	Level    string   `mapstructure:"level" json:"level"`
	Format   string   `mapstructure:"format" json:"format"`
	Focus    []string `mapstructure:"focus" json:"focus,omitempty"`
}

type ServerConfig struct {
	Host     string        `mapstructure:"host" json:"host"`
	Port     int           `mapstructure:"port" json:"port"`
	Debounce time.Duration `mapstructure:"debounce" json:"debounce"`
}

// DefaultConfig reproduces the Weaviate site.
func DefaultConfig() Config {
	cfg := Config{
		Title:                 "Weaviate Docs",
		Tagline:               "Vector Search Engine",
		URL:                   "https://weaviate-docusaurus.netlify.app",
		BaseURL:               "/",
		Favicon:               "img/weaviate-logo.svg",
		OrganizationName:      "semi-technologies",
		ProjectName:           "weaviate",
		OnBrokenLinks:         PolicyThrow,
		OnBrokenMarkdownLinks: PolicyWarn,
		SourceDir:             "site",
		I18N: I18NConfig{
			DefaultLocale: "en",
			Locales:       []string{"en"},
		},
		Navbar: NavbarConfig{
			Title: "Weaviate",
			Logo:  LogoConfig{Alt: "My Site Logo", Src: "img/weaviate-logo.svg"},
			Items: []NavItem{
				{Type: "doc", DocID: "index", SidebarID: "docsSidebar", Label: "Docs", Position: "left"},
				{Type: "doc", DocID: "contributor-guide/index", SidebarID: "contributorSidebar", Label: "Contributor Guide", Position: "left"},
				{To: "/blog", Label: "Blog", Position: "left"},
				{To: "/podcast", Label: "Podcast", Position: "left"},
				{Href: "https://github.com/semi-technologies/weaviate-io", Label: "GitHub", Position: "right"},
			},
		},
		Footer: FooterConfig{
			Style: "dark",
			Links: []FooterGroup{
				{Title: "Docs", Items: []FooterItem{{Label: "Tutorial", To: "/docs/intro"}}},
				{Title: "Community", Items: []FooterItem{
					{Label: "Stack Overflow", Href: "https://stackoverflow.com/tags/weaviate/"},
					{Label: "Slack", Href: "https://weaviate.slack.com/"},
					{Label: "Twitter", Href: "https://twitter.com/weaviate_io"},
				}},
				{Title: "More", Items: []FooterItem{
					{Label: "Blog", To: "/blog"},
					{Label: "GitHub", Href: "https://github.com/semi-technologies/weaviate-io"},
				}},
			},
			Copyright: "Copyright © {year} Weaviate, Inc.",
		},
		Theme: ThemeConfig{
			CodeTheme:     "github",
			CodeDarkTheme: "dracula",
			CustomCSS:     "css/custom.css",
			CSSPrefix:     "--ifm-",
		},
		Docs: DocsConfig{
			Path:          "docs",
			RouteBasePath: "docs",
			EditURL:       "https://github.com/facebook/docusaurus/tree/main/packages/create-docusaurus/templates/shared/",
		},
		Blog: BlogConfig{
			Path:            "blog",
			RouteBasePath:   "blog",
			Title:           "Blog",
			EditURL:         "https://github.com/facebook/docusaurus/tree/main/packages/create-docusaurus/templates/shared/",
			ShowReadingTime: true,
			Feed:            true,
		},
		Features: FeaturesConfig{
			Heading: "Combining developer UX and scalability",
			Data:    "data/features.yaml",
		},
		Podcast: PodcastConfig{
			RouteBasePath:  "podcast",
			Title:          "Podcast",
			Description:    "Hello React Page",
			Heading:        "Weaviate Podcast",
			Intro:          "Join Connor Shorten when he interviews Weaviate community users, leading machine learning experts, and explores Weaviate use cases from users and customers.",
			SubscribeLabel: "Subscribe to the YouTube channel",
			SubscribeURL:   "https://www.youtube.com/playlist?list=PLTL2JUbrY6tW-KOQfOek8dtUmPgGQj3F0",
			Data:           "data/podcast.yaml",
			Feed:           true,
		},
		Build: BuildConfig{
			OutputDir:     "build",
			StaticDir:     "static",
			Incremental:   true,
			Sitemap:       true,
			Robots:        true,
			Feeds:         true,
			ManifestStore: "file",
			ManifestPath:  ".docsite-manifest.json",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "console",
		},
		Server: ServerConfig{
			Host:     "localhost",
			Port:     3000,
			Debounce: 500 * time.Millisecond,
		},
	}
	cfg.resolve(time.Now())
	return cfg
}

// resolve computes derived values and normalises paths.
func (c *Config) resolve(now time.Time) {
	c.BaseURL = normalizeBaseURL(c.BaseURL)
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Docs.RouteBasePath = strings.Trim(c.Docs.RouteBasePath, "/")
	c.Blog.RouteBasePath = strings.Trim(c.Blog.RouteBasePath, "/")
	c.Podcast.RouteBasePath = strings.Trim(c.Podcast.RouteBasePath, "/")
	if c.I18N.DefaultLocale == "" {
		c.I18N.DefaultLocale = "en"
	}
	if len(c.I18N.Locales) == 0 {
		c.I18N.Locales = []string{c.I18N.DefaultLocale}
	}
	c.copyright = strings.ReplaceAll(c.Footer.Copyright, "{year}", fmt.Sprint(now.Year()))
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return "/"
	}
	return "/" + strings.Trim(base, "/") + "/"
}

// Copyright returns the footer copyright with {year} resolved.
func (c *Config) Copyright() string {
	return c.copyright
}

// SiteURL is the absolute URL of the site root, always ending in a slash.
func (c *Config) SiteURL() string {
	return c.URL + c.BaseURL
}

// Path resolves a content path against SourceDir. Absolute paths are kept.
func (c *Config) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	if c.SourceDir == "" {
		return filepath.Clean(rel)
	}
	return filepath.Join(c.SourceDir, rel)
}

// HasLocale reports whether code is a configured locale.
func (c *Config) HasLocale(code string) bool {
	return slices.Contains(c.I18N.Locales, code)
}
