package generator

import (
	"html/template"
	"sort"
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"
	"github.com/google/uuid"

	"github.com/goliatone/go-docsite/internal/site"
)

// TemplateContext captures the data contract passed to TemplateRenderer implementations.
type TemplateContext struct {
	Site    SiteMetadata
	Page    PageRenderingContext
	Build   BuildMetadata
	Theme   ThemeContext
	Helpers TemplateHelpers
}

// SiteMetadata exposes the locale-aware site chrome to templates.
type SiteMetadata struct {
	Title         string
	URL           string
	BaseURL       string
	DefaultLocale string
	Locales       []LocaleSpec
	HomeURL       string
	Favicon       string
	CodeTheme     string
	CodeDarkTheme string
	Stylesheets   []string
	Feeds         []FeedLink
	Navbar        site.Navbar
	Footer        site.Footer
}

// FeedLink is advertised in the document head. Path is relative to the base URL.
type FeedLink struct {
	Title string
	Path  string
	Type  string
}

// BuildMetadata surfaces high level build information to templates.
type BuildMetadata struct {
	GeneratedAt time.Time
	Options     BuildOptions
}

// PageRenderingContext exposes the assembled page. Page fields are promoted so
// templates can write .Page.Title.
type PageRenderingContext struct {
	*site.Page
	Locale   LocaleSpec
	Metadata DependencyMetadata
}

// ThemeContext surfaces go-theme selection data to templates.
type ThemeContext struct {
	Name     string
	Variant  string
	Tokens   map[string]string
	CSSVars  map[string]string
	Partials map[string]string
	// RootCSS declares CSSVars on :root.
	RootCSS   template.CSS
	AssetURL  func(string) string
	Template  func(string, string) string
	Selection *gotheme.Selection
}

// TemplateHelpers exposes convenience helpers for template authors.
type TemplateHelpers struct {
	locale        LocaleSpec
	defaultLocale string
	baseURL       string
}

func newTemplateHelpers(defaultLocale string, locale LocaleSpec, baseURL string) TemplateHelpers {
	return TemplateHelpers{
		locale:        locale,
		defaultLocale: defaultLocale,
		baseURL:       strings.TrimRight(baseURL, "/"),
	}
}

// Locale returns the active locale code.
func (h TemplateHelpers) Locale() string {
	return h.locale.Code
}

// IsLocale reports whether the provided locale code matches the active locale.
func (h TemplateHelpers) IsLocale(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), h.locale.Code)
}

// IsDefaultLocale reports whether the current locale matches the configured default.
func (h TemplateHelpers) IsDefaultLocale() bool {
	return strings.EqualFold(h.locale.Code, h.defaultLocale)
}

// BaseURL returns the configured base path without a trailing slash.
func (h TemplateHelpers) BaseURL() string {
	return h.baseURL
}

// WithBaseURL prefixes the provided path with the configured base path.
// Absolute URLs are returned unchanged.
func (h TemplateHelpers) WithBaseURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return h.baseURL + "/"
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "//") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return h.baseURL + path
}

// LocalePrefix returns the locale aware prefix for paths.
func (h TemplateHelpers) LocalePrefix() string {
	if h.IsDefaultLocale() {
		return ""
	}
	return "/" + strings.TrimPrefix(strings.TrimSpace(h.locale.Code), "/")
}

func buildThemeContext(selection *gotheme.Selection, cfg ThemingConfig) ThemeContext {
	empty := ThemeContext{
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
		Partials: map[string]string{},
		AssetURL: func(string) string { return "" },
		Template: func(_ string, fallback string) string { return fallback },
	}
	if selection == nil {
		return empty
	}

	tokens := selection.Tokens()
	cssVars := selection.CSSVariables(cfg.CSSVariablePrefix)
	partials := selection.Partials(cfg.PartialFallbacks)

	return ThemeContext{
		Name:      selection.Theme,
		Variant:   selection.Variant,
		Tokens:    tokens,
		CSSVars:   cssVars,
		Partials:  partials,
		RootCSS:   rootCSS(cssVars),
		AssetURL:  func(key string) string { url, _ := selection.Asset(key); return url },
		Template:  selection.Template,
		Selection: selection,
	}
}

// rootCSS renders variables as a sorted :root rule.
func rootCSS(vars map[string]string) template.CSS {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	builder.WriteString(":root{")
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString(":")
		builder.WriteString(cssValue(vars[key]))
		builder.WriteString(";")
	}
	builder.WriteString("}")
	return template.CSS(builder.String())
}

// cssValue drops characters that could close the rule or the style element.
func cssValue(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '{', '}', ';', '<', '>':
			return -1
		}
		return r
	}, value)
}

// RenderedPage captures the rendered HTML output for a page.
type RenderedPage struct {
	PageID   uuid.UUID
	Kind     site.Kind
	Locale   string
	Route    string
	URL      string
	Output   string
	Template string
	HTML     string
	Metadata DependencyMetadata
	Duration time.Duration
	Checksum string

	order int
}

// RenderDiagnostic records rendering timing and errors for individual pages.
type RenderDiagnostic struct {
	PageID   uuid.UUID
	Locale   string
	Route    string
	Template string
	Duration time.Duration
	Skipped  bool
	Err      error

	order int
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	err        error
	skipped    bool
}
