package site

import (
	"path"
	"strings"
)

// Router turns locale-relative routes into hrefs. The default locale is
// served from the base URL, other locales from base URL + locale code.
type Router struct {
	base   string
	prefix string
}

// NewRouter builds a router for locale.
func NewRouter(baseURL, locale, defaultLocale string) Router {
	base := "/" + strings.Trim(baseURL, "/")
	base = strings.TrimSuffix(base, "/")
	prefix := ""
	if locale != "" && locale != defaultLocale {
		prefix = "/" + locale
	}
	return Router{base: base, prefix: prefix}
}

// URL returns the href for a route.
func (r Router) URL(route string) string {
	return r.base + r.prefix + NormalizeRoute(route)
}

// Asset returns the href for a static file, shared by every locale.
func (r Router) Asset(name string) string {
	if name == "" || isExternal(name) {
		return name
	}
	return r.base + "/" + strings.TrimLeft(name, "/")
}

// Root returns the href of the locale home page.
func (r Router) Root() string {
	return r.URL("/")
}

// NormalizeRoute cleans a route so it starts with a slash and, unless it
// names a file, ends with one. Query and fragment are kept.
func NormalizeRoute(route string) string {
	suffix := ""
	if idx := strings.IndexAny(route, "?#"); idx >= 0 {
		route, suffix = route[:idx], route[idx:]
	}
	route = path.Clean("/" + strings.TrimSpace(route))
	if route != "/" && path.Ext(route) == "" {
		route += "/"
	}
	return route + suffix
}

func isExternal(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//") ||
		strings.HasPrefix(lower, "mailto:")
}
