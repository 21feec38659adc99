package generator

import (
	"path"
	"strings"
)

// buildOutputPath maps a locale-relative route to a file below the output
// root. Directory routes get an index.html and non-default locales are
// nested under their code.
func buildOutputPath(route string, locale string, defaultLocale string) string {
	route = strings.TrimSpace(route)
	if idx := strings.IndexAny(route, "?#"); idx >= 0 {
		route = route[:idx]
	}
	clean := strings.Trim(route, " \t\r\n/")
	locale = strings.TrimSpace(locale)
	defaultLocale = strings.TrimSpace(defaultLocale)

	if locale == "" {
		locale = defaultLocale
	}

	var segments []string
	if locale != "" && !strings.EqualFold(locale, defaultLocale) {
		segments = append(segments, locale)
	}
	if clean != "" {
		segments = append(segments, clean)
	}
	if path.Ext(clean) == "" {
		segments = append(segments, "index.html")
	}
	return path.Join(segments...)
}

// outputURL is the href a file below the output root is served at.
func outputURL(basePath, output string) string {
	base := strings.TrimRight(basePath, "/")
	if path.Base(output) == "index.html" {
		dir := path.Dir(output)
		if dir == "." {
			return base + "/"
		}
		return base + "/" + dir + "/"
	}
	return base + "/" + strings.TrimLeft(output, "/")
}

func parentDir(output string) string {
	return path.Dir(strings.TrimLeft(output, "/"))
}
