package site

import (
	"net/url"
	"path"
	"strings"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// linkIndex maps markdown source files to routes so relative .md links can
// be rewritten. Keys are slash paths relative to the source directory.
type linkIndex struct {
	router Router
	routes map[string]string
	broken []BrokenLink
}

func newLinkIndex(router Router) *linkIndex {
	return &linkIndex{router: router, routes: map[string]string{}}
}

func (l *linkIndex) register(source, route string) {
	l.routes[path.Clean(source)] = route
}

func (l *linkIndex) resolverFor(source string) interfaces.LinkResolver {
	return &fileResolver{index: l, source: path.Clean(source)}
}

type fileResolver struct {
	index  *linkIndex
	source string
}

// ResolveLink resolves dest against the directory of the current file.
// Destinations starting with a slash are relative to the source directory.
func (r *fileResolver) ResolveLink(dest string) (string, bool) {
	target, suffix := dest, ""
	if idx := strings.IndexAny(target, "?#"); idx >= 0 {
		target, suffix = target[:idx], target[idx:]
	}
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}

	var key string
	if strings.HasPrefix(target, "/") {
		key = path.Clean(strings.TrimPrefix(target, "/"))
	} else {
		key = path.Join(path.Dir(r.source), target)
	}

	route, ok := r.index.routes[key]
	if !ok {
		r.index.broken = append(r.index.broken, BrokenLink{Source: r.source, Target: dest})
		return "", false
	}
	return r.index.router.URL(route) + suffix, true
}
