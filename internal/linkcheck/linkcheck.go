// Package linkcheck finds anchors in generated HTML that point at routes the
// build did not produce.
package linkcheck

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrBrokenLinks is returned by Report.Err when at least one link is broken.
var ErrBrokenLinks = errors.New("linkcheck: broken links")

// Link is an href found on a page.
type Link struct {
	Page string
	Href string
}

// Report collects the outcome of checking one or more pages.
type Report struct {
	Pages  int
	Links  int
	Broken []Link
}

// Err returns an error wrapping ErrBrokenLinks listing every broken link, or
// nil.
func (r Report) Err() error {
	if len(r.Broken) == 0 {
		return nil
	}
	lines := make([]string, 0, len(r.Broken))
	for _, link := range r.Broken {
		lines = append(lines, fmt.Sprintf("%s -> %s", link.Page, link.Href))
	}
	return fmt.Errorf("%w (%d): %s", ErrBrokenLinks, len(r.Broken), strings.Join(lines, "; "))
}

// Checker resolves hrefs against a set of known URLs. It is not safe for
// concurrent use.
type Checker struct {
	known  map[string]struct{}
	report Report
	seen   map[Link]struct{}
}

// New returns a checker that accepts the given URLs.
func New(urls ...string) *Checker {
	c := &Checker{known: map[string]struct{}{}, seen: map[Link]struct{}{}}
	for _, u := range urls {
		c.Add(u)
	}
	return c
}

// Add registers a URL that links may point at.
func (c *Checker) Add(u string) {
	if key := canonical(u); key != "" {
		c.known[key] = struct{}{}
	}
}

// Known reports whether u resolves to a registered URL.
func (c *Checker) Known(u string) bool {
	_, ok := c.known[canonical(u)]
	return ok
}

// CheckHTML parses an HTML document served at pageURL and records every
// internal anchor that does not resolve.
func (c *Checker) CheckHTML(pageURL string, r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("linkcheck: parse %s: %w", pageURL, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("linkcheck: page url %s: %w", pageURL, err)
	}

	c.report.Pages++
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		target, ok := internalTarget(base, href)
		if !ok {
			return
		}
		c.report.Links++
		if c.Known(target) {
			return
		}
		link := Link{Page: pageURL, Href: href}
		if _, dup := c.seen[link]; dup {
			return
		}
		c.seen[link] = struct{}{}
		c.report.Broken = append(c.report.Broken, link)
	})
	return nil
}

// Report returns the accumulated result with broken links sorted by page
// and href.
func (c *Checker) Report() Report {
	out := c.report
	out.Broken = append([]Link(nil), c.report.Broken...)
	sort.SliceStable(out.Broken, func(i, j int) bool {
		if out.Broken[i].Page != out.Broken[j].Page {
			return out.Broken[i].Page < out.Broken[j].Page
		}
		return out.Broken[i].Href < out.Broken[j].Href
	})
	return out
}

// internalTarget resolves href against the page and returns its path. ok is
// false for external links, pure fragments and non-http schemes.
func internalTarget(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href, true
	}
	if ref.Scheme != "" || ref.Host != "" {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	return resolved.Path, true
}

// canonical maps /x, /x/ and /x/index.html to one key.
func canonical(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return ""
	}
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		u = u[:idx]
	}
	if unescaped, err := url.PathUnescape(u); err == nil {
		u = unescaped
	}
	u = path.Clean("/" + u)
	if path.Base(u) == "index.html" {
		u = path.Dir(u)
	}
	return strings.TrimSuffix(u, "/") + "/"
}
