package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"

	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

const defaultSidebarID = "docsSidebar"

type docEntry struct {
	doc      *interfaces.Document
	id       string
	source   string
	route    string
	title    string
	label    string
	position int
	sidebar  string
}

// planDocs computes ids, routes and sidebars for every doc and registers the
// routes with the link index. The result is ordered by sidebar, position and
// id.
func (a *Assembler) planDocs(docs []*interfaces.Document, links *linkIndex) []*docEntry {
	scopes := a.sidebarScopes()
	base := a.cfg.Docs.RouteBasePath

	entries := make([]*docEntry, 0, len(docs))
	for _, doc := range docs {
		id := docID(doc)
		entry := &docEntry{
			doc:      doc,
			id:       id,
			source:   path.Join(a.cfg.Docs.Path, doc.RelPath),
			route:    docRoute(base, id, doc.FrontMatter.Slug),
			title:    docTitle(doc, id),
			position: doc.FrontMatter.SidebarPosition,
			sidebar:  scopes.lookup(id),
		}
		entry.label = doc.FrontMatter.SidebarLabel
		if entry.label == "" {
			entry.label = entry.title
		}
		links.register(entry.source, entry.route)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		left, right := entries[i], entries[j]
		if left.sidebar != right.sidebar {
			return left.sidebar < right.sidebar
		}
		if (left.position == 0) != (right.position == 0) {
			return left.position != 0
		}
		if left.position != right.position {
			return left.position < right.position
		}
		return left.id < right.id
	})
	return entries
}

func (a *Assembler) docPages(ctx context.Context, entries []*docEntry, links *linkIndex) ([]*Page, error) {
	pages := make([]*Page, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		html, err := a.markdown.ParseWithOptions(entry.doc.Body, interfaces.ParseOptions{
			LinkResolver: links.resolverFor(entry.source),
		})
		if err != nil {
			return nil, fmt.Errorf("render doc %s: %w", entry.source, err)
		}

		body, err := a.renderer.Doc(render.DocView{
			Title:     entry.title,
			ShowTitle: !startsWithHeading(entry.doc.Body),
			Content:   template.HTML(html),
			Sidebar:   sidebarFor(entry, entries, links.router),
			EditURL:   editURL(a.cfg.Docs.EditURL, entry.source),
		})
		if err != nil {
			return nil, fmt.Errorf("render doc %s: %w", entry.source, err)
		}

		pages = append(pages, &Page{
			Kind:         KindDoc,
			Route:        entry.route,
			URL:          links.router.URL(entry.route),
			Title:        a.documentTitle(entry.title),
			Heading:      entry.title,
			Description:  entry.doc.FrontMatter.Description,
			Body:         body,
			Source:       entry.doc.FilePath,
			Checksum:     entry.doc.Checksum,
			LastModified: entry.doc.LastModified,
		})
	}
	return pages, nil
}

func sidebarFor(current *docEntry, entries []*docEntry, router Router) render.Sidebar {
	sidebar := render.Sidebar{ID: current.sidebar}
	for _, entry := range entries {
		if entry.sidebar != current.sidebar {
			continue
		}
		sidebar.Links = append(sidebar.Links, render.SidebarLink{
			Label:  entry.label,
			URL:    router.URL(entry.route),
			Active: entry == current,
		})
	}
	return sidebar
}

// sidebarScopes maps doc directories to sidebar ids using the navbar doc
// items: a sidebar covers the directory of the doc its navbar item opens.
type sidebarScopes map[string]string

func (a *Assembler) sidebarScopes() sidebarScopes {
	scopes := sidebarScopes{}
	for _, item := range a.cfg.Navbar.Items {
		if item.Type != "doc" || item.SidebarID == "" {
			continue
		}
		dir := path.Dir(item.DocID)
		if dir == "." {
			dir = ""
		}
		if _, ok := scopes[dir]; !ok {
			scopes[dir] = item.SidebarID
		}
	}
	return scopes
}

// lookup returns the sidebar of the deepest scope containing id.
func (s sidebarScopes) lookup(id string) string {
	dir := path.Dir(id)
	for {
		if dir == "." || dir == "/" {
			dir = ""
		}
		if sidebar, ok := s[dir]; ok {
			return sidebar
		}
		if dir == "" {
			return defaultSidebarID
		}
		dir = path.Dir(dir)
	}
}

// docID is the relative path without extension, with a front matter id
// replacing the file name.
func docID(doc *interfaces.Document) string {
	id := strings.TrimSuffix(doc.RelPath, path.Ext(doc.RelPath))
	if custom, ok := doc.FrontMatter.Custom["id"].(string); ok && strings.TrimSpace(custom) != "" {
		dir := path.Dir(id)
		if dir == "." {
			return strings.TrimSpace(custom)
		}
		return path.Join(dir, strings.TrimSpace(custom))
	}
	return id
}

// docRoute slugs every segment of id below the docs base path. An index doc
// is served at its directory. A front matter slug replaces the last segment,
// or the whole route when it starts with a slash.
func docRoute(base, id, frontMatterSlug string) string {
	segments := strings.Split(id, "/")
	if last := segments[len(segments)-1]; last == "index" {
		segments = segments[:len(segments)-1]
	}
	if frontMatterSlug != "" {
		if strings.HasPrefix(frontMatterSlug, "/") {
			return NormalizeRoute(path.Join("/", base, frontMatterSlug))
		}
		if len(segments) > 0 && path.Base(id) != "index" {
			segments = segments[:len(segments)-1]
		}
		segments = append(segments, frontMatterSlug)
	}
	for idx, segment := range segments {
		segments[idx] = slugSegment(segment)
	}
	return NormalizeRoute(path.Join(append([]string{"/", base}, segments...)...))
}

func slugSegment(segment string) string {
	normalized, err := slug.Normalize(segment)
	if err != nil || normalized == "" {
		return segment
	}
	return normalized
}

func docTitle(doc *interfaces.Document, id string) string {
	if title := strings.TrimSpace(doc.FrontMatter.Title); title != "" {
		return title
	}
	if heading := firstHeading(doc.Body); heading != "" {
		return heading
	}
	name := path.Base(id)
	if name == "index" {
		name = path.Base(path.Dir(id))
		if name == "." {
			name = "Docs"
		}
	}
	return humanize(name)
}

func firstHeading(body []byte) string {
	for _, line := range bytes.Split(body, []byte("\n")) {
		trimmed := strings.TrimSpace(string(line))
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}

func startsWithHeading(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("# "))
}

func humanize(name string) string {
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// editURL joins the configured edit base with the source path.
func editURL(base, source string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(source, "/")
}
