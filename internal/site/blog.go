package site

import (
	"context"
	"fmt"
	"html/template"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-docsite/internal/markdown"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

var datedName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)$`)

type postEntry struct {
	doc    *interfaces.Document
	source string
	route  string
	title  string
	date   time.Time
}

// planPosts dates and routes blog posts, newest first.
func (a *Assembler) planPosts(docs []*interfaces.Document, links *linkIndex) []*postEntry {
	base := a.cfg.Blog.RouteBasePath
	entries := make([]*postEntry, 0, len(docs))
	for _, doc := range docs {
		name, date := postName(doc)
		if !doc.FrontMatter.Date.IsZero() {
			date = doc.FrontMatter.Date
		}
		if date.IsZero() {
			date = doc.LastModified
		}
		slugValue := name
		if doc.FrontMatter.Slug != "" {
			slugValue = strings.Trim(doc.FrontMatter.Slug, "/")
		}
		title := strings.TrimSpace(doc.FrontMatter.Title)
		if title == "" {
			title = firstHeading(doc.Body)
		}
		if title == "" {
			title = humanize(name)
		}

		entry := &postEntry{
			doc:    doc,
			source: path.Join(a.cfg.Blog.Path, doc.RelPath),
			route:  NormalizeRoute(path.Join("/", base, slugSegment(slugValue))),
			title:  title,
			date:   date.UTC(),
		}
		links.register(entry.source, entry.route)
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].date.Equal(entries[j].date) {
			return entries[i].date.After(entries[j].date)
		}
		return entries[i].route < entries[j].route
	})
	return entries
}

// postName returns the slug source and the date encoded in a post file name
// such as 2021-08-26-welcome.md or 2021-08-26-welcome/index.md.
func postName(doc *interfaces.Document) (string, time.Time) {
	name := strings.TrimSuffix(path.Base(doc.RelPath), path.Ext(doc.RelPath))
	if name == "index" {
		if dir := path.Base(path.Dir(doc.RelPath)); dir != "." {
			name = dir
		}
	}
	match := datedName.FindStringSubmatch(name)
	if match == nil {
		return name, time.Time{}
	}
	date, err := time.Parse(time.DateOnly, match[1])
	if err != nil {
		return name, time.Time{}
	}
	return match[2], date
}

func (a *Assembler) postPages(ctx context.Context, entries []*postEntry, links *linkIndex) ([]*Page, error) {
	listURL := links.router.URL(a.cfg.Blog.RouteBasePath)
	pages := make([]*Page, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts := interfaces.ParseOptions{LinkResolver: links.resolverFor(entry.source)}
		html, err := a.markdown.ParseWithOptions(entry.doc.Body, opts)
		if err != nil {
			return nil, fmt.Errorf("render post %s: %w", entry.source, err)
		}
		summary, err := a.markdown.ParseWithOptions(markdown.Summary(entry.doc.Body), opts)
		if err != nil {
			return nil, fmt.Errorf("render post summary %s: %w", entry.source, err)
		}

		meta := render.PostSummary{
			Title:   entry.title,
			URL:     links.router.URL(entry.route),
			Date:    entry.date,
			Authors: entry.doc.FrontMatter.Authors,
			Summary: template.HTML(summary),
		}
		if a.cfg.Blog.ShowReadingTime {
			meta.ReadingTime = markdown.ReadingTime(entry.doc.Body)
		}
		body, err := a.renderer.BlogPost(render.BlogPostView{
			PostSummary: meta,
			Content:     template.HTML(html),
			EditURL:     editURL(a.cfg.Blog.EditURL, entry.source),
			BackURL:     listURL,
		})
		if err != nil {
			return nil, fmt.Errorf("render post %s: %w", entry.source, err)
		}

		pages = append(pages, &Page{
			Kind:         KindBlogPost,
			Route:        entry.route,
			URL:          meta.URL,
			Title:        a.documentTitle(entry.title),
			Heading:      entry.title,
			Description:  entry.doc.FrontMatter.Description,
			Body:         body,
			Source:       entry.doc.FilePath,
			Checksum:     entry.doc.Checksum,
			LastModified: entry.doc.LastModified,
			Date:         entry.date,
			Authors:      entry.doc.FrontMatter.Authors,
			Summary:      meta.Summary,
			ReadingTime:  meta.ReadingTime,
		})
	}
	return pages, nil
}

func (a *Assembler) blogListPage(router Router, posts []*Page) (*Page, error) {
	view := render.BlogListView{Title: a.cfg.Blog.Title}
	for _, post := range posts {
		summary := render.PostSummary{
			Title:       post.Heading,
			URL:         post.URL,
			Date:        post.Date,
			ReadingTime: post.ReadingTime,
			Authors:     post.Authors,
			Summary:     post.Summary,
		}
		view.Posts = append(view.Posts, summary)
	}
	body, err := a.renderer.BlogList(view)
	if err != nil {
		return nil, fmt.Errorf("render blog list: %w", err)
	}
	route := NormalizeRoute(a.cfg.Blog.RouteBasePath)
	return &Page{
		Kind:        KindBlogList,
		Route:       route,
		URL:         router.URL(route),
		Title:       a.documentTitle(a.cfg.Blog.Title),
		Heading:     a.cfg.Blog.Title,
		Description: a.cfg.Blog.Description,
		Body:        body,
	}, nil
}
