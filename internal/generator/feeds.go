package generator

import (
	"context"
	"fmt"
	"html"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-docsite/internal/content"
	"github.com/goliatone/go-docsite/internal/identity"
	"github.com/goliatone/go-docsite/internal/site"
)

const maxFeedItems = 100

type feedKind string

const (
	feedBlog    feedKind = "blog"
	feedPodcast feedKind = "podcast"
)

type namedFeed struct {
	kind feedKind
	FeedConfig
}

func (f namedFeed) dir() string {
	if route := strings.Trim(strings.TrimSpace(f.Route), "/"); route != "" {
		return route
	}
	return string(f.kind)
}

func (f namedFeed) rssPath() string {
	return path.Join(f.dir(), "rss.xml")
}

func (f namedFeed) atomPath() string {
	return path.Join(f.dir(), "atom.xml")
}

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

type feedDocument struct {
	Feed   namedFeed
	Locale LocaleSpec
	// Link is the absolute URL of the page the feed mirrors.
	Link  string
	Items []feedItem
}

func (s *service) enabledFeeds() []namedFeed {
	var feeds []namedFeed
	if s.cfg.Feeds.Blog.Enabled {
		feeds = append(feeds, namedFeed{kind: feedBlog, FeedConfig: s.cfg.Feeds.Blog})
	}
	if s.cfg.Feeds.Podcast.Enabled {
		feeds = append(feeds, namedFeed{kind: feedPodcast, FeedConfig: s.cfg.Feeds.Podcast})
	}
	return feeds
}

// feedLinks are advertised in every page head.
func (s *service) feedLinks() []FeedLink {
	if !s.cfg.GenerateFeeds {
		return nil
	}
	var links []FeedLink
	for _, feed := range s.enabledFeeds() {
		links = append(links, FeedLink{
			Title: s.feedTitle(feed),
			Path:  feed.rssPath(),
			Type:  "application/rss+xml",
		})
	}
	return links
}

func (s *service) feedTitle(feed namedFeed) string {
	if title := strings.TrimSpace(feed.Title); title != "" {
		return title
	}
	if title := strings.TrimSpace(s.cfg.Title); title != "" {
		return title
	}
	return string(feed.kind)
}

// buildFeedDocuments covers the default locale only. Blog items are newest
// first; podcast items keep declaration order since episode dates are
// display strings.
func (s *service) buildFeedDocuments(buildCtx *BuildContext) []feedDocument {
	var defaultSite *site.Site
	var locale LocaleSpec
	for idx, st := range buildCtx.Sites {
		if buildCtx.Locales[idx].IsDefault {
			defaultSite = st
			locale = buildCtx.Locales[idx]
			break
		}
	}
	if defaultSite == nil {
		return nil
	}

	var docs []feedDocument
	for _, feed := range s.enabledFeeds() {
		doc := feedDocument{Feed: feed, Locale: locale}
		switch feed.kind {
		case feedBlog:
			doc.Link = s.absoluteURL(pageURLOfKind(defaultSite, site.KindBlogList, defaultSite.HomeURL))
			doc.Items = s.blogFeedItems(defaultSite.Posts, buildCtx.GeneratedAt)
		case feedPodcast:
			doc.Link = s.absoluteURL(pageURLOfKind(defaultSite, site.KindPodcast, defaultSite.HomeURL))
			doc.Items = podcastFeedItems(defaultSite.Episodes, doc.Link)
		}
		if len(doc.Items) > maxFeedItems {
			doc.Items = append([]feedItem(nil), doc.Items[:maxFeedItems]...)
		}
		docs = append(docs, doc)
	}
	return docs
}

func (s *service) blogFeedItems(posts []*site.Page, generatedAt time.Time) []feedItem {
	items := make([]feedItem, 0, len(posts))
	for _, post := range posts {
		title := strings.TrimSpace(post.Heading)
		if title == "" {
			title = strings.TrimSpace(post.Title)
		}
		summary := normalizeWhitespace(stripTags(string(post.Summary)))
		if summary == "" {
			summary = normalizeWhitespace(post.Description)
		}
		link := s.absoluteURL(post.URL)
		published := firstNonZeroTime(post.Date, post.LastModified, generatedAt)
		items = append(items, feedItem{
			Title:       title,
			Summary:     summary,
			Link:        link,
			GUID:        link,
			PublishedAt: published,
			UpdatedAt:   firstNonZeroTime(post.LastModified, published),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	return items
}

func podcastFeedItems(episodes []content.Record, fallbackLink string) []feedItem {
	items := make([]feedItem, 0, len(episodes))
	for idx, episode := range episodes {
		link := episode.WatchURL()
		if link == "" {
			link = fallbackLink
		}
		items = append(items, feedItem{
			Title:   episode.Title,
			Summary: normalizeWhitespace(stripTags(string(episode.Description))),
			Link:    link,
			GUID:    "urn:uuid:" + identity.RecordUUID(string(episode.Kind), idx, episode.Title).String(),
		})
	}
	return items
}

func (s *service) writeFeeds(
	ctx context.Context,
	writer artifactWriter,
	dirCache map[string]struct{},
	buildCtx *BuildContext,
) (int, error) {
	total := 0
	for _, doc := range s.buildFeedDocuments(buildCtx) {
		rssContent := s.buildRSSFeed(doc, buildCtx.GeneratedAt)
		atomContent := s.buildAtomFeed(doc, buildCtx.GeneratedAt)
		outputs := []struct {
			path        string
			content     string
			contentType string
			format      string
		}{
			{doc.Feed.rssPath(), rssContent, "application/rss+xml", "rss"},
			{doc.Feed.atomPath(), atomContent, "application/atom+xml", "atom"},
		}
		for _, out := range outputs {
			if err := ensureDir(ctx, writer, dirCache, parentDir(out.path)); err != nil {
				return total, err
			}
			if err := writer.WriteFile(ctx, writeFileRequest{
				Path:        out.path,
				Content:     strings.NewReader(out.content),
				Size:        int64(len(out.content)),
				Locale:      doc.Locale.Code,
				Category:    categoryFeed,
				ContentType: out.contentType,
				Checksum:    computeHashFromString(out.content),
				Metadata:    feedMetadata(doc, out.format, buildCtx.GeneratedAt),
			}); err != nil {
				return total, fmt.Errorf("generator: write feed %s: %w", out.path, err)
			}
			total++
		}
	}
	return total, nil
}

func (s *service) buildRSSFeed(doc feedDocument, generatedAt time.Time) string {
	title := s.feedTitle(doc.Feed)
	description := strings.TrimSpace(doc.Feed.Description)
	if description == "" {
		description = strings.TrimSpace(s.cfg.Description)
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(doc.Link)))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(description)))
	builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(doc.Locale.Code)))
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))
	for _, item := range doc.Items {
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("      <guid>%s</guid>\n", escapeXML(item.GUID)))
		if !item.PublishedAt.IsZero() {
			builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", item.PublishedAt.UTC().Format(time.RFC1123Z)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

func (s *service) buildAtomFeed(doc feedDocument, generatedAt time.Time) string {
	feedID := s.absoluteURL(outputURL(s.cfg.BasePath, doc.Feed.atomPath()))
	title := s.feedTitle(doc.Feed)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<feed xmlns="http://www.w3.org/2005/Atom" xml:lang="%s">`+"\n", escapeXMLAttr(doc.Locale.Code)))
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(feedID)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(doc.Link)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXMLAttr(feedID)))
	for _, item := range doc.Items {
		updated := firstNonZeroTime(item.UpdatedAt, item.PublishedAt, generatedAt)
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXMLAttr(item.Link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339)))
		if !item.PublishedAt.IsZero() {
			builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return builder.String()
}

func feedMetadata(doc feedDocument, format string, generatedAt time.Time) map[string]string {
	meta := map[string]string{
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
		"feed":         string(doc.Feed.kind),
		"feed_type":    format,
	}
	if strings.TrimSpace(doc.Locale.Code) != "" {
		meta["locale"] = doc.Locale.Code
	}
	return meta
}

func pageURLOfKind(st *site.Site, kind site.Kind, fallback string) string {
	for _, page := range st.Pages {
		if page.Kind == kind {
			return page.URL
		}
	}
	return fallback
}

func firstNonZeroTime(instants ...time.Time) time.Time {
	for _, ts := range instants {
		if !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

// stripTags returns the text of an HTML fragment.
func stripTags(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return input
	}
	return doc.Text()
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
