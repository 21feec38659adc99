package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	sitemapFile = "sitemap.xml"
	robotsFile  = "robots.txt"
)

type sitemapEntry struct {
	Location string
	LastMod  time.Time
}

// sitemapEntries lists every page of the build. Partial builds keep the
// manifest entries of locales left out of the run.
func sitemapEntries(buildCtx *BuildContext, manifest *Manifest) []sitemapEntry {
	entries := make([]sitemapEntry, 0, len(buildCtx.Pages))
	built := map[string]struct{}{}
	for _, locale := range buildCtx.Locales {
		built[strings.ToLower(locale.Code)] = struct{}{}
	}
	for _, data := range buildCtx.Pages {
		entries = append(entries, sitemapEntry{
			Location: data.Page.URL,
			LastMod:  data.Metadata.LastModified,
		})
	}
	if buildCtx.Partial && manifest != nil {
		for _, entry := range manifest.Pages {
			if _, ok := built[strings.ToLower(entry.Locale)]; ok {
				continue
			}
			if strings.TrimSpace(entry.URL) == "" {
				continue
			}
			entries = append(entries, sitemapEntry{Location: entry.URL, LastMod: entry.LastModified})
		}
	}
	return entries
}

func buildSitemap(origin string, entries []sitemapEntry, fallback time.Time) string {
	base := originWithFallback(origin)

	unique := make([]sitemapEntry, 0, len(entries))
	seen := map[string]struct{}{}
	for _, entry := range entries {
		location := strings.TrimSpace(entry.Location)
		if location == "" {
			location = "/"
		}
		if !strings.HasPrefix(location, "/") {
			location = "/" + location
		}
		location = base + location
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		lastMod := entry.LastMod
		if lastMod.IsZero() {
			lastMod = fallback
		}
		unique = append(unique, sitemapEntry{Location: location, LastMod: lastMod})
	}

	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Location < unique[j].Location
	})

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range unique {
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", escapeXML(entry.Location)))
		if !entry.LastMod.IsZero() {
			builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", entry.LastMod.UTC().Format(time.RFC3339)))
		}
		builder.WriteString("  </url>\n")
	}
	builder.WriteString(`</urlset>` + "\n")
	return builder.String()
}

func buildRobots(sitemapURL string) string {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	builder.WriteString("Allow: /\n")
	if sitemapURL != "" {
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Sitemap: %s\n", sitemapURL))
	}
	return builder.String()
}

func (s *service) writeSitemap(
	ctx context.Context,
	writer artifactWriter,
	dirCache map[string]struct{},
	buildCtx *BuildContext,
	manifest *Manifest,
) error {
	content := buildSitemap(s.cfg.SiteURL, sitemapEntries(buildCtx, manifest), buildCtx.GeneratedAt)
	if err := ensureDir(ctx, writer, dirCache, parentDir(sitemapFile)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        sitemapFile,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categorySitemap,
		ContentType: "application/xml",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": buildCtx.GeneratedAt.UTC().Format(time.RFC3339),
		},
	})
}

func (s *service) writeRobots(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}) error {
	sitemapURL := ""
	if s.cfg.GenerateSitemap {
		sitemapURL = s.absoluteURL(outputURL(s.cfg.BasePath, sitemapFile))
	}
	content := buildRobots(sitemapURL)
	if err := ensureDir(ctx, writer, dirCache, parentDir(robotsFile)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        robotsFile,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
		Checksum:    computeHashFromString(content),
		Metadata: map[string]string{
			"generated_at": s.now().UTC().Format(time.RFC3339),
		},
	})
}

// absoluteURL joins the site origin with an href that already carries the
// base path.
func (s *service) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return originWithFallback(s.cfg.SiteURL) + href
}

func originWithFallback(origin string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(origin), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}
