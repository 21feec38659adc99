package site_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/site"
	"github.com/goliatone/go-docsite/internal/siteconfig"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries *[]logEntry
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{entries: &[]logEntry{}}
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("trace", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("fatal", msg, args) }
func (l *recordingLogger) WithContext(context.Context) interfaces.Logger {
	return l
}

func (l *recordingLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, entry := range *l.entries {
		if entry.level == level && entry.msg == msg {
			total++
		}
	}
	return total
}

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"data/features.yaml": {Data: []byte(`
- title: Fast queries
  icon: /img/graphql.svg
  description: Search **millions** of objects
- title: Modular
  icon: /img/docker.svg
  description: Plug in modules
`)},
		"data/podcast.yaml": {Data: []byte(`
- title: Ep1
  description: d1
  cover_image: /a.png
  youtube: abc
  date: "2021-01-01"
- title: Ep2
  description: d2
  cover_image: /b.png
  date: "2021-02-01"
`)},
		"docs/index.md": {Data: []byte(`---
title: Introduction
sidebar_position: 1
---
See [the intro](intro.md#setup), the [guide](contributor-guide/index.md) and [nothing](nope.md).
`)},
		"docs/intro.md": {Data: []byte("# Tutorial Intro\n\nLet's get started.\n")},
		"docs/contributor-guide/index.md": {Data: []byte(`---
title: Contributor Guide
---
Back to [docs](../index.md).
`)},
		"docs/draft.md": {Data: []byte("---\ntitle: Draft\ndraft: true\n---\nHidden\n")},
		"blog/2021-08-26-welcome.md": {Data: []byte(`---
title: Welcome
authors: [Ada]
---
Short summary.

<!--truncate-->

Rest of the post.
`)},
		"blog/2021-09-01-second.md": {Data: []byte("---\ntitle: Second\n---\nSecond post.\n")},
	}
}

func testConfig() *siteconfig.Config {
	cfg := siteconfig.DefaultConfig()
	cfg.SourceDir = ""
	return &cfg
}

func assemble(t *testing.T, cfg *siteconfig.Config, files fstest.MapFS, locales ...string) ([]*site.Site, *recordingLogger, error) {
	t.Helper()
	logger := newRecordingLogger()
	assembler, err := site.NewAssembler(cfg, site.Dependencies{
		Files:    files,
		Renderer: render.Must(),
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	sites, err := assembler.Assemble(context.Background(), locales...)
	return sites, logger, err
}

func document(t *testing.T, page *site.Page) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page.Body)))
	if err != nil {
		t.Fatalf("parse %s: %v", page.Route, err)
	}
	return doc
}

func TestAssemblePagesInDeclarationOrder(t *testing.T) {
	sites, _, err := assemble(t, testConfig(), fixtureFS())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(sites) != 1 {
		t.Fatalf("expected one site, got %d", len(sites))
	}

	want := []string{
		"/",
		"/podcast/",
		"/docs/contributor-guide/",
		"/docs/",
		"/docs/intro/",
		"/blog/",
		"/blog/second/",
		"/blog/welcome/",
	}
	got := make([]string, 0, len(sites[0].Pages))
	for _, page := range sites[0].Pages {
		got = append(got, page.Route)
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected routes:\n got %v\nwant %v", got, want)
	}

	seen := map[string]bool{}
	for _, page := range sites[0].Pages {
		if seen[page.ID.String()] {
			t.Fatalf("duplicate page id for %s", page.Route)
		}
		seen[page.ID.String()] = true
	}
}

func TestAssembleRendersPodcastAndFeatures(t *testing.T) {
	sites, logger, err := assemble(t, testConfig(), fixtureFS())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	s := sites[0]

	podcast := document(t, s.Page("/podcast"))
	cards := podcast.Find("div.podcast_container_group div.podcast_card")
	if cards.Length() != 2 {
		t.Fatalf("expected 2 podcast cards, got %d", cards.Length())
	}
	if href, _ := cards.First().Find("a").Attr("href"); href != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected first card href %q", href)
	}
	if _, ok := cards.Last().Find("a").Attr("href"); ok {
		t.Fatalf("expected no href for episode without youtube id")
	}
	if s.Page("/podcast/").Title != "Podcast | Weaviate Docs" {
		t.Fatalf("unexpected podcast title %q", s.Page("/podcast/").Title)
	}

	home := document(t, s.Page("/"))
	if got := home.Find("section.features div.row div.col").Length(); got != 2 {
		t.Fatalf("expected 2 feature cards, got %d", got)
	}
	if got := home.Find("section.features p strong").Text(); got != "millions" {
		t.Fatalf("expected rich feature description, got %q", got)
	}

	if logger.count("warn", "record has empty fields") != 1 {
		t.Fatalf("expected one warning for the episode without youtube id")
	}
}

func TestAssembleDocs(t *testing.T) {
	sites, logger, err := assemble(t, testConfig(), fixtureFS())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	s := sites[0]

	index := document(t, s.Page("/docs/"))
	hrefs := index.Find("div.markdown a").Map(func(_ int, sel *goquery.Selection) string {
		href, _ := sel.Attr("href")
		return href
	})
	if len(hrefs) != 3 || hrefs[0] != "/docs/intro/#setup" || hrefs[1] != "/docs/contributor-guide/" || hrefs[2] != "nope.md" {
		t.Fatalf("unexpected rewritten links %v", hrefs)
	}
	if got := index.Find("div.markdown h1").Text(); got != "Introduction" {
		t.Fatalf("expected front matter title heading, got %q", got)
	}
	if href, _ := index.Find("a.theme-edit-this-page").Attr("href"); !strings.HasSuffix(href, "/docs/index.md") {
		t.Fatalf("unexpected edit url %q", href)
	}

	intro := document(t, s.Page("/docs/intro/"))
	if got := intro.Find("h1").Length(); got != 1 {
		t.Fatalf("expected markdown heading only, got %d h1", got)
	}
	active := intro.Find(`nav.menu[aria-label="docsSidebar"] a.menu__link--active`)
	if href, _ := active.Attr("href"); href != "/docs/intro/" {
		t.Fatalf("unexpected active sidebar link %q", href)
	}
	if got := intro.Find(`nav.menu a`).Length(); got != 2 {
		t.Fatalf("expected 2 links in docsSidebar, got %d", got)
	}

	guide := document(t, s.Page("/docs/contributor-guide/"))
	if guide.Find(`nav.menu[aria-label="contributorSidebar"]`).Length() != 1 {
		t.Fatalf("expected contributor sidebar")
	}
	if s.Page("/docs/draft/") != nil {
		t.Fatalf("drafts must not be routed")
	}

	if len(s.BrokenMarkdownLinks) != 1 || s.BrokenMarkdownLinks[0].Target != "nope.md" {
		t.Fatalf("unexpected broken links %+v", s.BrokenMarkdownLinks)
	}
	if logger.count("warn", "broken markdown link") != 1 {
		t.Fatalf("expected broken markdown link warning")
	}
}

func TestAssembleBrokenMarkdownLinkPolicies(t *testing.T) {
	cfg := testConfig()
	cfg.OnBrokenMarkdownLinks = siteconfig.PolicyThrow
	if _, _, err := assemble(t, cfg, fixtureFS()); !errors.Is(err, site.ErrBrokenMarkdownLinks) {
		t.Fatalf("expected ErrBrokenMarkdownLinks, got %v", err)
	}

	cfg.OnBrokenMarkdownLinks = siteconfig.PolicyIgnore
	_, logger, err := assemble(t, cfg, fixtureFS())
	if err != nil {
		t.Fatalf("ignore policy: %v", err)
	}
	if logger.count("warn", "broken markdown link") != 0 {
		t.Fatalf("ignore policy must not warn")
	}
}

func TestAssembleBlog(t *testing.T) {
	sites, _, err := assemble(t, testConfig(), fixtureFS())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	s := sites[0]
	if len(s.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(s.Posts))
	}
	welcome := s.Posts[1]
	if welcome.Route != "/blog/welcome/" || welcome.Date.Format("2006-01-02") != "2021-08-26" {
		t.Fatalf("unexpected post %s dated %s", welcome.Route, welcome.Date)
	}
	if !strings.Contains(string(welcome.Summary), "Short summary.") || strings.Contains(string(welcome.Summary), "Rest of the post.") {
		t.Fatalf("unexpected summary %q", welcome.Summary)
	}
	if len(welcome.Authors) != 1 || welcome.Authors[0] != "Ada" {
		t.Fatalf("unexpected authors %v", welcome.Authors)
	}
	if welcome.ReadingTime != 1 {
		t.Fatalf("expected reading time of one minute, got %d", welcome.ReadingTime)
	}

	list := document(t, s.Page("/blog/"))
	titles := list.Find("article h2 a").Map(func(_ int, sel *goquery.Selection) string { return sel.Text() })
	if len(titles) != 2 || titles[0] != "Second" || titles[1] != "Welcome" {
		t.Fatalf("unexpected blog list %v", titles)
	}
	post := document(t, s.Page("/blog/welcome/"))
	if href, _ := post.Find("a.pagination-nav__link").Attr("href"); href != "/blog/" {
		t.Fatalf("unexpected back link %q", href)
	}
}

func TestAssembleChrome(t *testing.T) {
	sites, _, err := assemble(t, testConfig(), fixtureFS())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	nav := sites[0].Navbar
	if len(nav.Left) != 4 || len(nav.Right) != 1 {
		t.Fatalf("unexpected navbar %+v", nav)
	}
	wantLeft := []string{"/docs/", "/docs/contributor-guide/", "/blog/", "/podcast/"}
	for idx, link := range nav.Left {
		if link.URL != wantLeft[idx] || link.External {
			t.Fatalf("left[%d] = %+v, want %s", idx, link, wantLeft[idx])
		}
	}
	if !nav.Right[0].External {
		t.Fatalf("expected github link to be external")
	}

	footer := sites[0].Footer
	if footer.Style != "dark" || len(footer.Groups) != 3 {
		t.Fatalf("unexpected footer %+v", footer)
	}
	if footer.Groups[0].Items[0].URL != "/docs/intro/" {
		t.Fatalf("unexpected footer tutorial link %q", footer.Groups[0].Items[0].URL)
	}
	if strings.Contains(footer.Copyright, "{year}") {
		t.Fatalf("copyright placeholder not resolved: %q", footer.Copyright)
	}
}

func TestAssembleLocalesAndBaseURL(t *testing.T) {
	cfg := testConfig()
	cfg.BaseURL = "/weaviate/"
	cfg.I18N.Locales = []string{"en", "fr"}

	sites, _, err := assemble(t, cfg, fixtureFS())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(sites))
	}
	en, fr := sites[0], sites[1]
	if !en.DefaultLocale || fr.DefaultLocale {
		t.Fatalf("unexpected default locale flags")
	}
	if got := en.Page("/podcast/").URL; got != "/weaviate/podcast/" {
		t.Fatalf("unexpected default locale url %q", got)
	}
	if got := fr.Page("/podcast/").URL; got != "/weaviate/fr/podcast/" {
		t.Fatalf("unexpected fr url %q", got)
	}
	if fr.HomeURL != "/weaviate/fr/" {
		t.Fatalf("unexpected fr home %q", fr.HomeURL)
	}
	if en.Page("/").ID == fr.Page("/").ID {
		t.Fatalf("page ids must differ per locale")
	}

	if _, _, err := assemble(t, cfg, fixtureFS(), "de"); !errors.Is(err, site.ErrUnknownLocale) {
		t.Fatalf("expected ErrUnknownLocale, got %v", err)
	}
}

func TestAssembleMissingDataFiles(t *testing.T) {
	files := fixtureFS()
	delete(files, "data/podcast.yaml")
	sites, logger, err := assemble(t, testConfig(), files)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(sites[0].Episodes) != 0 {
		t.Fatalf("expected no episodes")
	}
	if logger.count("warn", "record data file not found") != 1 {
		t.Fatalf("expected missing data warning")
	}
}

func TestNormalizeRoute(t *testing.T) {
	cases := map[string]string{
		"":               "/",
		"/":              "/",
		"blog":           "/blog/",
		"/docs/intro":    "/docs/intro/",
		"/docs/intro/#a": "/docs/intro/#a",
		"/docs/intro#a":  "/docs/intro/#a",
		"/blog/rss.xml":  "/blog/rss.xml",
		"/a/../b":        "/b/",
		"/search?q=x":    "/search/?q=x",
	}
	for in, want := range cases {
		if got := site.NormalizeRoute(in); got != want {
			t.Fatalf("NormalizeRoute(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewAssemblerRequiresDependencies(t *testing.T) {
	if _, err := site.NewAssembler(nil, site.Dependencies{}); !errors.Is(err, site.ErrConfigRequired) {
		t.Fatalf("expected ErrConfigRequired, got %v", err)
	}
	if _, err := site.NewAssembler(testConfig(), site.Dependencies{}); !errors.Is(err, site.ErrRendererRequired) {
		t.Fatalf("expected ErrRendererRequired, got %v", err)
	}
}
