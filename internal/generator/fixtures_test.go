package generator

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-docsite/internal/content"
	"github.com/goliatone/go-docsite/internal/identity"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/site"
	"github.com/goliatone/go-docsite/internal/siteconfig"
	"github.com/goliatone/go-docsite/internal/storage"
)

var fixtureNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type stubAssembler struct {
	sites map[string]*site.Site
	calls int
}

func (s *stubAssembler) Assemble(_ context.Context, locales ...string) ([]*site.Site, error) {
	s.calls++
	out := make([]*site.Site, 0, len(locales))
	for _, code := range locales {
		st, ok := s.sites[code]
		if !ok {
			return nil, fmt.Errorf("unknown locale %s", code)
		}
		out = append(out, st)
	}
	return out, nil
}

type fixtureOptions struct {
	withoutPost bool
	docBody     string
}

func fixtureSite(locale string, opts fixtureOptions) *site.Site {
	router := site.NewRouter("/", locale, "en")
	page := func(kind site.Kind, route, heading, body string) *site.Page {
		return &site.Page{
			ID:          identity.PageUUID(locale, route),
			Kind:        kind,
			Route:       route,
			URL:         router.URL(route),
			Title:       heading + " | Weaviate Docs",
			Heading:     heading,
			Description: heading + " description",
			Body:        template.HTML(body),
		}
	}

	docBody := opts.docBody
	if docBody == "" {
		docBody = `<h1>Intro</h1><p><a href="../../blog/">Blog</a></p>`
	}

	st := &site.Site{
		Locale:        locale,
		DefaultLocale: locale == "en",
		Router:        router,
		HomeURL:       router.Root(),
		Navbar: site.Navbar{
			Title: "Weaviate",
			Logo:  site.Logo{Src: "img/logo.svg", Alt: "Logo"},
			Left: []site.NavLink{
				{Label: "Docs", URL: router.URL("/docs/intro/")},
				{Label: "Blog", URL: router.URL("/blog/")},
			},
			Right: []site.NavLink{
				{Label: "GitHub", URL: "https://github.com/semi-technologies/weaviate-io", External: true},
			},
		},
		Footer: site.Footer{
			Style: "dark",
			Groups: []site.FooterGroup{
				{Title: "More", Items: []site.NavLink{{Label: "Podcast", URL: router.URL("/podcast/")}}},
			},
			Copyright: "Copyright 2024 Weaviate, Inc.",
		},
		Episodes: []content.Record{
			{Kind: content.KindEpisode, Title: "Ep1", Description: "d1", Media: "/a.png", ExternalLink: "abc", Date: "2021-01-01"},
			{Kind: content.KindEpisode, Title: "Ep2", Description: "d2", Media: "/b.png", ExternalLink: "def", Date: "2021-02-01"},
		},
	}

	home := page(site.KindHome, "/", "Weaviate Docs", `<a href="`+router.URL("/docs/intro/")+`">Get started</a>`)
	podcast := page(site.KindPodcast, "/podcast/", "Podcast", `<div class="podcast_card">Ep1</div>`)
	doc := page(site.KindDoc, "/docs/intro/", "Intro", docBody)
	list := page(site.KindBlogList, "/blog/", "Blog", `<p>posts</p>`)
	st.Pages = []*site.Page{home, podcast, doc, list}

	if !opts.withoutPost {
		post := page(site.KindBlogPost, "/blog/first-post/", "First Post", `<p>hello</p>`)
		post.Date = time.Date(2021, 8, 26, 0, 0, 0, 0, time.UTC)
		post.Summary = template.HTML(`<p>First <b>summary</b></p>`)
		list.Body = template.HTML(`<a href="` + post.URL + `">First Post</a>`)
		st.Pages = append(st.Pages, post)
		st.Posts = []*site.Page{post}
	}
	return st
}

func testConfig() Config {
	return Config{
		Title:         "Weaviate Docs",
		Description:   "Vector Search Engine",
		SiteURL:       "https://docs.example.com",
		BasePath:      "/",
		DefaultLocale: "en",
		Locales:       []string{"en"},
		Chrome: ChromeConfig{
			Favicon:     "img/logo.svg",
			CodeTheme:   "github",
			Stylesheets: []string{"css/custom.css"},
		},
		Feeds: FeedsConfig{
			Blog:    FeedConfig{Enabled: true, Route: "blog", Title: "Weaviate Docs Blog"},
			Podcast: FeedConfig{Enabled: true, Route: "podcast", Title: "Weaviate Podcast"},
		},
		OnBrokenLinks:   siteconfig.PolicyThrow,
		Incremental:     true,
		CopyAssets:      true,
		GenerateSitemap: true,
		GenerateRobots:  true,
		GenerateFeeds:   true,
		Workers:         1,
	}
}

type testHarness struct {
	svc       *service
	storage   *storage.Memory
	assembler *stubAssembler
}

func newHarness(t *testing.T, cfg Config, deps Dependencies, sites ...*site.Site) testHarness {
	t.Helper()
	assembler := &stubAssembler{sites: map[string]*site.Site{}}
	for _, st := range sites {
		assembler.sites[st.Locale] = st
	}
	mem := storage.NewMemory()
	deps.Site = assembler
	deps.Renderer = render.Must()
	if deps.Storage == nil {
		deps.Storage = mem
	}
	svc := NewService(cfg, deps).(*service)
	svc.now = func() time.Time { return fixtureNow }
	return testHarness{svc: svc, storage: mem, assembler: assembler}
}

func (h testHarness) file(t *testing.T, name string) string {
	t.Helper()
	data, ok := h.storage.File(name)
	if !ok {
		t.Fatalf("expected %s to be written, have %v", name, h.storage.Files())
	}
	return string(data)
}

func (h testHarness) document(t *testing.T, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(h.file(t, name)))
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return doc
}
