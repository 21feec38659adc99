package generator

import (
	"strings"
	"testing"
	"time"
)

func TestBuildOutputPath(t *testing.T) {
	cases := []struct {
		route, locale, want string
	}{
		{"/", "en", "index.html"},
		{"", "en", "index.html"},
		{"/docs/intro/", "en", "docs/intro/index.html"},
		{"/docs/intro/#setup", "en", "docs/intro/index.html"},
		{"/podcast/", "fr", "fr/podcast/index.html"},
		{"/", "fr", "fr/index.html"},
		{"/blog/rss.xml", "en", "blog/rss.xml"},
	}
	for _, tc := range cases {
		if got := buildOutputPath(tc.route, tc.locale, "en"); got != tc.want {
			t.Fatalf("buildOutputPath(%q, %q) = %q, want %q", tc.route, tc.locale, got, tc.want)
		}
	}
}

func TestOutputURL(t *testing.T) {
	cases := []struct {
		base, output, want string
	}{
		{"/", "index.html", "/"},
		{"/", "docs/intro/index.html", "/docs/intro/"},
		{"/weaviate/", "blog/rss.xml", "/weaviate/blog/rss.xml"},
		{"/weaviate/", "index.html", "/weaviate/"},
	}
	for _, tc := range cases {
		if got := outputURL(tc.base, tc.output); got != tc.want {
			t.Fatalf("outputURL(%q, %q) = %q, want %q", tc.base, tc.output, got, tc.want)
		}
	}
}

func TestBuildSitemapSortsAndDeduplicates(t *testing.T) {
	fallback := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	entries := []sitemapEntry{
		{Location: "/docs/intro/"},
		{Location: "/"},
		{Location: "/docs/intro/"},
		{Location: "blog/", LastMod: time.Date(2021, 8, 26, 0, 0, 0, 0, time.UTC)},
	}
	xml := buildSitemap("https://docs.example.com/", entries, fallback)

	if strings.Count(xml, "<url>") != 3 {
		t.Fatalf("expected 3 urls:\n%s", xml)
	}
	root := strings.Index(xml, "<loc>https://docs.example.com/</loc>")
	blog := strings.Index(xml, "<loc>https://docs.example.com/blog/</loc>")
	docs := strings.Index(xml, "<loc>https://docs.example.com/docs/intro/</loc>")
	if root < 0 || blog < root || docs < blog {
		t.Fatalf("locations should be sorted:\n%s", xml)
	}
	if !strings.Contains(xml, "<lastmod>2021-08-26T00:00:00Z</lastmod>") {
		t.Fatalf("expected explicit lastmod:\n%s", xml)
	}
	if !strings.Contains(xml, "<lastmod>2024-01-02T00:00:00Z</lastmod>") {
		t.Fatalf("expected fallback lastmod:\n%s", xml)
	}
}

func TestBuildRobots(t *testing.T) {
	if got := buildRobots(""); strings.Contains(got, "Sitemap") {
		t.Fatalf("robots without sitemap should not advertise one: %q", got)
	}
	got := buildRobots("https://docs.example.com/weaviate/sitemap.xml")
	if !strings.HasSuffix(got, "Sitemap: https://docs.example.com/weaviate/sitemap.xml\n") {
		t.Fatalf("unexpected robots %q", got)
	}
}

func TestTemplateHelpersWithBaseURL(t *testing.T) {
	helpers := newTemplateHelpers("en", LocaleSpec{Code: "fr"}, "/weaviate/")
	if got := helpers.WithBaseURL("img/logo.svg"); got != "/weaviate/img/logo.svg" {
		t.Fatalf("unexpected asset href %q", got)
	}
	if got := helpers.WithBaseURL("https://cdn.example.com/x.css"); got != "https://cdn.example.com/x.css" {
		t.Fatalf("absolute urls must pass through, got %q", got)
	}
	if got := helpers.LocalePrefix(); got != "/fr" {
		t.Fatalf("unexpected locale prefix %q", got)
	}
	if helpers.IsDefaultLocale() {
		t.Fatalf("fr is not the default locale")
	}
}

func TestRootCSS(t *testing.T) {
	css := rootCSS(map[string]string{
		"--ifm-color-primary": "#61c6ac",
		"--ifm-font":          "x;}</style>",
	})
	want := ":root{--ifm-color-primary:#61c6ac;--ifm-font:x/style;}"
	if string(css) != want {
		t.Fatalf("rootCSS = %q, want %q", css, want)
	}
	if rootCSS(nil) != "" {
		t.Fatalf("empty variables should render nothing")
	}
}
