package render_test

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"

	"github.com/goliatone/go-docsite/internal/content"
	"github.com/goliatone/go-docsite/internal/render"
)

func parse(t *testing.T, html template.HTML) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(html)))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func episode(title, description, media, link, date string) content.Record {
	return content.Record{
		Kind:         content.KindEpisode,
		Title:        title,
		Description:  template.HTML(template.HTMLEscapeString(description)),
		Media:        media,
		ExternalLink: link,
		Date:         date,
	}
}

func TestPodcastCardSingleRecord(t *testing.T) {
	r := render.Must()
	html, err := r.PodcastCard(episode("Ep1", "d1", "/a.png", "abc", "2021-01-01"))
	if err != nil {
		t.Fatalf("PodcastCard: %v", err)
	}

	doc := parse(t, html)
	cards := doc.Find("div.podcast_card")
	if cards.Length() != 1 {
		t.Fatalf("expected one card, got %d", cards.Length())
	}
	href, ok := cards.Find("a").First().Attr("href")
	if !ok || href != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected href %q (present=%v)", href, ok)
	}
	if target, _ := cards.Find("a").First().Attr("target"); target != "_blank" {
		t.Fatalf("expected target _blank, got %q", target)
	}
	if src, _ := cards.Find("img").Attr("src"); src != "/a.png" {
		t.Fatalf("unexpected img src %q", src)
	}
	text := cards.Text()
	if !strings.Contains(text, "Ep1") || !strings.Contains(text, "d1") {
		t.Fatalf("expected title and description in card text, got %q", text)
	}
	if got := cards.Find("span.read-more").Text(); got != "2021-01-01" {
		t.Fatalf("unexpected date %q", got)
	}
}

func TestPodcastCardBuildsWatchURL(t *testing.T) {
	html, err := render.Must().PodcastCard(episode("Ep", "", "", "v123", ""))
	if err != nil {
		t.Fatalf("PodcastCard: %v", err)
	}
	href, _ := parse(t, html).Find("div.podcast_card > a").Attr("href")
	if href != "https://www.youtube.com/watch?v=v123" {
		t.Fatalf("unexpected href %q", href)
	}
}

func TestPodcastCardHrefMatchesWatchURL(t *testing.T) {
	rec := episode("Ep", "", "", "a&b c", "")
	html, err := render.Must().PodcastCard(rec)
	if err != nil {
		t.Fatalf("PodcastCard: %v", err)
	}
	href, _ := parse(t, html).Find("div.podcast_card > a").Attr("href")
	if href != rec.WatchURL() {
		t.Fatalf("card href %q differs from watch url %q", href, rec.WatchURL())
	}
}

func TestPodcastCardWithoutLinkOmitsHref(t *testing.T) {
	html, err := render.Must().PodcastCard(episode("Ep", "d", "/x.png", "", "2021"))
	if err != nil {
		t.Fatalf("PodcastCard: %v", err)
	}
	if _, ok := parse(t, html).Find("div.podcast_card > a").Attr("href"); ok {
		t.Fatalf("expected no href attribute, got %s", html)
	}
}

func TestPodcastCardMissingDescription(t *testing.T) {
	html, err := render.Must().PodcastCard(content.Record{Kind: content.KindEpisode, Title: "Ep"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	doc := parse(t, html)
	p := doc.Find("div.podcast_card p")
	if p.Length() != 1 {
		t.Fatalf("expected description region, got %d", p.Length())
	}
	if p.Text() != "" {
		t.Fatalf("expected empty description, got %q", p.Text())
	}
}

func TestPodcastCardEscapesTitle(t *testing.T) {
	html, err := render.Must().PodcastCard(episode("<script>x</script>", "", "", "", ""))
	if err != nil {
		t.Fatalf("PodcastCard: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Fatalf("expected title to be escaped: %s", html)
	}
}

func TestFeatureCardKeepsRichDescription(t *testing.T) {
	rec := content.Record{
		Kind:        content.KindFeature,
		Title:       "Containerized development",
		Description: template.HTML("Run <code>docker-compose up</code>"),
		Media:       "/img/docker.svg",
	}
	html, err := render.Must().FeatureCard(rec)
	if err != nil {
		t.Fatalf("FeatureCard: %v", err)
	}
	doc := parse(t, html)
	col := doc.Find("div.col.col--4")
	if col.Length() != 1 {
		t.Fatalf("expected one column, got %d", col.Length())
	}
	img := col.Find("div.text--center img.featureSvg")
	if role, _ := img.Attr("role"); role != "img" {
		t.Fatalf("expected role=img, got %q", role)
	}
	if got := col.Find("h3").Text(); got != rec.Title {
		t.Fatalf("unexpected heading %q", got)
	}
	if got := col.Find("p code").Text(); got != "docker-compose up" {
		t.Fatalf("expected code element to survive, got %q", got)
	}
}

func TestCardsPreserveCountAndOrder(t *testing.T) {
	r := render.Must()
	for _, n := range []int{1, 2, 5} {
		recs := make([]content.Record, 0, n)
		for i := 0; i < n; i++ {
			recs = append(recs, episode(fmt.Sprintf("Ep%d", n-i), "", "", fmt.Sprintf("id%d", i), ""))
		}
		cards, err := r.Cards(recs)
		if err != nil {
			t.Fatalf("Cards: %v", err)
		}
		if len(cards) != n {
			t.Fatalf("expected %d cards, got %d", n, len(cards))
		}
		for i, card := range cards {
			want := fmt.Sprintf("<h2>Ep%d</h2>", n-i)
			if !strings.Contains(string(card), want) {
				t.Fatalf("card %d: expected %s in %s", i, want, card)
			}
		}
	}
}

func TestCardsDuplicatesAreKept(t *testing.T) {
	rec := episode("Same", "d", "", "x", "")
	cards, err := render.Must().Cards([]content.Record{rec, rec})
	if err != nil {
		t.Fatalf("Cards: %v", err)
	}
	if len(cards) != 2 || cards[0] != cards[1] {
		t.Fatalf("expected two identical cards, got %v", cards)
	}
}

func TestCardRejectsUnknownKind(t *testing.T) {
	_, err := render.Must().Cards([]content.Record{{Kind: "banner"}})
	if !errors.Is(err, render.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestPodcastPageIsDeterministic(t *testing.T) {
	r := render.Must()
	chrome := render.PodcastChrome{
		Heading:        "Weaviate Podcast",
		Intro:          "Join Connor Shorten.",
		SubscribeLabel: "Subscribe to the YouTube channel",
		SubscribeURL:   "https://www.youtube.com/playlist?list=PL",
	}
	recs := []content.Record{
		episode("Ep1", "d1", "/a.png", "abc", "2021-01-01"),
		episode("Ep2", "d2", "/b.png", "def", "2021-02-01"),
	}

	first, err := r.PodcastPage(chrome, recs)
	if err != nil {
		t.Fatalf("PodcastPage: %v", err)
	}
	second, err := r.PodcastPage(chrome, recs)
	if err != nil {
		t.Fatalf("PodcastPage: %v", err)
	}
	if first != second {
		t.Fatal("expected byte-identical output")
	}

	doc := parse(t, first)
	if got := doc.Find("h1").Text(); got != "Weaviate Podcast" {
		t.Fatalf("unexpected heading %q", got)
	}
	subscribe := doc.Find("a.subscribe_button")
	if href, _ := subscribe.Attr("href"); href != chrome.SubscribeURL {
		t.Fatalf("unexpected subscribe href %q", href)
	}
	cards := doc.Find("div.podcast_container > div.podcast_container_group > div.podcast_card")
	if cards.Length() != 2 {
		t.Fatalf("expected cards inside container group, got %d", cards.Length())
	}
	if got := cards.First().Find("h2").Text(); got != "Ep1" {
		t.Fatalf("expected first card Ep1, got %q", got)
	}
}

func TestPodcastPageEmpty(t *testing.T) {
	html, err := render.Must().PodcastPage(render.PodcastChrome{Heading: "Weaviate Podcast"}, nil)
	if err != nil {
		t.Fatalf("PodcastPage: %v", err)
	}
	doc := parse(t, html)
	if doc.Find("div.podcast_card").Length() != 0 {
		t.Fatal("expected no cards")
	}
	if doc.Find("a.subscribe_button").Length() != 0 {
		t.Fatal("expected subscribe link to be omitted without a URL")
	}
}

func TestFeaturesSectionStructure(t *testing.T) {
	recs := []content.Record{
		{Kind: content.KindFeature, Title: "Query your data using GraphQL", Media: "/img/graphql.svg"},
		{Kind: content.KindFeature, Title: "Containerized development", Media: "/img/docker.svg"},
		{Kind: content.KindFeature, Title: "Kubernetes for scale", Media: "/img/kubernetes.svg"},
	}
	html, err := render.Must().FeaturesSection("Combining developer UX and scalability", recs)
	if err != nil {
		t.Fatalf("FeaturesSection: %v", err)
	}
	doc := parse(t, html)
	if got := doc.Find("section.features > div.container > h1").Text(); got != "Combining developer UX and scalability" {
		t.Fatalf("unexpected heading %q", got)
	}
	cols := doc.Find("section.features div.row > div.col")
	if cols.Length() != 3 {
		t.Fatalf("expected three columns, got %d", cols.Length())
	}
	if got := cols.Eq(2).Find("h3").Text(); got != "Kubernetes for scale" {
		t.Fatalf("unexpected third feature %q", got)
	}
}

func TestOverridesReplaceEmbeddedTemplates(t *testing.T) {
	overrides := fstest.MapFS{
		"theme.html": &fstest.MapFile{Data: []byte(`{{define "card/feature"}}<div class="custom">{{.Title}}</div>{{end}}`)},
	}
	r, err := render.New(render.WithOverrides(overrides, "*.html"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	html, err := r.FeatureCard(content.Record{Kind: content.KindFeature, Title: "X"})
	if err != nil {
		t.Fatalf("FeatureCard: %v", err)
	}
	if string(html) != `<div class="custom">X</div>` {
		t.Fatalf("unexpected override output %q", html)
	}
}

func TestRenderTemplateUnknown(t *testing.T) {
	_, err := render.Must().RenderTemplate("missing", nil)
	if !errors.Is(err, render.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestRenderStringWritesOutput(t *testing.T) {
	var sb strings.Builder
	got, err := render.Must().RenderString(`<b>{{.}}</b>`, "a&b", &sb)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if got != "<b>a&amp;b</b>" || sb.String() != got {
		t.Fatalf("unexpected output %q / %q", got, sb.String())
	}
}
