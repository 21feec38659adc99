package render

import (
	"html/template"
	"time"

	"github.com/goliatone/go-docsite/internal/content"
)

// PodcastChrome is the static text around the episode grid.
type PodcastChrome struct {
	Heading        string
	Intro          string
	SubscribeLabel string
	SubscribeURL   string
}

// PodcastPage renders the podcast heading, intro and subscribe link followed
// by one card per episode.
func (r *Renderer) PodcastPage(chrome PodcastChrome, recs []content.Record) (template.HTML, error) {
	cards, err := r.Cards(recs)
	if err != nil {
		return "", err
	}
	return r.fragment(templatePodcastPage, struct {
		Chrome PodcastChrome
		Cards  []template.HTML
	}{chrome, cards})
}

// FeaturesSection renders the homepage features block.
func (r *Renderer) FeaturesSection(heading string, recs []content.Record) (template.HTML, error) {
	cards, err := r.Cards(recs)
	if err != nil {
		return "", err
	}
	return r.fragment(templateFeatures, struct {
		Heading string
		Cards   []template.HTML
	}{heading, cards})
}

// Link is a labelled URL.
type Link struct {
	Label string
	URL   string
}

type Hero struct {
	Title   string
	Tagline string
	Action  *Link
}

type HomeView struct {
	Hero     Hero
	Features template.HTML
}

func (r *Renderer) Home(view HomeView) (template.HTML, error) {
	return r.fragment(templateHome, view)
}

type SidebarLink struct {
	Label  string
	URL    string
	Active bool
}

type Sidebar struct {
	ID    string
	Links []SidebarLink
}

type DocView struct {
	Title string
	// ShowTitle is false when the markdown already opens with a heading.
	ShowTitle bool
	Content   template.HTML
	Sidebar   Sidebar
	EditURL   string
}

func (r *Renderer) Doc(view DocView) (template.HTML, error) {
	return r.fragment(templateDoc, view)
}

// PostSummary is the list entry for a blog post. ReadingTime is in minutes
// and zero hides it.
type PostSummary struct {
	Title       string
	URL         string
	Date        time.Time
	ReadingTime int
	Authors     []string
	Summary     template.HTML
}

type BlogListView struct {
	Title string
	Posts []PostSummary
}

type BlogPostView struct {
	PostSummary
	Content template.HTML
	EditURL string
	BackURL string
}

func (r *Renderer) BlogList(view BlogListView) (template.HTML, error) {
	return r.fragment(templateBlogList, view)
}

func (r *Renderer) BlogPost(view BlogPostView) (template.HTML, error) {
	return r.fragment(templateBlogPost, view)
}
