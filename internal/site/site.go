// Package site assembles routed pages from the configuration, the record data
// files and the markdown trees. It renders page bodies but not the layout;
// wrapping pages in the site chrome is the generator's job.
package site

import (
	"html/template"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-docsite/internal/content"
)

// Kind classifies a page. Layout templates receive it as a body class.
type Kind string

const (
	KindHome     Kind = "home"
	KindPodcast  Kind = "podcast"
	KindDoc      Kind = "doc"
	KindBlogList Kind = "blog_list"
	KindBlogPost Kind = "blog_post"
)

// Page is a routed, rendered body.
type Page struct {
	ID   uuid.UUID
	Kind Kind
	// Route is relative to the locale root and excludes the base URL.
	Route string
	// URL is the href other pages use to link here.
	URL string
	// Title is the document title shown in the browser tab.
	Title string
	// Heading is the bare page title used in listings and feeds.
	Heading      string
	Description  string
	Body         template.HTML
	Source       string
	Checksum     string
	LastModified time.Time

	// Blog posts only.
	Date        time.Time
	Authors     []string
	Summary     template.HTML
	ReadingTime int
}

// NavLink is a resolved navbar or footer entry.
type NavLink struct {
	Label    string
	URL      string
	External bool
}

type Logo struct {
	Src string
	Alt string
}

type Navbar struct {
	Title string
	Logo  Logo
	Left  []NavLink
	Right []NavLink
}

type FooterGroup struct {
	Title string
	Items []NavLink
}

type Footer struct {
	Style     string
	Groups    []FooterGroup
	Copyright string
}

// BrokenLink is a markdown link to a file that does not exist.
type BrokenLink struct {
	Source string
	Target string
}

// Site is everything the generator needs to write one locale.
type Site struct {
	Locale        string
	DefaultLocale bool
	Router        Router
	HomeURL       string
	Navbar        Navbar
	Footer        Footer
	// Pages are in declaration order: home, podcast, docs, blog list, posts.
	Pages    []*Page
	Posts    []*Page
	Features []content.Record
	Episodes []content.Record

	BrokenMarkdownLinks []BrokenLink
}

// Page returns the page served at route, or nil.
func (s *Site) Page(route string) *Page {
	route = NormalizeRoute(route)
	for _, page := range s.Pages {
		if page.Route == route {
			return page
		}
	}
	return nil
}
