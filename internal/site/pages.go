package site

import (
	"fmt"

	"github.com/goliatone/go-docsite/internal/content"
	"github.com/goliatone/go-docsite/internal/render"
)

const getStartedLabel = "Get started"

func (a *Assembler) homePage(router Router, features []content.Record, docs []*docEntry) (*Page, error) {
	section, err := a.renderer.FeaturesSection(a.cfg.Features.Heading, features)
	if err != nil {
		return nil, fmt.Errorf("render features: %w", err)
	}

	view := render.HomeView{
		Hero:     render.Hero{Title: a.cfg.Title, Tagline: a.cfg.Tagline},
		Features: section,
	}
	rootSidebar := a.sidebarScopes().lookup("index")
	for _, entry := range docs {
		if entry.sidebar == rootSidebar {
			view.Hero.Action = &render.Link{Label: getStartedLabel, URL: router.URL(entry.route)}
			break
		}
	}

	body, err := a.renderer.Home(view)
	if err != nil {
		return nil, fmt.Errorf("render home: %w", err)
	}

	title := a.cfg.Title
	if a.cfg.Tagline != "" {
		title += " | " + a.cfg.Tagline
	}
	return &Page{
		Kind:        KindHome,
		Route:       "/",
		URL:         router.Root(),
		Title:       title,
		Heading:     a.cfg.Title,
		Description: a.cfg.Tagline,
		Body:        body,
		Source:      a.cfg.Features.Data,
	}, nil
}

func (a *Assembler) podcastPage(router Router, episodes []content.Record) (*Page, error) {
	chrome := render.PodcastChrome{
		Heading:        a.cfg.Podcast.Heading,
		Intro:          a.cfg.Podcast.Intro,
		SubscribeLabel: a.cfg.Podcast.SubscribeLabel,
		SubscribeURL:   a.cfg.Podcast.SubscribeURL,
	}
	body, err := a.renderer.PodcastPage(chrome, episodes)
	if err != nil {
		return nil, fmt.Errorf("render podcast page: %w", err)
	}
	route := NormalizeRoute(a.cfg.Podcast.RouteBasePath)
	return &Page{
		Kind:        KindPodcast,
		Route:       route,
		URL:         router.URL(route),
		Title:       a.documentTitle(a.cfg.Podcast.Title),
		Heading:     a.cfg.Podcast.Title,
		Description: a.cfg.Podcast.Description,
		Body:        body,
		Source:      a.cfg.Podcast.Data,
	}, nil
}
