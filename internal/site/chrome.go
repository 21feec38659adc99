package site

import (
	"path"

	"github.com/goliatone/go-docsite/internal/siteconfig"
)

const positionRight = "right"

func (a *Assembler) navbar(router Router, docs []*docEntry) Navbar {
	nav := Navbar{
		Title: a.cfg.Navbar.Title,
		Logo:  Logo{Src: a.cfg.Navbar.Logo.Src, Alt: a.cfg.Navbar.Logo.Alt},
	}
	for _, item := range a.cfg.Navbar.Items {
		link := a.navLink(router, item, docs)
		if item.Position == positionRight {
			nav.Right = append(nav.Right, link)
		} else {
			nav.Left = append(nav.Left, link)
		}
	}
	return nav
}

func (a *Assembler) navLink(router Router, item siteconfig.NavItem, docs []*docEntry) NavLink {
	switch {
	case item.Href != "":
		return NavLink{Label: item.Label, URL: item.Href, External: true}
	case item.DocID != "":
		for _, entry := range docs {
			if entry.id == item.DocID {
				return NavLink{Label: item.Label, URL: router.URL(entry.route)}
			}
		}
		// Left unresolved so the link checker reports it.
		a.logger.Warn("navbar doc not found", "label", item.Label, "doc_id", item.DocID)
		return NavLink{Label: item.Label, URL: router.URL(path.Join(a.cfg.Docs.RouteBasePath, item.DocID))}
	default:
		return routeLink(router, item.Label, item.To)
	}
}

func (a *Assembler) footer(router Router) Footer {
	footer := Footer{Style: a.cfg.Footer.Style, Copyright: a.cfg.Copyright()}
	for _, group := range a.cfg.Footer.Links {
		resolved := FooterGroup{Title: group.Title}
		for _, item := range group.Items {
			if item.Href != "" {
				resolved.Items = append(resolved.Items, NavLink{Label: item.Label, URL: item.Href, External: true})
				continue
			}
			resolved.Items = append(resolved.Items, routeLink(router, item.Label, item.To))
		}
		footer.Groups = append(footer.Groups, resolved)
	}
	return footer
}

func routeLink(router Router, label, to string) NavLink {
	if isExternal(to) {
		return NavLink{Label: label, URL: to, External: true}
	}
	return NavLink{Label: label, URL: router.URL(to)}
}
