// Package content loads the static record lists that back the homepage
// features section and the podcast listing.
package content

import (
	"html/template"
	"net/url"
)

// Kind tags a record with the card family used to render it.
type Kind string

const (
	KindFeature Kind = "feature"
	KindEpisode Kind = "episode"
)

// Record is one displayable item. Records are immutable once loaded and are
// rendered in declaration order.
type Record struct {
	Kind  Kind
	Title string
	// Description is already safe HTML: plain strings are escaped on load and
	// feature descriptions are rendered from markdown.
	Description template.HTML
	// Media is an image or icon URL.
	Media string
	// ExternalLink holds a video ID, not a full URL.
	ExternalLink string
	// Date is a display string and is never parsed.
	Date string
}

// MissingFields lists display fields left empty. Missing fields are rendered
// blank, so this is only used for warnings.
func (r Record) MissingFields() []string {
	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if r.Description == "" {
		missing = append(missing, "description")
	}
	if r.Media == "" {
		missing = append(missing, "media")
	}
	if r.Kind == KindEpisode {
		if r.ExternalLink == "" {
			missing = append(missing, "external_link")
		}
		if r.Date == "" {
			missing = append(missing, "date")
		}
	}
	return missing
}

// WatchURL is the YouTube page for ExternalLink, or empty. The ID is query
// escaped so cards and feeds emit the same link for any input.
func (r Record) WatchURL() string {
	if r.ExternalLink == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(r.ExternalLink)
}
