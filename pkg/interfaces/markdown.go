package interfaces

import (
	"time"
)

// MarkdownParser converts raw Markdown bytes into HTML.
type MarkdownParser interface {
	// Parse converts Markdown into HTML using the parser's default settings.
	Parse(markdown []byte) ([]byte, error)
	// ParseWithOptions converts Markdown into HTML using the supplied overrides.
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown parsing behaviour.
type ParseOptions struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
	// LinkResolver rewrites relative .md link destinations. A nil resolver
	// leaves links untouched.
	LinkResolver LinkResolver
}

// LinkResolver maps a markdown link destination to a site route. ok is false
// when the destination looks like a markdown file link that cannot be
// resolved.
type LinkResolver interface {
	ResolveLink(destination string) (route string, ok bool)
}

// Document represents a Markdown file with parsed metadata and content.
type Document struct {
	FilePath     string
	RelPath      string
	FrontMatter  FrontMatter
	Body         []byte
	LastModified time.Time
	Checksum     string
}

// FrontMatter models metadata extracted from Markdown files.
type FrontMatter struct {
	Title           string         `yaml:"title" json:"title"`
	Slug            string         `yaml:"slug" json:"slug"`
	Description     string         `yaml:"description" json:"description"`
	Tags            []string       `yaml:"tags" json:"tags"`
	Authors         []string       `yaml:"authors" json:"authors"`
	Date            time.Time      `yaml:"date" json:"date"`
	Draft           bool           `yaml:"draft" json:"draft"`
	SidebarPosition int            `yaml:"sidebar_position" json:"sidebar_position"`
	SidebarLabel    string         `yaml:"sidebar_label" json:"sidebar_label"`
	Custom          map[string]any `yaml:",inline" json:"custom"`
}
