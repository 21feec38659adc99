package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and the markdown body from source.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta.toFrontMatter(), body, nil
}

// BuildDocument assembles a Document for relPath. Rendering is left to the
// caller since link rewriting depends on the site routes.
func BuildDocument(filePath, relPath string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", relPath, err)
	}
	sum := sha256.Sum256(source)
	return &interfaces.Document{
		FilePath:     filePath,
		RelPath:      relPath,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
		Checksum:     hex.EncodeToString(sum[:]),
	}, nil
}

// Authors may be a single string or a list in front matter.
type frontMatterEnvelope struct {
	Title           string         `yaml:"title"`
	Slug            string         `yaml:"slug"`
	Description     string         `yaml:"description"`
	Tags            []string       `yaml:"tags"`
	Authors         any            `yaml:"authors"`
	Date            time.Time      `yaml:"date"`
	Draft           bool           `yaml:"draft"`
	SidebarPosition int            `yaml:"sidebar_position"`
	SidebarLabel    string         `yaml:"sidebar_label"`
	Custom          map[string]any `yaml:",inline"`
}

func (env frontMatterEnvelope) toFrontMatter() interfaces.FrontMatter {
	custom := maps.Clone(env.Custom)
	if custom == nil {
		custom = map[string]any{}
	}
	return interfaces.FrontMatter{
		Title:           strings.TrimSpace(env.Title),
		Slug:            strings.TrimSpace(env.Slug),
		Description:     strings.TrimSpace(env.Description),
		Tags:            append([]string(nil), env.Tags...),
		Authors:         normalizeAuthors(env.Authors),
		Date:            env.Date,
		Draft:           env.Draft,
		SidebarPosition: env.SidebarPosition,
		SidebarLabel:    strings.TrimSpace(env.SidebarLabel),
		Custom:          custom,
	}
}

func normalizeAuthors(value any) []string {
	switch v := value.(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return []string{trimmed}
		}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			switch author := item.(type) {
			case string:
				if trimmed := strings.TrimSpace(author); trimmed != "" {
					out = append(out, trimmed)
				}
			case map[any]any:
				if name, ok := author["name"].(string); ok && strings.TrimSpace(name) != "" {
					out = append(out, strings.TrimSpace(name))
				}
			case map[string]any:
				if name, ok := author["name"].(string); ok && strings.TrimSpace(name) != "" {
					out = append(out, strings.TrimSpace(name))
				}
			}
		}
		return out
	}
	return nil
}
