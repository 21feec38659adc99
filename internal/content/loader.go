package content

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-docsite/pkg/interfaces"
)

var (
	ErrUnknownKind = errors.New("content: unknown record kind")
	ErrNilReader   = errors.New("content: reader is nil")
)

type episodeEntry struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	CoverImage  string `yaml:"cover_image"`
	YouTube     string `yaml:"youtube"`
	Date        string `yaml:"date"`
}

type featureEntry struct {
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

// Loader decodes YAML record lists. Feature descriptions are markdown and
// need a parser; without one they are escaped like plain text.
type Loader struct {
	markdown interfaces.MarkdownParser
}

func NewLoader(markdown interfaces.MarkdownParser) *Loader {
	return &Loader{markdown: markdown}
}

// LoadFile reads path from fsys and decodes it as a list of kind records.
func (l *Loader) LoadFile(fsys fs.FS, path string, kind Kind) ([]Record, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("content: read %s: %w", path, err)
	}
	records, err := l.Load(bytes.NewReader(data), kind)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return records, nil
}

// Load decodes a YAML sequence of records. An empty document yields an empty
// list.
func (l *Loader) Load(r io.Reader, kind Kind) ([]Record, error) {
	if r == nil {
		return nil, ErrNilReader
	}
	switch kind {
	case KindEpisode:
		return l.loadEpisodes(r)
	case KindFeature:
		return l.loadFeatures(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (l *Loader) loadEpisodes(r io.Reader) ([]Record, error) {
	var entries []episodeEntry
	if err := decode(r, &entries); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, Record{
			Kind:         KindEpisode,
			Title:        entry.Title,
			Description:  template.HTML(template.HTMLEscapeString(entry.Description)),
			Media:        entry.CoverImage,
			ExternalLink: strings.TrimSpace(entry.YouTube),
			Date:         entry.Date,
		})
	}
	return records, nil
}

func (l *Loader) loadFeatures(r io.Reader) ([]Record, error) {
	var entries []featureEntry
	if err := decode(r, &entries); err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(entries))
	for i, entry := range entries {
		description, err := l.richText(entry.Description)
		if err != nil {
			return nil, fmt.Errorf("content: feature %d description: %w", i, err)
		}
		records = append(records, Record{
			Kind:        KindFeature,
			Title:       entry.Title,
			Description: description,
			Media:       entry.Icon,
		})
	}
	return records, nil
}

func (l *Loader) richText(source string) (template.HTML, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	if l == nil || l.markdown == nil {
		return template.HTML(template.HTMLEscapeString(source)), nil
	}
	out, err := l.markdown.Parse([]byte(source))
	if err != nil {
		return "", err
	}
	return template.HTML(unwrapParagraph(string(out))), nil
}

// unwrapParagraph strips the <p> goldmark wraps around a single paragraph so
// the fragment can sit inside the card's own <p>.
func unwrapParagraph(html string) string {
	trimmed := strings.TrimSpace(html)
	if strings.HasPrefix(trimmed, "<p>") && strings.HasSuffix(trimmed, "</p>") && strings.Count(trimmed, "<p>") == 1 {
		return strings.TrimSuffix(strings.TrimPrefix(trimmed, "<p>"), "</p>")
	}
	return trimmed
}

func decode(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("content: decode records: %w", err)
	}
	return nil
}
