// Package render turns content records into HTML fragments and composes them
// into page bodies. It knows nothing about routing or output files.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/goliatone/go-docsite/internal/content"
)

//go:embed templates/*.html
var embedded embed.FS

const (
	templatePodcastCard = "card/podcast"
	templateFeatureCard = "card/feature"
	templatePodcastPage = "page/podcast"
	templateFeatures    = "section/features"
	templateHome        = "page/home"
	templateDoc         = "page/doc"
	templateBlogList    = "page/blog_list"
	templateBlogPost    = "page/blog_post"

	// LayoutTemplate wraps page bodies in the site chrome.
	LayoutTemplate = "layout/base"
)

var (
	ErrUnknownKind      = errors.New("render: no card for record kind")
	ErrTemplateNotFound = errors.New("render: template not found")
)

// Renderer executes the embedded templates. It is safe for concurrent use
// once constructed.
type Renderer struct {
	tpl   *template.Template
	funcs template.FuncMap
}

// Option customises a Renderer.
type Option func(*options)

type options struct {
	overrides fs.FS
	pattern   string
	funcs     template.FuncMap
}

// WithOverrides parses templates from fsys after the embedded set, so a theme
// can redefine any named template.
func WithOverrides(fsys fs.FS, pattern string) Option {
	return func(o *options) {
		o.overrides = fsys
		o.pattern = pattern
	}
}

// WithFuncs registers extra template functions.
func WithFuncs(funcs template.FuncMap) Option {
	return func(o *options) {
		for name, fn := range funcs {
			o.funcs[name] = fn
		}
	}
}

// New parses the embedded templates and any overrides.
func New(opts ...Option) (*Renderer, error) {
	cfg := &options{funcs: defaultFuncs()}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	tpl, err := template.New("docsite").Funcs(cfg.funcs).ParseFS(embedded, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse embedded templates: %w", err)
	}

	if cfg.overrides != nil {
		pattern := strings.TrimSpace(cfg.pattern)
		if pattern == "" {
			pattern = "*.html"
		}
		matches, err := fs.Glob(cfg.overrides, pattern)
		if err != nil {
			return nil, fmt.Errorf("render: glob overrides: %w", err)
		}
		if len(matches) > 0 {
			if tpl, err = tpl.ParseFS(cfg.overrides, matches...); err != nil {
				return nil, fmt.Errorf("render: parse overrides: %w", err)
			}
		}
	}

	return &Renderer{tpl: tpl, funcs: cfg.funcs}, nil
}

// Must is New that panics on error. Used by tests and the embedded defaults.
func Must(opts ...Option) *Renderer {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"safeHTML": func(value string) template.HTML { return template.HTML(value) },
		"join":     strings.Join,
		"isoDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02")
		},
		"longDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("January 2, 2006")
		},
	}
}

// RenderTemplate executes the named template. When out is given the result is
// also written there.
func (r *Renderer) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if r.tpl.Lookup(name) == nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	var buf bytes.Buffer
	if err := r.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render: execute %q: %w", name, err)
	}
	return emit(buf.String(), out)
}

// RenderString parses content as a standalone template and executes it.
func (r *Renderer) RenderString(content string, data any, out ...io.Writer) (string, error) {
	tpl, err := template.New("inline").Funcs(r.funcs).Parse(content)
	if err != nil {
		return "", fmt.Errorf("render: parse inline template: %w", err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render: execute inline template: %w", err)
	}
	return emit(buf.String(), out)
}

// Has reports whether a template with the given name is defined.
func (r *Renderer) Has(name string) bool {
	return r.tpl.Lookup(name) != nil
}

func (r *Renderer) fragment(name string, data any) (template.HTML, error) {
	html, err := r.RenderTemplate(name, data)
	if err != nil {
		return "", err
	}
	return template.HTML(html), nil
}

func emit(result string, out []io.Writer) (string, error) {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, result); err != nil {
			return "", fmt.Errorf("render: write output: %w", err)
		}
	}
	return result, nil
}

// PodcastCard renders one episode. The wrapping link points at the YouTube
// video when the record carries an ID and has no href otherwise.
func (r *Renderer) PodcastCard(rec content.Record) (template.HTML, error) {
	return r.fragment(templatePodcastCard, rec)
}

// FeatureCard renders one homepage feature column.
func (r *Renderer) FeatureCard(rec content.Record) (template.HTML, error) {
	return r.fragment(templateFeatureCard, rec)
}

// Card dispatches on the record kind.
func (r *Renderer) Card(rec content.Record) (template.HTML, error) {
	switch rec.Kind {
	case content.KindEpisode:
		return r.PodcastCard(rec)
	case content.KindFeature:
		return r.FeatureCard(rec)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
}

// Cards renders every record in order. The result always has the same length
// as recs.
func (r *Renderer) Cards(recs []content.Record) ([]template.HTML, error) {
	out := make([]template.HTML, 0, len(recs))
	for i, rec := range recs {
		card, err := r.Card(rec)
		if err != nil {
			return nil, fmt.Errorf("render: card %d: %w", i, err)
		}
		out = append(out, card)
	}
	return out, nil
}
