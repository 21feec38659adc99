package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-docsite/internal/content"
	"github.com/goliatone/go-docsite/internal/identity"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/markdown"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/siteconfig"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

var (
	ErrConfigRequired   = errors.New("site: config is required")
	ErrRendererRequired = errors.New("site: renderer is required")
	// ErrBrokenMarkdownLinks is returned when markdown links point at missing
	// files and on_broken_markdown_links is throw.
	ErrBrokenMarkdownLinks = errors.New("site: broken markdown links")
	ErrUnknownLocale       = errors.New("site: unknown locale")
)

// Dependencies are the collaborators of an Assembler. Files is rooted at the
// configured source directory; when nil the directory is opened from disk.
type Dependencies struct {
	Files    fs.FS
	Renderer *render.Renderer
	Markdown interfaces.MarkdownParser
	Logger   interfaces.Logger
}

// Assembler builds Site values from source files.
type Assembler struct {
	cfg      *siteconfig.Config
	files    fs.FS
	renderer *render.Renderer
	markdown interfaces.MarkdownParser
	records  *content.Loader
	docs     *markdown.Loader
	logger   interfaces.Logger
}

func NewAssembler(cfg *siteconfig.Config, deps Dependencies) (*Assembler, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	if deps.Renderer == nil {
		return nil, ErrRendererRequired
	}
	files := deps.Files
	if files == nil {
		root := cfg.SourceDir
		if root == "" {
			root = "."
		}
		files = os.DirFS(root)
	}
	parser := deps.Markdown
	if parser == nil {
		parser = markdown.NewGoldmarkParser(interfaces.ParseOptions{})
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Assembler{
		cfg:      cfg,
		files:    files,
		renderer: deps.Renderer,
		markdown: parser,
		records:  content.NewLoader(parser),
		docs:     markdown.NewLoader(files, cfg.SourceDir),
		logger:   logger,
	}, nil
}

// sources holds everything read from disk. It is shared by every locale.
type sources struct {
	features []content.Record
	episodes []content.Record
	docs     []*interfaces.Document
	posts    []*interfaces.Document
}

// Assemble loads the sources once and builds one Site per locale. With no
// locales every configured locale is assembled.
func (a *Assembler) Assemble(ctx context.Context, locales ...string) ([]*Site, error) {
	if len(locales) == 0 {
		locales = a.cfg.I18N.Locales
	}
	for _, locale := range locales {
		if !a.cfg.HasLocale(locale) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
		}
	}

	src, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	sites := make([]*Site, 0, len(locales))
	for _, locale := range locales {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		site, err := a.assemble(ctx, src, locale)
		if err != nil {
			return nil, fmt.Errorf("assemble locale %s: %w", locale, err)
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func (a *Assembler) load(ctx context.Context) (*sources, error) {
	var src sources
	var err error

	if src.features, err = a.loadRecords(a.cfg.Features.Data, content.KindFeature); err != nil {
		return nil, err
	}
	if src.episodes, err = a.loadRecords(a.cfg.Podcast.Data, content.KindEpisode); err != nil {
		return nil, err
	}
	if src.docs, err = a.loadMarkdown(ctx, a.cfg.Docs.Path); err != nil {
		return nil, err
	}
	if src.posts, err = a.loadMarkdown(ctx, a.cfg.Blog.Path); err != nil {
		return nil, err
	}
	return &src, nil
}

func (a *Assembler) loadRecords(name string, kind content.Kind) ([]content.Record, error) {
	if name == "" {
		return nil, nil
	}
	records, err := a.records.LoadFile(a.files, name, kind)
	if errors.Is(err, fs.ErrNotExist) {
		a.logger.Warn("record data file not found", "path", name, "kind", string(kind))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for idx, rec := range records {
		if missing := rec.MissingFields(); len(missing) > 0 {
			a.logger.Warn("record has empty fields",
				"kind", string(kind),
				"index", idx,
				"title", rec.Title,
				"missing", strings.Join(missing, ","),
			)
		}
	}
	return records, nil
}

func (a *Assembler) loadMarkdown(ctx context.Context, dir string) ([]*interfaces.Document, error) {
	if dir == "" {
		return nil, nil
	}
	docs, err := a.docs.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	published := docs[:0]
	for _, doc := range docs {
		if doc.FrontMatter.Draft {
			a.logger.Debug("skipping draft", "source", doc.FilePath)
			continue
		}
		published = append(published, doc)
	}
	return published, nil
}

func (a *Assembler) assemble(ctx context.Context, src *sources, locale string) (*Site, error) {
	router := NewRouter(a.cfg.BaseURL, locale, a.cfg.I18N.DefaultLocale)
	site := &Site{
		Locale:        locale,
		DefaultLocale: locale == a.cfg.I18N.DefaultLocale,
		Router:        router,
		HomeURL:       router.Root(),
		Features:      src.features,
		Episodes:      src.episodes,
	}

	links := newLinkIndex(router)
	docs := a.planDocs(src.docs, links)
	posts := a.planPosts(src.posts, links)

	home, err := a.homePage(router, src.features, docs)
	if err != nil {
		return nil, err
	}
	podcast, err := a.podcastPage(router, src.episodes)
	if err != nil {
		return nil, err
	}
	site.Pages = append(site.Pages, home, podcast)

	docPages, err := a.docPages(ctx, docs, links)
	if err != nil {
		return nil, err
	}
	site.Pages = append(site.Pages, docPages...)

	postPages, err := a.postPages(ctx, posts, links)
	if err != nil {
		return nil, err
	}
	list, err := a.blogListPage(router, postPages)
	if err != nil {
		return nil, err
	}
	site.Pages = append(site.Pages, list)
	site.Pages = append(site.Pages, postPages...)
	site.Posts = postPages

	for _, page := range site.Pages {
		page.ID = identity.PageUUID(locale, page.Route)
	}

	site.Navbar = a.navbar(router, docs)
	site.Footer = a.footer(router)
	site.BrokenMarkdownLinks = links.broken

	if err := a.applyMarkdownPolicy(site); err != nil {
		return nil, err
	}
	return site, nil
}

func (a *Assembler) applyMarkdownPolicy(site *Site) error {
	if len(site.BrokenMarkdownLinks) == 0 {
		return nil
	}
	switch a.cfg.OnBrokenMarkdownLinks {
	case siteconfig.PolicyIgnore:
		return nil
	case siteconfig.PolicyWarn:
		for _, link := range site.BrokenMarkdownLinks {
			a.logger.Warn("broken markdown link",
				"locale", site.Locale,
				"source", link.Source,
				"target", link.Target,
			)
		}
		return nil
	default:
		details := make([]string, 0, len(site.BrokenMarkdownLinks))
		for _, link := range site.BrokenMarkdownLinks {
			details = append(details, link.Source+" -> "+link.Target)
		}
		return fmt.Errorf("%w: %s", ErrBrokenMarkdownLinks, strings.Join(details, "; "))
	}
}

// documentTitle appends the site title to a page title.
func (a *Assembler) documentTitle(title string) string {
	if title == "" {
		return a.cfg.Title
	}
	return title + " | " + a.cfg.Title
}
