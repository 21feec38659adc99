package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-docsite/internal/linkcheck"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/site"
	"github.com/goliatone/go-docsite/internal/siteconfig"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled  = errors.New("generator: service disabled")
	errRendererRequired = errors.New("generator: template renderer is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
	// CheckLinks renders every page in memory and reports links to routes
	// the build would not produce. The error wraps linkcheck.ErrBrokenLinks
	// when any are found.
	CheckLinks(ctx context.Context) (linkcheck.Report, error)
}

// SiteAssembler produces one site per requested locale, in request order.
type SiteAssembler interface {
	Assemble(ctx context.Context, locales ...string) ([]*site.Site, error)
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	Title       string
	Description string
	// SiteURL is the absolute origin without the base path.
	SiteURL string
	// BasePath prefixes every generated href.
	BasePath      string
	DefaultLocale string
	Locales       []string
	Chrome        ChromeConfig
	Theming       ThemingConfig
	Feeds         FeedsConfig
	// OnBrokenLinks defaults to throw.
	OnBrokenLinks   siteconfig.Policy
	CleanBuild      bool
	Incremental     bool
	CopyAssets      bool
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeeds   bool
	Workers         int
	// ManifestPath is relative to the storage root.
	ManifestPath string
}

// ChromeConfig lists head assets shared by every page.
type ChromeConfig struct {
	Favicon       string
	CodeTheme     string
	CodeDarkTheme string
	Stylesheets   []string
}

type FeedsConfig struct {
	Blog    FeedConfig
	Podcast FeedConfig
}

// FeedConfig describes one RSS/Atom pair. Route is the directory the feed
// files are written to.
type FeedConfig struct {
	Enabled     bool
	Route       string
	Title       string
	Description string
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	Locales []string
	DryRun  bool
	// Force renders pages the manifest reports as unchanged.
	Force bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt    int
	PagesSkipped  int
	AssetsBuilt   int
	AssetsSkipped int
	FeedsBuilt    int
	Removed       int
	Locales       []string
	Duration      time.Duration
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Links         linkcheck.Report
	Errors        []error
	DryRun        bool
}

// Dependencies lists the services required by the generator.
type Dependencies struct {
	Site     SiteAssembler
	Renderer interfaces.TemplateRenderer
	// Storage is rooted at the output directory.
	Storage interfaces.StorageProvider
	// Static is copied verbatim to the output root.
	Static fs.FS
	// ThemeFiles overrides the theme directory from Config.Theming.
	ThemeFiles fs.FS
	Manifests  ManifestStore
	Logger     interfaces.Logger
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	if deps.Manifests == nil {
		deps.Manifests = NewStorageManifestStore(deps.Storage, cfg.ManifestPath)
	}
	svc := &service{
		cfg:    cfg,
		deps:   deps,
		now:    time.Now,
		logger: deps.Logger,
	}
	if cfg.Theming.enabled() || deps.ThemeFiles != nil {
		var loader themeManifestLoader
		if deps.ThemeFiles != nil {
			loader = fsysThemeManifestLoader{fsys: deps.ThemeFiles}
		}
		svc.themes = newThemeSelector(cfg.Theming, loader)
	}
	return svc
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

// ConfigFromSite maps the declarative site description onto generator
// settings.
func ConfigFromSite(cfg *siteconfig.Config) Config {
	var stylesheets []string
	if css := strings.TrimSpace(cfg.Theme.CustomCSS); css != "" {
		stylesheets = append(stylesheets, css)
	}
	return Config{
		Title:         cfg.Title,
		Description:   cfg.Tagline,
		SiteURL:       cfg.URL,
		BasePath:      cfg.BaseURL,
		DefaultLocale: cfg.I18N.DefaultLocale,
		Locales:       append([]string(nil), cfg.I18N.Locales...),
		Chrome: ChromeConfig{
			Favicon:       cfg.Favicon,
			CodeTheme:     cfg.Theme.CodeTheme,
			CodeDarkTheme: cfg.Theme.CodeDarkTheme,
			Stylesheets:   stylesheets,
		},
		Theming: ThemingConfig{
			Dir:               cfg.Path(cfg.Theme.Dir),
			DefaultTheme:      cfg.Theme.Name,
			DefaultVariant:    cfg.Theme.Variant,
			CSSVariablePrefix: cfg.Theme.CSSPrefix,
		},
		Feeds: FeedsConfig{
			Blog: FeedConfig{
				Enabled:     cfg.Blog.Feed,
				Route:       cfg.Blog.RouteBasePath,
				Title:       strings.TrimSpace(cfg.Title + " " + cfg.Blog.Title),
				Description: cfg.Blog.Description,
			},
			Podcast: FeedConfig{
				Enabled:     cfg.Podcast.Feed,
				Route:       cfg.Podcast.RouteBasePath,
				Title:       cfg.Podcast.Heading,
				Description: cfg.Podcast.Intro,
			},
		},
		OnBrokenLinks:   cfg.OnBrokenLinks,
		CleanBuild:      cfg.Build.Clean,
		Incremental:     cfg.Build.Incremental,
		CopyAssets:      true,
		GenerateSitemap: cfg.Build.Sitemap,
		GenerateRobots:  cfg.Build.Robots,
		GenerateFeeds:   cfg.Build.Feeds,
		Workers:         cfg.Build.Workers,
		ManifestPath:    cfg.Build.ManifestPath,
	}
}

type service struct {
	cfg    Config
	deps   Dependencies
	now    func() time.Time
	logger interfaces.Logger
	themes *themeSelector
}

type disabledService struct{}

// renderScope is shared read-only by render workers.
type renderScope struct {
	buildCtx *BuildContext
	sites    map[*site.Site]SiteMetadata
	theme    ThemeContext
	manifest *Manifest
	skip     bool
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	return s.build(ctx, opts, s.cfg.OnBrokenLinks)
}

func (s *service) CheckLinks(ctx context.Context) (linkcheck.Report, error) {
	result, err := s.build(ctx, BuildOptions{DryRun: true, Force: true}, siteconfig.PolicyIgnore)
	if err != nil {
		return linkcheck.Report{}, err
	}
	return result.Links, result.Links.Err()
}

func (s *service) build(ctx context.Context, opts BuildOptions, policy siteconfig.Policy) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.deps.Renderer == nil {
		return nil, errRendererRequired
	}

	start := time.Now()
	if s.cfg.CleanBuild && !opts.DryRun {
		if err := s.Clean(ctx); err != nil {
			return nil, err
		}
	}

	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		Locales:     make([]string, 0, len(buildCtx.Locales)),
		DryRun:      opts.DryRun,
		Diagnostics: make([]RenderDiagnostic, 0, len(buildCtx.Pages)),
	}
	for _, locale := range buildCtx.Locales {
		result.Locales = append(result.Locales, locale.Code)
	}
	finish := func(errs []error) (*BuildResult, error) {
		result.Duration = time.Since(start)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			return result, errors.Join(errs...)
		}
		return result, nil
	}

	manifest, err := s.deps.Manifests.Load(ctx)
	if err != nil {
		s.logger.Warn("build manifest unreadable, starting fresh", "error", err)
	}
	if manifest == nil {
		manifest = NewManifest()
	}

	scope := &renderScope{
		buildCtx: buildCtx,
		sites:    make(map[*site.Site]SiteMetadata, len(buildCtx.Sites)),
		theme:    buildThemeContext(buildCtx.Theme, s.cfg.Theming),
		manifest: manifest,
		skip:     s.cfg.Incremental && !opts.Force,
	}
	for _, st := range buildCtx.Sites {
		scope.sites[st] = s.siteMetadata(buildCtx, st)
	}

	var (
		mu          sync.Mutex
		rendered    = make([]RenderedPage, 0, len(buildCtx.Pages))
		errorsSlice []error
		pageKeys    = map[string]struct{}{}
	)

	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.diagnostic.PageID != uuid.Nil {
			pageKeys[pageKey(outcome.diagnostic.PageID, outcome.diagnostic.Locale)] = struct{}{}
		}
		if outcome.err != nil {
			errorsSlice = append(errorsSlice, outcome.err)
			return
		}
		if outcome.skipped {
			result.PagesSkipped++
			return
		}
		result.PagesBuilt++
		rendered = append(rendered, outcome.page)
	}

	workerCount := s.effectiveWorkerCount(len(buildCtx.Locales))
	if workerCount <= 1 || len(buildCtx.Pages) <= 1 {
		for _, page := range buildCtx.Pages {
			if err := ctx.Err(); err != nil {
				collect(cancelledOutcome(page, err))
				return finish(errorsSlice)
			}
			collect(s.renderPage(ctx, scope, page))
		}
	} else if err := s.renderConcurrently(ctx, scope, workerCount, collect); err != nil {
		errorsSlice = append(errorsSlice, err)
	}

	sort.Slice(rendered, func(i, j int) bool { return rendered[i].order < rendered[j].order })
	sort.Slice(result.Diagnostics, func(i, j int) bool {
		return result.Diagnostics[i].order < result.Diagnostics[j].order
	})
	result.Rendered = rendered
	if len(errorsSlice) > 0 {
		return finish(errorsSlice)
	}

	result.Links = s.checkLinks(buildCtx, rendered)
	if err := s.applyLinkPolicy(policy, result.Links); err != nil {
		return finish([]error{err})
	}

	if opts.DryRun {
		return finish(nil)
	}

	writer := newArtifactWriter(s.deps.Storage)
	dirCache := map[string]struct{}{}
	if err := s.persistPages(ctx, writer, dirCache, rendered); err != nil {
		errorsSlice = append(errorsSlice, err)
	}

	assetKeys := map[string]struct{}{}
	if s.cfg.CopyAssets {
		summary, err := s.copyAssets(ctx, writer, dirCache, scope, assetKeys)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		result.AssetsBuilt += summary.Built
		result.AssetsSkipped += summary.Skipped
	}

	if s.cfg.GenerateFeeds {
		written, err := s.writeFeeds(ctx, writer, dirCache, buildCtx)
		if err != nil {
			errorsSlice = append(errorsSlice, err)
		}
		result.FeedsBuilt = written
	}

	if s.cfg.GenerateSitemap {
		if err := s.writeSitemap(ctx, writer, dirCache, buildCtx, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if s.cfg.GenerateRobots {
		if err := s.writeRobots(ctx, writer, dirCache); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	if len(errorsSlice) == 0 {
		manifest.GeneratedAt = buildCtx.GeneratedAt
		for _, page := range rendered {
			manifest.setPage(ManifestPage{
				PageID:       page.PageID.String(),
				Locale:       page.Locale,
				Route:        page.Route,
				URL:          page.URL,
				Output:       page.Output,
				Template:     page.Template,
				Hash:         page.Metadata.Hash,
				Checksum:     page.Checksum,
				LastModified: page.Metadata.LastModified,
				RenderedAt:   buildCtx.GeneratedAt,
			})
		}
		if !buildCtx.Partial {
			stale := manifest.prunePages(pageKeys)
			if s.cfg.CopyAssets {
				stale = append(stale, manifest.pruneAssets(assetKeys)...)
			}
			for _, output := range stale {
				if err := writer.Remove(ctx, output); err != nil {
					errorsSlice = append(errorsSlice, err)
					continue
				}
				result.Removed++
			}
		}
		if err := s.deps.Manifests.Save(ctx, manifest); err != nil {
			errorsSlice = append(errorsSlice, err)
		}
	}

	res, err := finish(errorsSlice)
	if err == nil {
		s.logger.Info("build completed",
			"pages_built", res.PagesBuilt,
			"pages_skipped", res.PagesSkipped,
			"assets_built", res.AssetsBuilt,
			"feeds_built", res.FeedsBuilt,
			"removed", res.Removed,
			"locales", strings.Join(res.Locales, ","),
			"duration", res.Duration.String(),
		)
	}
	return res, err
}

func (s *service) siteMetadata(buildCtx *BuildContext, st *site.Site) SiteMetadata {
	return SiteMetadata{
		Title:         s.cfg.Title,
		URL:           strings.TrimRight(strings.TrimSpace(s.cfg.SiteURL), "/"),
		BaseURL:       strings.TrimRight(strings.TrimSpace(s.cfg.BasePath), "/"),
		DefaultLocale: buildCtx.DefaultLocale,
		Locales:       append([]LocaleSpec(nil), buildCtx.Locales...),
		HomeURL:       st.HomeURL,
		Favicon:       s.cfg.Chrome.Favicon,
		CodeTheme:     s.cfg.Chrome.CodeTheme,
		CodeDarkTheme: s.cfg.Chrome.CodeDarkTheme,
		Stylesheets:   append([]string(nil), s.cfg.Chrome.Stylesheets...),
		Feeds:         s.feedLinks(),
		Navbar:        st.Navbar,
		Footer:        st.Footer,
	}
}

func (s *service) renderConcurrently(
	ctx context.Context,
	scope *renderScope,
	workers int,
	collect func(renderOutcome),
) error {
	grouped := groupPagesByLocale(scope.buildCtx.Pages)
	if len(grouped) == 0 {
		return nil
	}

	jobs := make(chan []*PageData)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batch := range jobs {
				for _, page := range batch {
					if err := ctx.Err(); err != nil {
						collect(cancelledOutcome(page, err))
						continue
					}
					collect(s.renderPage(ctx, scope, page))
				}
			}
		}()
	}

	for _, locale := range scope.buildCtx.Locales {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- grouped[locale.Code]:
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func cancelledOutcome(data *PageData, err error) renderOutcome {
	return renderOutcome{
		diagnostic: RenderDiagnostic{
			PageID: data.Page.ID,
			Locale: data.Locale.Code,
			Route:  data.Page.Route,
			Err:    err,
			order:  data.order,
		},
		err: err,
	}
}

func (s *service) renderPage(ctx context.Context, scope *renderScope, data *PageData) renderOutcome {
	page := data.Page
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			PageID:   page.ID,
			Locale:   data.Locale.Code,
			Route:    page.Route,
			Template: render.LayoutTemplate,
			order:    data.order,
		},
	}

	if err := ctx.Err(); err != nil {
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}

	output := buildOutputPath(page.Route, data.Locale.Code, scope.buildCtx.DefaultLocale)
	if scope.skip && scope.manifest.shouldSkipPage(page.ID, data.Locale.Code, data.Metadata.Hash, output) {
		outcome.skipped = true
		outcome.diagnostic.Skipped = true
		return outcome
	}

	siteMeta := scope.sites[data.Site]
	templateCtx := TemplateContext{
		Site: siteMeta,
		Page: PageRenderingContext{
			Page:     page,
			Locale:   data.Locale,
			Metadata: data.Metadata,
		},
		Build: BuildMetadata{
			GeneratedAt: scope.buildCtx.GeneratedAt,
			Options:     scope.buildCtx.Options,
		},
		Theme:   scope.theme,
		Helpers: newTemplateHelpers(siteMeta.DefaultLocale, data.Locale, siteMeta.BaseURL),
	}

	start := time.Now()
	html, err := s.deps.Renderer.RenderTemplate(render.LayoutTemplate, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render %s (%s): %w", page.URL, data.Locale.Code, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		PageID:   page.ID,
		Kind:     page.Kind,
		Locale:   data.Locale.Code,
		Route:    page.Route,
		URL:      page.URL,
		Output:   output,
		Template: render.LayoutTemplate,
		HTML:     html,
		Metadata: data.Metadata,
		Duration: duration,
		Checksum: computeHashFromString(html),
		order:    data.order,
	}
	return outcome
}

func (s *service) persistPages(
	ctx context.Context,
	writer artifactWriter,
	dirCache map[string]struct{},
	pages []RenderedPage,
) error {
	for i := range pages {
		if err := ensureDir(ctx, writer, dirCache, parentDir(pages[i].Output)); err != nil {
			return err
		}
		metadata := map[string]string{
			"page_id":  pages[i].PageID.String(),
			"route":    pages[i].Route,
			"kind":     string(pages[i].Kind),
			"template": pages[i].Template,
		}
		if s.cfg.Incremental {
			metadata["incremental"] = "true"
		}
		req := writeFileRequest{
			Path:        pages[i].Output,
			Content:     strings.NewReader(pages[i].HTML),
			Size:        int64(len(pages[i].HTML)),
			Locale:      pages[i].Locale,
			Category:    categoryPage,
			ContentType: "text/html; charset=utf-8",
			Checksum:    pages[i].Checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return fmt.Errorf("generator: write %s: %w", pages[i].Output, err)
		}
	}
	return nil
}

// Clean removes generated output and resets the manifest. Storage that can
// wipe its root does so; otherwise the outputs recorded in the manifest and
// the well-known files are removed one by one.
func (s *service) Clean(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	type rootRemover interface {
		RemoveAll(ctx context.Context) error
	}

	if remover, ok := s.deps.Storage.(rootRemover); ok {
		if err := remover.RemoveAll(ctx); err != nil {
			return fmt.Errorf("generator: clean output: %w", err)
		}
	} else {
		manifest, err := s.deps.Manifests.Load(ctx)
		if err != nil {
			s.logger.Warn("build manifest unreadable, cleaning well-known files only", "error", err)
		}
		writer := newArtifactWriter(s.deps.Storage)
		for _, target := range s.cleanTargets(manifest) {
			if err := writer.Remove(ctx, target); err != nil {
				return fmt.Errorf("generator: clean %s: %w", target, err)
			}
		}
	}

	if err := s.deps.Manifests.Reset(ctx); err != nil {
		return fmt.Errorf("generator: reset manifest: %w", err)
	}
	s.logger.Info("output cleaned")
	return nil
}

func (s *service) cleanTargets(manifest *Manifest) []string {
	targets := []string{sitemapFile, robotsFile}
	for _, feed := range s.enabledFeeds() {
		targets = append(targets, feed.rssPath(), feed.atomPath())
	}
	if manifest != nil {
		for _, entry := range manifest.Pages {
			targets = append(targets, entry.Output)
		}
		for _, entry := range manifest.Assets {
			targets = append(targets, entry.Output)
		}
	}
	sort.Strings(targets)
	return targets
}

func (s *service) effectiveWorkerCount(localeCount int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if localeCount > 0 && workers > localeCount {
		return localeCount
	}
	return workers
}

func groupPagesByLocale(pages []*PageData) map[string][]*PageData {
	grouped := make(map[string][]*PageData, len(pages))
	for _, page := range pages {
		if page == nil {
			continue
		}
		code := page.Locale.Code
		grouped[code] = append(grouped[code], page)
	}
	return grouped
}

func ensureDir(ctx context.Context, writer artifactWriter, cache map[string]struct{}, dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" || dir == "." {
		return nil
	}
	if cache != nil {
		if _, ok := cache[dir]; ok {
			return nil
		}
		cache[dir] = struct{}{}
	}
	return writer.EnsureDir(ctx, dir)
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func computeHashFromString(content string) string {
	return computeHash([]byte(content))
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}

func (disabledService) CheckLinks(context.Context) (linkcheck.Report, error) {
	return linkcheck.Report{}, ErrServiceDisabled
}
