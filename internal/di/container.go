package di

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-docsite/internal/commands"
	staticcmd "github.com/goliatone/go-docsite/internal/commands/static"
	"github.com/goliatone/go-docsite/internal/generator"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/logging/console"
	"github.com/goliatone/go-docsite/internal/logging/gologger"
	"github.com/goliatone/go-docsite/internal/logging/zaplog"
	"github.com/goliatone/go-docsite/internal/render"
	"github.com/goliatone/go-docsite/internal/site"
	"github.com/goliatone/go-docsite/internal/siteconfig"
	"github.com/goliatone/go-docsite/internal/storage"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

// Container wires the site services from a single configuration.
type Container struct {
	Config *siteconfig.Config

	loggerProvider interfaces.LoggerProvider
	storage        interfaces.StorageProvider
	sourceFS       fs.FS
	staticFS       fs.FS
	renderer       *render.Renderer
	markdown       interfaces.MarkdownParser
	manifests      generator.ManifestStore

	assembler    *site.Assembler
	generatorSvc generator.Service

	buildHandler      *staticcmd.BuildSiteHandler
	checkLinksHandler *staticcmd.CheckLinksHandler
	cleanHandler      *staticcmd.CleanSiteHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by logging.provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithStorage overrides the filesystem storage rooted at build.output_dir.
func WithStorage(sp interfaces.StorageProvider) Option {
	return func(c *Container) {
		c.storage = sp
	}
}

// WithSourceFS reads data, docs and blog files from fsys instead of source_dir.
func WithSourceFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.sourceFS = fsys
	}
}

// WithStaticFS overrides the directory copied verbatim into the output.
func WithStaticFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.staticFS = fsys
	}
}

// WithRenderer overrides the default card and layout renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(c *Container) {
		c.renderer = r
	}
}

// WithMarkdownParser overrides the goldmark parser used for docs and blog posts.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		c.markdown = parser
	}
}

// WithManifestStore overrides the store selected by build.manifest_store.
func WithManifestStore(store generator.ManifestStore) Option {
	return func(c *Container) {
		c.manifests = store
	}
}

// WithGeneratorService replaces the generator, mainly for tests.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		c.generatorSvc = svc
	}
}

// NewContainer validates cfg and wires every service. A nil cfg uses
// siteconfig.DefaultConfig.
func NewContainer(cfg *siteconfig.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		defaults := siteconfig.DefaultConfig()
		cfg = &defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureRenderer(); err != nil {
		return nil, err
	}
	c.configureStorage()
	if err := c.configureGenerator(); err != nil {
		return nil, err
	}
	c.configureCommands()

	logging.ModuleLogger(c.loggerProvider, "docsite.di").Debug("container.configured",
		"logging_provider", cfg.Logging.Provider,
		"manifest_store", cfg.Build.ManifestStore,
		"output_dir", cfg.Build.OutputDir,
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	provider, err := newLoggerProvider(c.Config.Logging)
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func newLoggerProvider(cfg siteconfig.LoggingConfig) (interfaces.LoggerProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "console":
		return console.NewProvider(console.Options{MinLevel: console.ParseLevel(cfg.Level)}), nil
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:  cfg.Level,
			Format: cfg.Format,
			Focus:  cfg.Focus,
		})
		if err != nil {
			return nil, fmt.Errorf("di: logging: %w", err)
		}
		return provider, nil
	case "zap":
		return zaplog.NewProvider(zaplog.Config{
			Level:  cfg.Level,
			Format: cfg.Format,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", siteconfig.ErrLoggingProviderUnknown, cfg.Provider)
	}
}

func (c *Container) configureRenderer() error {
	if c.renderer != nil {
		return nil
	}
	r, err := render.New()
	if err != nil {
		return fmt.Errorf("di: renderer: %w", err)
	}
	c.renderer = r
	return nil
}

func (c *Container) configureStorage() {
	if c.storage == nil {
		c.storage = storage.NewFilesystem(c.Config.Build.OutputDir)
	}
	if c.staticFS == nil {
		dir := c.Config.Path(c.Config.Build.StaticDir)
		if c.sourceFS != nil {
			if info, err := fs.Stat(c.sourceFS, c.Config.Build.StaticDir); err == nil && info.IsDir() {
				sub, err := fs.Sub(c.sourceFS, c.Config.Build.StaticDir)
				if err == nil {
					c.staticFS = sub
				}
			}
		} else if info, err := os.Stat(dir); err == nil && info.IsDir() {
			c.staticFS = os.DirFS(dir)
		}
	}
	if c.manifests == nil && strings.EqualFold(c.Config.Build.ManifestStore, "bolt") {
		c.manifests = generator.NewBoltManifestStore(boltManifestPath(c.Config.Build))
	}
}

// boltManifestPath keeps the bolt database next to the output directory so a
// clean build that removes the output tree does not hold an open file in it.
func boltManifestPath(cfg siteconfig.BuildConfig) string {
	name := cfg.ManifestPath
	if name == "" {
		name = generator.DefaultManifestPath
	}
	if filepath.IsAbs(name) {
		return name
	}
	if ext := filepath.Ext(name); ext == ".json" {
		name = strings.TrimSuffix(name, ext) + ".db"
	}
	return filepath.Join(filepath.Dir(filepath.Clean(cfg.OutputDir)), name)
}

func (c *Container) configureGenerator() error {
	if c.generatorSvc != nil {
		return nil
	}
	assembler, err := site.NewAssembler(c.Config, site.Dependencies{
		Files:    c.sourceFS,
		Renderer: c.renderer,
		Markdown: c.markdown,
		Logger:   logging.SiteLogger(c.loggerProvider),
	})
	if err != nil {
		return fmt.Errorf("di: site assembler: %w", err)
	}
	c.assembler = assembler
	c.generatorSvc = generator.NewService(generator.ConfigFromSite(c.Config), generator.Dependencies{
		Site:      assembler,
		Renderer:  c.renderer,
		Storage:   c.storage,
		Static:    c.staticFS,
		Manifests: c.manifests,
		Logger:    logging.GeneratorLogger(c.loggerProvider),
	})
	return nil
}

func (c *Container) configureCommands() {
	logger := commands.CommandLogger(c.loggerProvider, "static")
	gates := staticcmd.FeatureGates{GeneratorEnabled: func() bool { return c.generatorSvc != nil }}
	c.buildHandler = staticcmd.NewBuildSiteHandler(c.generatorSvc, logger, gates)
	c.checkLinksHandler = staticcmd.NewCheckLinksHandler(c.generatorSvc, logger, gates)
	c.cleanHandler = staticcmd.NewCleanSiteHandler(c.generatorSvc, logger, gates)
}

// LoggerProvider returns the configured logging provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// StorageProvider returns the artifact store rooted at the output directory.
func (c *Container) StorageProvider() interfaces.StorageProvider {
	return c.storage
}

// Renderer returns the card and layout renderer.
func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

// Assembler returns the site assembler. It is nil when the generator was
// overridden with WithGeneratorService.
func (c *Container) Assembler() *site.Assembler {
	return c.assembler
}

// GeneratorService returns the build pipeline.
func (c *Container) GeneratorService() generator.Service {
	return c.generatorSvc
}

// BuildHandler returns the command handler for site builds.
func (c *Container) BuildHandler() *staticcmd.BuildSiteHandler {
	return c.buildHandler
}

// CheckLinksHandler returns the command handler for link checks.
func (c *Container) CheckLinksHandler() *staticcmd.CheckLinksHandler {
	return c.checkLinksHandler
}

// CleanHandler returns the command handler that removes generated output.
func (c *Container) CleanHandler() *staticcmd.CleanSiteHandler {
	return c.cleanHandler
}

// Close flushes loggers that buffer output.
func (c *Container) Close() error {
	if syncer, ok := c.loggerProvider.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}
