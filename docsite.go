// Package docsite builds the Weaviate documentation and marketing site from a
// declarative configuration, YAML record files and markdown sources.
package docsite

import (
	"context"
	"fmt"
	"net"
	"strconv"

	staticcmd "github.com/goliatone/go-docsite/internal/commands/static"
	"github.com/goliatone/go-docsite/internal/devserver"
	"github.com/goliatone/go-docsite/internal/di"
	"github.com/goliatone/go-docsite/internal/generator"
	"github.com/goliatone/go-docsite/internal/linkcheck"
	"github.com/goliatone/go-docsite/internal/logging"
	"github.com/goliatone/go-docsite/internal/siteconfig"
)

// Config exports the site configuration.
type Config = siteconfig.Config

// LoadOptions exports the configuration loader options.
type LoadOptions = siteconfig.LoadOptions

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// BuildOptions exports the generator build options.
type BuildOptions = generator.BuildOptions

// BuildResult exports the generator build summary.
type BuildResult = generator.BuildResult

// LinkReport exports the broken link report.
type LinkReport = linkcheck.Report

// ErrBrokenLinks is wrapped by build and check errors when internal links do
// not resolve.
var ErrBrokenLinks = linkcheck.ErrBrokenLinks

// DefaultConfig returns the configuration that reproduces the Weaviate site.
func DefaultConfig() Config {
	return siteconfig.DefaultConfig()
}

// LoadConfig reads docsite.yaml, the environment and overrides.
func LoadConfig(opts LoadOptions) (*Config, error) {
	return siteconfig.Load(opts)
}

// Module represents the top level site runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg *Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the configuration the module was built with.
func (m *Module) Config() *Config {
	return m.container.Config
}

// Generator returns the configured generator service.
func (m *Module) Generator() GeneratorService {
	return m.container.GeneratorService()
}

// Build runs the build command and returns its summary. The result may be
// non-nil together with an error.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	var result *BuildResult
	err := m.container.BuildHandler().Execute(ctx, staticcmd.BuildSiteCommand{
		Locales: opts.Locales,
		Force:   opts.Force,
		DryRun:  opts.DryRun,
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			result = env.Result
		},
	})
	return result, err
}

// Clean removes generated output and resets the build manifest.
func (m *Module) Clean(ctx context.Context) error {
	return m.container.CleanHandler().Execute(ctx, staticcmd.CleanSiteCommand{})
}

// CheckLinks renders the site without writing and reports broken internal links.
func (m *Module) CheckLinks(ctx context.Context) (LinkReport, error) {
	var report LinkReport
	err := m.container.CheckLinksHandler().Execute(ctx, staticcmd.CheckLinksCommand{
		ReportCallback: func(r linkcheck.Report) {
			report = r
		},
	})
	return report, err
}

// Serve builds the site, serves the output directory on port and rebuilds
// when source files change. A zero port uses server.port. It blocks until ctx
// is cancelled.
func (m *Module) Serve(ctx context.Context, port int) error {
	cfg := m.container.Config
	if port <= 0 {
		port = cfg.Server.Port
	}
	sourceDir := cfg.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}
	logger := logging.ServerLogger(m.container.LoggerProvider())
	srv, err := devserver.New(devserver.Options{
		Addr:      net.JoinHostPort(cfg.Server.Host, strconv.Itoa(port)),
		OutputDir: cfg.Build.OutputDir,
		WatchDirs: []string{sourceDir},
		Debounce:  cfg.Server.Debounce,
		Logger:    logger,
		Rebuild: func(ctx context.Context) error {
			result, err := m.Build(ctx, BuildOptions{})
			if result != nil {
				logger.Info("build summary",
					"pages_built", result.PagesBuilt,
					"pages_skipped", result.PagesSkipped,
					"duration_ms", result.Duration.Milliseconds(),
				)
			}
			return err
		},
	})
	if err != nil {
		return fmt.Errorf("docsite: serve: %w", err)
	}
	return srv.Run(ctx)
}

// Close flushes buffered log output.
func (m *Module) Close() error {
	return m.container.Close()
}
