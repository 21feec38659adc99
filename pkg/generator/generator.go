// Package generator exposes the static site build pipeline for hosts that
// assemble their own sites. Use NewService with Config and Dependencies, or
// ConfigFromSite to derive the settings from a docsite configuration.
package generator

import (
	internal "github.com/goliatone/go-docsite/internal/generator"
	"github.com/goliatone/go-docsite/pkg/interfaces"
)

type (
	Service          = internal.Service
	SiteAssembler    = internal.SiteAssembler
	Config           = internal.Config
	ChromeConfig     = internal.ChromeConfig
	FeedsConfig      = internal.FeedsConfig
	FeedConfig       = internal.FeedConfig
	ThemingConfig    = internal.ThemingConfig
	BuildOptions     = internal.BuildOptions
	BuildResult      = internal.BuildResult
	RenderedPage     = internal.RenderedPage
	RenderDiagnostic = internal.RenderDiagnostic
	Dependencies     = internal.Dependencies
	Manifest         = internal.Manifest
	ManifestPage     = internal.ManifestPage
	ManifestAsset    = internal.ManifestAsset
	ManifestStore    = internal.ManifestStore
)

var ErrServiceDisabled = internal.ErrServiceDisabled

const DefaultManifestPath = internal.DefaultManifestPath

// NewService wires a static site generator with the supplied configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	return internal.NewService(cfg, deps)
}

// NewDisabledService returns a Service whose operations fail with ErrServiceDisabled.
func NewDisabledService() Service {
	return internal.NewDisabledService()
}

// NewStorageManifestStore keeps the build manifest as a JSON file in provider.
func NewStorageManifestStore(provider interfaces.StorageProvider, target string) ManifestStore {
	return internal.NewStorageManifestStore(provider, target)
}

// NewBoltManifestStore keeps the build manifest in a bbolt database at path.
func NewBoltManifestStore(path string) ManifestStore {
	return internal.NewBoltManifestStore(path)
}
