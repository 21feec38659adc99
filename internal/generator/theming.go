package generator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
)

// ThemingConfig points the generator at an optional go-theme manifest.
type ThemingConfig struct {
	Dir               string
	DefaultTheme      string
	DefaultVariant    string
	CSSVariablePrefix string
	PartialFallbacks  map[string]string
}

func (c ThemingConfig) enabled() bool {
	return strings.TrimSpace(c.Dir) != ""
}

type themeManifestLoader interface {
	Load(themePath string) (*gotheme.Manifest, error)
}

type fsThemeManifestLoader struct{}

func (fsThemeManifestLoader) Load(themePath string) (*gotheme.Manifest, error) {
	cleaned := filepath.Clean(strings.TrimSpace(themePath))
	if cleaned == "" || cleaned == "." {
		return nil, fmt.Errorf("theme path required")
	}
	return gotheme.LoadDir(os.DirFS(cleaned), ".")
}

// fsysThemeManifestLoader reads the manifest at the root of an injected
// file system and ignores the configured directory.
type fsysThemeManifestLoader struct {
	fsys fs.FS
}

func (l fsysThemeManifestLoader) Load(string) (*gotheme.Manifest, error) {
	return gotheme.LoadDir(l.fsys, ".")
}

type themeSelector struct {
	registry       *gotheme.MemoryRegistry
	loader         themeManifestLoader
	defaultTheme   string
	defaultVariant string

	mu        sync.Mutex
	manifests map[string]*gotheme.Manifest
}

func newThemeSelector(cfg ThemingConfig, loader themeManifestLoader) *themeSelector {
	if loader == nil {
		loader = fsThemeManifestLoader{}
	}
	return &themeSelector{
		registry:       gotheme.NewRegistry(),
		loader:         loader,
		defaultTheme:   strings.TrimSpace(cfg.DefaultTheme),
		defaultVariant: strings.TrimSpace(cfg.DefaultVariant),
		manifests:      map[string]*gotheme.Manifest{},
	}
}

// Selection loads the manifest under dir once and selects name and variant,
// falling back to the configured defaults.
func (s *themeSelector) Selection(dir, name, variant string) (*gotheme.Selection, error) {
	manifest, err := s.ensureManifest(dir, name)
	if err != nil {
		return nil, err
	}

	selector := gotheme.Selector{
		Registry:       s.registry,
		DefaultTheme:   s.defaultTheme,
		DefaultVariant: s.defaultVariant,
	}

	resolvedVariant := strings.TrimSpace(variant)
	if resolvedVariant == "" {
		resolvedVariant = s.defaultVariant
	}

	selection, err := selector.Select(manifest.Name, resolvedVariant)
	if err != nil {
		return nil, fmt.Errorf("select theme %s: %w", manifest.Name, err)
	}
	return selection, nil
}

func (s *themeSelector) ensureManifest(dir, name string) (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manifest, ok := s.manifests[dir]; ok {
		return manifest, nil
	}

	manifest, err := s.loader.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load theme manifest from %s: %w", dir, err)
	}

	normalized := *manifest
	if name = strings.TrimSpace(name); name != "" {
		normalized.Name = name
	}
	if strings.TrimSpace(normalized.Name) == "" {
		normalized.Name = s.defaultTheme
	}
	if normalized.Name == "" {
		return nil, fmt.Errorf("theme name required for manifest registration")
	}

	if err := s.registry.Register(&normalized); err != nil {
		return nil, fmt.Errorf("register theme manifest: %w", err)
	}
	s.manifests[dir] = &normalized
	return &normalized, nil
}

func (s *service) themeSelection() (*gotheme.Selection, error) {
	if s.themes == nil {
		return nil, nil
	}
	return s.themes.Selection(s.cfg.Theming.Dir, s.cfg.Theming.DefaultTheme, s.cfg.Theming.DefaultVariant)
}

// themeFiles opens the theme directory for asset copying.
func (s *service) themeFiles() fs.FS {
	if s.deps.ThemeFiles != nil {
		return s.deps.ThemeFiles
	}
	if !s.cfg.Theming.enabled() {
		return nil
	}
	return os.DirFS(s.cfg.Theming.Dir)
}
