package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-docsite/internal/site"
)

var errSiteAssemblerRequired = errors.New("generator: site assembler is required")

// BuildContext aggregates the localized page data required to execute a static build.
type BuildContext struct {
	GeneratedAt   time.Time
	DefaultLocale string
	Locales       []LocaleSpec
	Sites         []*site.Site
	Pages         []*PageData
	Theme         *gotheme.Selection
	Options       BuildOptions
	// Partial is true when only some locales are built.
	Partial bool
}

// LocaleSpec captures resolved locale information for a build.
type LocaleSpec struct {
	Code      string
	IsDefault bool
}

// PageData pairs an assembled page with the site it belongs to.
type PageData struct {
	Site     *site.Site
	Page     *site.Page
	Locale   LocaleSpec
	Metadata DependencyMetadata

	order int
}

// DependencyMetadata tracks hashes and timestamps for incremental builds.
type DependencyMetadata struct {
	Sources      map[string]string
	Hash         string
	LastModified time.Time
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	if s.deps.Site == nil {
		return nil, errSiteAssemblerRequired
	}

	locales, partial := s.resolveLocales(opts)
	codes := make([]string, 0, len(locales))
	for _, locale := range locales {
		codes = append(codes, locale.Code)
	}

	sites, err := s.deps.Site.Assemble(ctx, codes...)
	if err != nil {
		return nil, fmt.Errorf("generator: assemble site: %w", err)
	}

	selection, err := s.themeSelection()
	if err != nil {
		return nil, err
	}

	buildCtx := &BuildContext{
		GeneratedAt:   s.now().UTC(),
		DefaultLocale: s.defaultLocale(),
		Locales:       locales,
		Sites:         sites,
		Theme:         selection,
		Options:       opts,
		Partial:       partial,
	}

	themeHash := ""
	if selection != nil {
		themeHash = hashSources(selection.CSSVariables(s.cfg.Theming.CSSVariablePrefix))
	}

	order := 0
	for idx, st := range sites {
		locale := locales[idx]
		chrome := hashSources(map[string]string{
			"site":   s.siteFingerprint(),
			"navbar": hashNavbar(st.Navbar),
			"footer": hashFooter(st.Footer),
			"theme":  themeHash,
		})
		for _, page := range st.Pages {
			buildCtx.Pages = append(buildCtx.Pages, &PageData{
				Site:     st,
				Page:     page,
				Locale:   locale,
				Metadata: computeDependencyMetadata(page, chrome),
				order:    order,
			})
			order++
		}
	}
	return buildCtx, nil
}

func (s *service) defaultLocale() string {
	if code := strings.TrimSpace(s.cfg.DefaultLocale); code != "" {
		return code
	}
	return "en"
}

// resolveLocales returns the locales to build with the default first. The
// second value reports whether the selection is narrower than the configured
// locale set.
func (s *service) resolveLocales(opts BuildOptions) ([]LocaleSpec, bool) {
	defaultLocale := s.defaultLocale()

	requested := opts.Locales
	if len(requested) == 0 {
		requested = append([]string{defaultLocale}, s.cfg.Locales...)
	}

	seen := map[string]struct{}{}
	var specs []LocaleSpec
	for _, candidate := range requested {
		code := strings.TrimSpace(candidate)
		if code == "" {
			continue
		}
		lower := strings.ToLower(code)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		specs = append(specs, LocaleSpec{Code: code, IsDefault: strings.EqualFold(code, defaultLocale)})
	}
	if len(specs) == 0 {
		specs = []LocaleSpec{{Code: defaultLocale, IsDefault: true}}
	}
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].IsDefault && !specs[j].IsDefault
	})

	configured := map[string]struct{}{strings.ToLower(defaultLocale): {}}
	for _, code := range s.cfg.Locales {
		configured[strings.ToLower(strings.TrimSpace(code))] = struct{}{}
	}
	return specs, len(specs) < len(configured)
}

func (s *service) siteFingerprint() string {
	parts := []string{
		s.cfg.Title,
		s.cfg.SiteURL,
		s.cfg.BasePath,
		s.cfg.Chrome.Favicon,
		s.cfg.Chrome.CodeTheme,
		s.cfg.Chrome.CodeDarkTheme,
		hashStrings(s.cfg.Chrome.Stylesheets),
	}
	for _, feed := range s.feedLinks() {
		parts = append(parts, feed.Path, feed.Title)
	}
	return joinParts(parts...)
}

func computeDependencyMetadata(page *site.Page, chrome string) DependencyMetadata {
	sources := map[string]string{
		"page": joinParts(
			page.ID.String(),
			string(page.Kind),
			page.Route,
			page.URL,
			page.Title,
			page.Description,
		),
		"body":   computeHashFromString(string(page.Body)),
		"chrome": chrome,
	}
	if page.Checksum != "" {
		sources["source"] = page.Checksum
	}

	return DependencyMetadata{
		Sources:      sources,
		Hash:         hashSources(sources),
		LastModified: page.LastModified,
	}
}

func hashNavbar(nav site.Navbar) string {
	values := []string{nav.Title, nav.Logo.Src, nav.Logo.Alt}
	for _, link := range nav.Left {
		values = append(values, "left", hashLink(link))
	}
	for _, link := range nav.Right {
		values = append(values, "right", hashLink(link))
	}
	return hashStrings(values)
}

func hashFooter(footer site.Footer) string {
	values := []string{footer.Style, footer.Copyright}
	for _, group := range footer.Groups {
		values = append(values, "group", group.Title)
		for _, link := range group.Items {
			values = append(values, hashLink(link))
		}
	}
	return hashStrings(values)
}

func hashLink(link site.NavLink) string {
	return joinParts(link.Label, link.URL, strconv.FormatBool(link.External))
}

func joinParts(parts ...string) string {
	return strings.Join(parts, "|")
}

func hashStrings(values []string) string {
	if len(values) == 0 {
		return ""
	}
	hasher := sha256.New()
	for _, value := range values {
		hasher.Write([]byte(value))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func hashSources(sources map[string]string) string {
	if len(sources) == 0 {
		return ""
	}
	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, key := range keys {
		hasher.Write([]byte(key))
		hasher.Write([]byte("="))
		hasher.Write([]byte(sources[key]))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
