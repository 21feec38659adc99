package staticcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-docsite/internal/generator"
	"github.com/goliatone/go-docsite/internal/linkcheck"
)

const (
	buildSiteMessageType  = "docsite.static.build"
	checkLinksMessageType = "docsite.static.check_links"
	cleanSiteMessageType  = "docsite.static.clean"
)

// ResultCallback receives build results produced by generator operations. It
// is invoked synchronously from the handler, including when the build fails
// with a partial result.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a static command execution that generated a BuildResult.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// ReportCallback receives the link report of a CheckLinksCommand.
type ReportCallback func(linkcheck.Report)

// BuildSiteCommand executes a generator build using the provided filters.
type BuildSiteCommand struct {
	Locales        []string       `json:"locales,omitempty"`
	Force          bool           `json:"force,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures locales are well-formed.
func (m BuildSiteCommand) Validate() error {
	return validateLocales(m.Locales, "docsite.static.build.locale_invalid")
}

// CheckLinksCommand renders every page without writing and reports links
// that do not resolve to a generated output.
type CheckLinksCommand struct {
	ReportCallback ReportCallback `json:"-"`
}

// Type implements command.Message.
func (CheckLinksCommand) Type() string { return checkLinksMessageType }

// Validate satisfies command.Message.
func (CheckLinksCommand) Validate() error { return nil }

// CleanSiteCommand clears generator artifacts from the configured storage backend.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

func validateLocales(locales []string, code string) error {
	errs := validation.Errors{}
	for _, locale := range locales {
		if strings.TrimSpace(locale) == "" {
			errs["locales"] = validation.NewError(code, "locales must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	GeneratorEnabled func() bool
}

func (g FeatureGates) generatorEnabled() bool {
	if g.GeneratorEnabled == nil {
		return false
	}
	return g.GeneratorEnabled()
}
