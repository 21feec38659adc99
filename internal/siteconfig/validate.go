package siteconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	absoluteURL = regexp.MustCompile(`^https?://[^\s/]+`)
	localeCode  = regexp.MustCompile(`^[a-z]{2}(-[A-Za-z]{2,4})?$`)
)

// Validate checks the sentinel rules first and then field-level rules with
// ozzo-validation. The shape of the raw document is checked separately by
// the JSON schema during Load.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrTitleRequired
	}
	if strings.TrimSpace(c.URL) == "" {
		return ErrURLRequired
	}
	if strings.TrimSpace(c.Build.OutputDir) == "" {
		return ErrOutputDirRequired
	}
	if !c.OnBrokenLinks.valid() {
		return fmt.Errorf("%w: on_broken_links=%q", ErrBrokenLinkPolicyInvalid, c.OnBrokenLinks)
	}
	if !c.OnBrokenMarkdownLinks.valid() {
		return fmt.Errorf("%w: on_broken_markdown_links=%q", ErrBrokenLinkPolicyInvalid, c.OnBrokenMarkdownLinks)
	}
	if !c.HasLocale(c.I18N.DefaultLocale) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleMissing, c.I18N.DefaultLocale)
	}
	switch strings.ToLower(strings.TrimSpace(c.Build.ManifestStore)) {
	case "", "file", "bolt":
	default:
		return fmt.Errorf("%w: %s", ErrManifestStoreInvalid, c.Build.ManifestStore)
	}
	if c.Build.Workers < 0 {
		return ErrWorkersInvalid
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}

	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Match(absoluteURL)),
		validation.Field(&c.I18N),
		validation.Field(&c.Navbar),
		validation.Field(&c.Footer),
		validation.Field(&c.Podcast),
		validation.Field(&c.Server),
	)
}

func (l LoggingConfig) validate() error {
	provider := strings.ToLower(strings.TrimSpace(l.Provider))
	switch provider {
	case "console", "gologger", "zap":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, l.Provider)
	}
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, l.Level)
	}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "json", "console", "pretty", "text":
	default:
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, l.Format)
	}
	return nil
}

func (i I18NConfig) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Locales, validation.Required, validation.Each(validation.Match(localeCode))),
	)
}

func (n NavbarConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required),
		validation.Field(&n.Items),
	)
}

func (item NavItem) Validate() error {
	targets := 0
	for _, v := range []string{item.To, item.Href, item.DocID} {
		if strings.TrimSpace(v) != "" {
			targets++
		}
	}
	return validation.ValidateStruct(&item,
		validation.Field(&item.Label, validation.Required),
		validation.Field(&item.Position, validation.In("left", "right")),
		validation.Field(&item.Type, validation.In("doc", "link")),
		validation.Field(&item.DocID, validation.When(item.Type == "doc", validation.Required)),
		validation.Field(&item.Href, validation.Match(absoluteURL)),
		validation.Field(&item.To, validation.By(func(any) error {
			if targets != 1 {
				return errors.New("exactly one of to, href or doc_id is required")
			}
			return nil
		})),
	)
}

func (f FooterConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Style, validation.In("dark", "light")),
		validation.Field(&f.Links),
	)
}

func (g FooterGroup) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.Title, validation.Required),
		validation.Field(&g.Items),
	)
}

func (item FooterItem) Validate() error {
	return validation.ValidateStruct(&item,
		validation.Field(&item.Label, validation.Required),
		validation.Field(&item.Href, validation.Match(absoluteURL)),
		validation.Field(&item.To, validation.When(item.Href == "", validation.Required)),
	)
}

func (p PodcastConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Heading, validation.Required),
		validation.Field(&p.SubscribeURL, validation.Match(absoluteURL)),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
	)
}
