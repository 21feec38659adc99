package generator

import (
	"strings"

	"github.com/goliatone/go-docsite/internal/linkcheck"
	"github.com/goliatone/go-docsite/internal/siteconfig"
)

// checkLinks verifies every rendered page against the URLs this build
// produces. Pages skipped by the manifest are not re-checked.
func (s *service) checkLinks(buildCtx *BuildContext, rendered []RenderedPage) linkcheck.Report {
	checker := linkcheck.New(s.knownURLs(buildCtx)...)
	for _, page := range rendered {
		if err := checker.CheckHTML(page.URL, strings.NewReader(page.HTML)); err != nil {
			s.logger.Warn("page html could not be scanned for links", "url", page.URL, "error", err)
		}
	}
	return checker.Report()
}

func (s *service) knownURLs(buildCtx *BuildContext) []string {
	base := s.cfg.BasePath
	urls := make([]string, 0, len(buildCtx.Pages))
	for _, data := range buildCtx.Pages {
		urls = append(urls, data.Page.URL)
	}
	for _, asset := range s.collectAssets(buildCtx.Theme) {
		urls = append(urls, outputURL(base, asset.output))
	}
	if s.cfg.GenerateFeeds {
		for _, feed := range s.enabledFeeds() {
			urls = append(urls, outputURL(base, feed.rssPath()), outputURL(base, feed.atomPath()))
		}
	}
	if s.cfg.GenerateSitemap {
		urls = append(urls, outputURL(base, sitemapFile))
	}
	if s.cfg.GenerateRobots {
		urls = append(urls, outputURL(base, robotsFile))
	}
	return urls
}

func (s *service) applyLinkPolicy(policy siteconfig.Policy, report linkcheck.Report) error {
	if len(report.Broken) == 0 {
		return nil
	}
	switch policy {
	case siteconfig.PolicyIgnore:
		return nil
	case siteconfig.PolicyWarn:
		for _, link := range report.Broken {
			s.logger.Warn("broken link", "page", link.Page, "href", link.Href)
		}
		return nil
	default:
		return report.Err()
	}
}
