package verify

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pbechard/citecheck/internal/cluster"
	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/reporters"
)

// nameMatchFloor is the minimum name similarity for a page to count as
// the cited case at all. Acceptance still requires weight x similarity
// to clear the configured threshold.
const nameMatchFloor = 0.5

// DeepLinkSource is Tier 2: deterministic per-reporter URL templates on
// public legal-reference sites. A candidate page counts only when its
// title or main heading names the expected case.
type DeepLinkSource struct {
	fetcher  *Fetcher
	linksFor func(canonical, volume, page string) []reporters.DeepLink
}

// NewDeepLinkSource creates the deep-link tier over the reporter
// registry's URL templates.
func NewDeepLinkSource(fetcher *Fetcher, registry *reporters.Registry) *DeepLinkSource {
	return &DeepLinkSource{
		fetcher:  fetcher,
		linksFor: registry.DeepLinks,
	}
}

// Name returns the source name recorded on verified citations
func (s *DeepLinkSource) Name() string {
	return "deep-link"
}

// Weight returns the tier weight
func (s *DeepLinkSource) Weight() float64 {
	return WeightDeepLink
}

// Attempt fetches each candidate URL in order and accepts the first
// page whose heading matches the expected case name.
func (s *DeepLinkSource) Attempt(ctx context.Context, target Target) (*model.VerificationAttempt, error) {
	attempt := &model.VerificationAttempt{
		Source:  s.Name(),
		Outcome: model.OutcomeNoMatch,
	}

	// A deep-link page can only be validated against a known name
	if target.ExpectedName == "" {
		return attempt, nil
	}

	c := target.Citation
	links := s.linksFor(c.Reporter, c.Volume, c.Page)
	if len(links) == 0 {
		return attempt, nil
	}

	fetched := 0
	var lastErr error

	for _, link := range links {
		page, err := s.fetcher.FetchWithRetry(ctx, link.URL)
		if err != nil {
			var se *statusError
			if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusGone) {
				// No page at the deterministic URL: the citation is
				// not published here. An answer, not a failure.
				fetched++
			} else {
				lastErr = err
			}
			continue
		}
		fetched++

		name, year := pageCaseName(page.HTML, c.Normalized())
		if name == "" {
			continue
		}

		sim := cluster.NameSimilarity(target.ExpectedName, name)
		if sim < nameMatchFloor {
			continue
		}

		attempt.Outcome = model.OutcomeMatch
		attempt.Confidence = s.Weight() * sim
		attempt.CanonicalName = name
		attempt.CanonicalDate = year
		attempt.CanonicalURL = page.FinalURL
		return attempt, nil
	}

	// Every candidate errored out: that is a tier failure, not a miss
	if fetched == 0 && lastErr != nil {
		return nil, lastErr
	}

	return attempt, nil
}

var (
	headingYearRe = regexp.MustCompile(`\(((?:17|18|19|20)\d{2})\)`)

	// headingCiteTailRe strips a trailing volume/reporter/page citation
	// that sites append after the caption, in whatever spacing the site
	// uses for the reporter.
	headingCiteTailRe = regexp.MustCompile(`[,\s]+\d{1,4}\s+[A-Z][A-Za-z0-9.\s]*?\d{1,5}\s*(?:\((?:17|18|19|20)\d{2}\))?\s*$`)

	headingYearTailRe = regexp.MustCompile(`\s*\((?:17|18|19|20)\d{2}\)\s*$`)
)

// pageCaseName pulls the case name and decision year as a source page
// presents them: the first h1, falling back to the title tag, with
// site chrome and the citation tail stripped.
func pageCaseName(htmlContent, citation string) (string, string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", ""
	}

	heading := collapseSpace(doc.Find("h1").First().Text())
	if heading == "" {
		heading = collapseSpace(doc.Find("title").First().Text())
	}
	if heading == "" {
		return "", ""
	}

	year := ""
	if m := headingYearRe.FindStringSubmatch(heading); m != nil {
		year = m[1]
	}

	// Site chrome after the caption
	for _, sep := range []string{" :: ", " | "} {
		if idx := strings.Index(heading, sep); idx > 0 {
			heading = heading[:idx]
		}
	}

	// Citation tail after the name
	if citation != "" {
		if idx := strings.Index(heading, citation); idx >= 0 {
			heading = heading[:idx]
		}
	}
	heading = headingCiteTailRe.ReplaceAllString(heading, "")
	heading = headingYearTailRe.ReplaceAllString(heading, "")

	return strings.TrimRight(heading, " ,;:-"), year
}

// collapseSpace normalizes runs of whitespace to single spaces
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
