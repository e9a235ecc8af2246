package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pbechard/citecheck/internal/cluster"
	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/reporters"
	"github.com/pbechard/citecheck/internal/util"
	"github.com/pbechard/citecheck/internal/worker"
)

// searchSleepFunc is the sleep function used between retries (injectable for tests)
var searchSleepFunc = time.Sleep

const (
	// maxSearchCandidates bounds how many allow-listed results one
	// attempt fetches and validates.
	maxSearchCandidates = 5

	// citedAtWindow is how early in a page's visible text the citation
	// must appear for the page to be the opinion itself. A document
	// that merely cites the case buries the citation mid-body.
	citedAtWindow = 600
)

// WebSearchSource is Tier 3: a metasearch endpoint with a SearxNG-style
// JSON API, restricted to an allow-list of legal-reference domains.
// Every candidate page must prove it is the opinion published at the
// citation, not a brief or article citing it.
type WebSearchSource struct {
	fetcher    *Fetcher
	client     *http.Client
	registry   *reporters.Registry
	searchURL  string
	domains    []string
	maxBytes   int64
	maxRetries int
	limiter    *worker.Limiter
}

// NewWebSearchSource creates the web-search tier from config
func NewWebSearchSource(fetcher *Fetcher, cfg model.VerifyConfig, httpCfg model.HTTPConfig, registry *reporters.Registry, limiter *worker.Limiter) *WebSearchSource {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	return &WebSearchSource{
		fetcher: fetcher,
		client: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy),
			},
		},
		registry:   registry,
		searchURL:  cfg.SearchURL,
		domains:    cfg.SearchDomains,
		maxBytes:   maxBytes,
		maxRetries: maxRetries,
		limiter:    limiter,
	}
}

// Name returns the source name recorded on verified citations
func (s *WebSearchSource) Name() string {
	return "web-search"
}

// Weight returns the tier weight
func (s *WebSearchSource) Weight() float64 {
	return WeightWebSearch
}

// searchResponse is the metasearch JSON envelope
type searchResponse struct {
	Results []searchResult `json:"results"`
}

// searchResult is one hit returned by the metasearch endpoint
type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Attempt searches for the citation and validates allow-listed
// candidates until one proves to be the cited opinion.
func (s *WebSearchSource) Attempt(ctx context.Context, target Target) (*model.VerificationAttempt, error) {
	attempt := &model.VerificationAttempt{
		Source:  s.Name(),
		Outcome: model.OutcomeNoMatch,
	}

	// Search results cannot confirm identity without a name to match
	if target.ExpectedName == "" {
		return attempt, nil
	}

	results, err := s.searchWithRetry(ctx, buildQuery(target))
	if err != nil {
		return nil, err
	}

	candidates := make([]searchResult, 0, len(results))
	for _, res := range results {
		if s.allowedDomain(res.URL) {
			candidates = append(candidates, res)
		}
	}
	rankByAuthority(candidates)

	examined := 0
	for _, res := range candidates {
		if examined >= maxSearchCandidates {
			break
		}
		examined++

		page, err := s.fetcher.FetchWithRetry(ctx, res.URL)
		if err != nil {
			continue
		}

		name, year, sim, ok := s.validate(page, target)
		if !ok {
			continue
		}

		attempt.Outcome = model.OutcomeMatch
		attempt.Confidence = s.Weight() * sim
		attempt.CanonicalName = name
		attempt.CanonicalDate = year
		attempt.CanonicalURL = page.FinalURL
		return attempt, nil
	}

	return attempt, nil
}

// validate decides whether a fetched page is the opinion published at
// the target citation and returns the page's own name, year and the
// name-similarity signal. The citation is matched in any reporter
// spelling, since sites rarely print the canonical abbreviation.
func (s *WebSearchSource) validate(page *FetchResult, target Target) (string, string, float64, bool) {
	head := collapseSpace(visibleTextHead(page.HTML, citedAtWindow))

	found := ""
	for _, spelling := range s.citationSpellings(target.Citation) {
		if strings.Contains(head, spelling) {
			found = spelling
			break
		}
	}
	if found == "" {
		return "", "", 0, false
	}

	name, year := pageCaseName(page.HTML, found)
	if name == "" {
		return "", "", 0, false
	}

	sim := cluster.NameSimilarity(target.ExpectedName, name)
	if sim < nameMatchFloor {
		return "", "", 0, false
	}

	return name, year, sim, true
}

// citationSpellings renders the citation in every spelling of its
// reporter, the normalized form first.
func (s *WebSearchSource) citationSpellings(c *model.Citation) []string {
	variants := s.registry.Variants(c.Reporter)
	if len(variants) == 0 {
		return []string{c.Normalized()}
	}

	spellings := make([]string, 0, len(variants))
	for _, v := range variants {
		spellings = append(spellings, c.Volume+" "+v+" "+c.Page)
	}
	return spellings
}

// buildQuery builds the search query: the exact citation, plus the
// case name when extraction found one.
func buildQuery(target Target) string {
	q := `"` + target.Citation.Normalized() + `"`
	if target.ExpectedName != "" {
		q = `"` + target.ExpectedName + `" ` + q
	}
	return q
}

// searchWithRetry performs the search call, retrying transient
// failures with exponential backoff.
func (s *WebSearchSource) searchWithRetry(ctx context.Context, query string) ([]searchResult, error) {
	var results []searchResult
	var err error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		results, err = s.search(ctx, query)
		if err == nil || !isRetryableError(err) {
			return results, err
		}
		if attempt < s.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			searchSleepFunc(backoff)
		}
	}

	return results, err
}

// search performs one metasearch call
func (s *WebSearchSource) search(ctx context.Context, query string) ([]searchResult, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.searchURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	u, err := url.Parse(s.searchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return parsed.Results, nil
}

// allowedDomain reports whether a result URL is on the legal-reference
// allow-list. Subdomains of an allowed domain pass.
func (s *WebSearchSource) allowedDomain(rawURL string) bool {
	host := urlHost(rawURL)
	if host == "" {
		return false
	}

	for _, d := range s.domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// visibleTextHead collects the first limit characters of a page's
// rendered text, skipping script and style subtrees.
func visibleTextHead(htmlContent string, limit int) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if b.Len() >= limit {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	head := b.String()
	if len(head) > limit {
		head = head[:limit]
	}
	return head
}
