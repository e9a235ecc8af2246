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

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/util"
	"github.com/pbechard/citecheck/internal/worker"
)

// lookupSleepFunc is the sleep function used between retries (injectable for tests)
var lookupSleepFunc = time.Sleep

// LookupSource is Tier 1: a CourtListener-style citation-lookup API.
// One POST per citation. Only a single unambiguous match carrying a
// case name and an opinion URL is accepted; anything else is no_match.
type LookupSource struct {
	client     *http.Client
	lookupURL  string
	base       string // scheme://host of the lookup endpoint, for relative opinion URLs
	token      string
	maxBytes   int64
	maxRetries int
	limiter    *worker.Limiter
}

// NewLookupSource creates the lookup tier from config
func NewLookupSource(cfg model.VerifyConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter) *LookupSource {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	maxBytes := httpCfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}

	base := ""
	if parsed, err := url.Parse(cfg.LookupURL); err == nil && parsed.Host != "" {
		base = parsed.Scheme + "://" + parsed.Host
	}

	return &LookupSource{
		client: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy),
			},
		},
		lookupURL:  cfg.LookupURL,
		base:       base,
		token:      cfg.LookupToken,
		maxBytes:   maxBytes,
		maxRetries: maxRetries,
		limiter:    limiter,
	}
}

// Name returns the source name recorded on verified citations
func (s *LookupSource) Name() string {
	return "citation-lookup"
}

// Weight returns the tier weight
func (s *LookupSource) Weight() float64 {
	return WeightLookup
}

// lookupMatch is one parsed citation in the lookup API response
type lookupMatch struct {
	Citation     string          `json:"citation"`
	Status       int             `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Clusters     []lookupCluster `json:"clusters"`
}

// lookupCluster is one opinion the API resolved a citation to
type lookupCluster struct {
	CaseName    string `json:"case_name"`
	AbsoluteURL string `json:"absolute_url"`
	DateFiled   string `json:"date_filed"`
}

// Attempt posts the normalized citation to the lookup API and applies
// the single-match acceptance rule.
func (s *LookupSource) Attempt(ctx context.Context, target Target) (*model.VerificationAttempt, error) {
	matches, err := s.postWithRetry(ctx, target.Citation.Normalized())
	if err != nil {
		return nil, err
	}

	attempt := &model.VerificationAttempt{
		Source:  s.Name(),
		Outcome: model.OutcomeNoMatch,
	}

	for _, m := range matches {
		if m.Status != http.StatusOK {
			continue
		}
		// Ambiguous citations (several opinions share the reference)
		// are never accepted on the API's answer alone.
		if len(m.Clusters) != 1 {
			continue
		}
		cl := m.Clusters[0]
		if cl.CaseName == "" || cl.AbsoluteURL == "" {
			continue
		}

		attempt.Outcome = model.OutcomeMatch
		attempt.Confidence = s.Weight()
		attempt.CanonicalName = cl.CaseName
		attempt.CanonicalDate = cl.DateFiled
		attempt.CanonicalURL = s.resolveURL(cl.AbsoluteURL)
		return attempt, nil
	}

	return attempt, nil
}

// postWithRetry performs the lookup POST, retrying transient failures
// with exponential backoff.
func (s *LookupSource) postWithRetry(ctx context.Context, citation string) ([]lookupMatch, error) {
	var matches []lookupMatch
	var err error

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		matches, err = s.post(ctx, citation)
		if err == nil || !isRetryableError(err) {
			return matches, err
		}
		if attempt < s.maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			lookupSleepFunc(backoff)
		}
	}

	return matches, err
}

// post performs one lookup POST
func (s *LookupSource) post(ctx context.Context, citation string) ([]lookupMatch, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, s.lookupURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	form := url.Values{}
	form.Set("text", citation)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.lookupURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Token "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var matches []lookupMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return matches, nil
}

// resolveURL makes an opinion URL absolute against the lookup host
func (s *LookupSource) resolveURL(opinionURL string) string {
	if strings.HasPrefix(opinionURL, "http://") || strings.HasPrefix(opinionURL, "https://") {
		return opinionURL
	}
	return s.base + opinionURL
}
