package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/util"
)

const probeMaxRetries = 2

// probeSleepFunc is the sleep function used between retries (injectable for tests)
var probeSleepFunc = time.Sleep

// Target names one endpoint the verification chain depends on.
type Target struct {
	Name string
	URL  string
}

// Result records one probe. Reachable means the host answered with
// something other than a server error; a 404 or 405 to a bare probe
// still proves the source is up.
type Result struct {
	Name       string
	URL        string
	Reachable  bool
	StatusCode int
	Latency    time.Duration
	Error      string
}

// Prober checks that verification sources answer at all. It proves
// reachability, never correctness; no citation is looked up.
type Prober struct {
	client     *http.Client
	userAgent  string
	maxWorkers int
}

// NewProber creates a prober from the HTTP config.
func NewProber(cfg model.HTTPConfig, maxWorkers int) *Prober {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Prober{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  cfg.UserAgent,
		maxWorkers: maxWorkers,
	}
}

// ProbeAll probes every target concurrently and returns results in
// input order.
func (p *Prober) ProbeAll(ctx context.Context, targets []Target) []Result {
	results := make([]Result, len(targets))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, p.maxWorkers)

	for i, tgt := range targets {
		wg.Add(1)
		go func(idx int, tgt Target) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = Result{Name: tgt.Name, URL: tgt.URL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = p.probeWithRetry(ctx, tgt)
		}(i, tgt)
	}

	wg.Wait()
	return results
}

// probe issues one HEAD request against the target.
func (p *Prober) probe(ctx context.Context, tgt Target) Result {
	result := Result{Name: tgt.Name, URL: tgt.URL}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, tgt.URL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		return result
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	started := time.Now()
	resp, err := p.client.Do(req)
	result.Latency = time.Since(started)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	result.Reachable = resp.StatusCode < 500
	return result
}

// probeWithRetry retries transient failures with exponential backoff.
func (p *Prober) probeWithRetry(ctx context.Context, tgt Target) Result {
	var result Result
	for attempt := 0; attempt < probeMaxRetries; attempt++ {
		result = p.probe(ctx, tgt)
		if !isRetryableProbe(result) {
			return result
		}
		if attempt < probeMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			probeSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableProbe returns true for results that indicate transient failures
func isRetryableProbe(result Result) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
