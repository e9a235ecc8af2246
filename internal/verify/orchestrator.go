package verify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pbechard/citecheck/internal/cache"
	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/reporters"
	"github.com/pbechard/citecheck/internal/worker"
)

// Orchestrator walks citations through the source chain in tier order:
// citation lookup, deep links, web search. Source answers are cached
// per (source, citation) so repeated runs and parallel citations of
// one opinion hit the network once.
type Orchestrator struct {
	sources   []Source
	threshold float64
	workers   int
	respCache cache.Cache
	cacheTTL  time.Duration
}

// NewOrchestrator wires the verification chain from config. Tiers
// without the config they need (no lookup URL, no search endpoint) are
// left out of the chain.
func NewOrchestrator(cfg model.VerifyConfig, httpCfg model.HTTPConfig, registry *reporters.Registry, respCache cache.Cache, cacheTTL time.Duration) *Orchestrator {
	limiter := worker.NewLimiter(cfg.RatePerSecond, cfg.RateBurst)
	fetcher := NewFetcher(httpCfg, limiter, cfg.MaxRetries)

	var sources []Source
	if cfg.LookupURL != "" {
		sources = append(sources, NewLookupSource(cfg, httpCfg, limiter))
	}
	sources = append(sources, NewDeepLinkSource(fetcher, registry))
	if cfg.SearchURL != "" {
		sources = append(sources, NewWebSearchSource(fetcher, cfg, httpCfg, registry, limiter))
	}

	threshold := cfg.AcceptThreshold
	if threshold <= 0 {
		threshold = 0.60
	}

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 4
	}

	return &Orchestrator{
		sources:   sources,
		threshold: threshold,
		workers:   workers,
		respCache: respCache,
		cacheTTL:  cacheTTL,
	}
}

// Verify runs the chain over every citation, bounded by the configured
// concurrency. Citations are updated in place; the return value is the
// number verified. Source failures never surface as errors: a citation
// no source confirmed simply stays unverified.
func (o *Orchestrator) Verify(ctx context.Context, citations []model.Citation) int {
	if len(citations) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, o.workers)

	for i := range citations {
		wg.Add(1)
		go func(c *model.Citation) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			o.VerifyCitation(ctx, c)
		}(&citations[i])
	}

	wg.Wait()

	verified := 0
	for i := range citations {
		if citations[i].Verified {
			verified++
		}
	}
	return verified
}

// VerifyCitation walks one citation through the tiers in order,
// stopping at the first accepted answer. Tiers are strictly
// sequential: a later source is only consulted after the earlier one
// declined. An accepted answer fills every canonical field from that
// source alone.
func (o *Orchestrator) VerifyCitation(ctx context.Context, c *model.Citation) ChainResult {
	// Write-once: an earlier acceptance is never revisited
	if c.Verified {
		return ChainResult{State: StateVerified}
	}

	result := ChainResult{State: StatePending}
	target := Target{Citation: c, ExpectedName: c.ExtractedCaseName}

	for _, src := range o.sources {
		attempt := o.attemptCached(ctx, src, target)
		result.Attempts = append(result.Attempts, *attempt)

		if attempt.Outcome == model.OutcomeMatch && attempt.Confidence >= o.threshold {
			c.Verified = true
			c.Source = attempt.Source
			c.CanonicalName = attempt.CanonicalName
			c.CanonicalDate = attempt.CanonicalDate
			c.CanonicalURL = attempt.CanonicalURL

			result.State = StateVerified
			result.Accepted = attempt
			return result
		}

		if ctx.Err() != nil {
			break
		}
	}

	result.State = StateExhausted
	return result
}

// attemptCached consults the response cache before calling a source,
// and records the answer for the next run. Transport errors become
// error-outcome attempts and are never cached.
func (o *Orchestrator) attemptCached(ctx context.Context, src Source, target Target) *model.VerificationAttempt {
	key := cache.Key(src.Name(), target.Citation.Normalized())

	if o.respCache != nil {
		if data, found := o.respCache.Get(key); found {
			var cached model.VerificationAttempt
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached
			}
		}
	}

	attempt, err := src.Attempt(ctx, target)
	if err != nil {
		return &model.VerificationAttempt{
			Source:  src.Name(),
			Outcome: model.OutcomeError,
			Error:   err.Error(),
		}
	}

	if o.respCache != nil {
		if data, err := json.Marshal(attempt); err == nil {
			_ = o.respCache.Set(key, data, o.cacheTTL)
		}
	}

	return attempt
}
