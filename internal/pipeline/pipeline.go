package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pbechard/citecheck/internal/cache"
	"github.com/pbechard/citecheck/internal/cluster"
	"github.com/pbechard/citecheck/internal/extract"
	"github.com/pbechard/citecheck/internal/llm"
	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/reporters"
	"github.com/pbechard/citecheck/internal/verify"
)

// Pipeline runs a document through the complete check: extraction,
// name and date resolution, verification, clustering. One Pipeline is
// safe for concurrent use; all per-document state lives in the call.
type Pipeline struct {
	registry   *reporters.Registry
	extractor  *extract.Extractor
	resolver   *extract.Resolver
	builder    *cluster.Builder
	verifier   *verify.Orchestrator // nil when verification is disabled
	summarizer *llm.Summarizer      // nil when no LLM provider configured
	renderer   *Renderer
	config     *model.Config
}

// NewPipeline creates a pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	registry := reporters.NewRegistry()

	var verifier *verify.Orchestrator
	if cfg.Verify.Enabled {
		verifier = verify.NewOrchestrator(cfg.Verify, cfg.HTTP, registry, buildResponseCache(cfg.Cache), cfg.Cache.TTL)
	}

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Printf("Warning: Failed to initialize LLM provider: %v\n", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		registry:   registry,
		extractor:  extract.NewExtractor(registry),
		resolver:   extract.NewResolver(cfg.Extract),
		builder:    cluster.NewBuilder(registry, cfg.Cluster),
		verifier:   verifier,
		summarizer: summarizer,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		config:     cfg,
	}
}

// buildResponseCache wires the verification response cache: layered
// when a disk directory is configured, memory otherwise, nil when
// caching is off.
func buildResponseCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir != "" {
		return cache.NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL)
	}
	return cache.NewMemoryCache(cfg.TTL, 10*time.Minute)
}

// Process runs one document through all six stages in order. onStep,
// which may be nil, is called as each stage finishes; the job layer
// uses it to persist progress. Cancellation is honored between
// stages: an in-flight stage runs to completion, then the pipeline
// stops. Extraction never fails a run; the only errors out of here
// are cancellation.
//
// A document that arrives as a saved web page is flattened to visible
// text during init; all span offsets index the flattened text.
func (p *Pipeline) Process(ctx context.Context, text string, onStep func(model.JobStep)) (*model.Result, error) {
	started := time.Now()
	report := func(step model.JobStep) {
		if onStep != nil {
			onStep(step)
		}
	}

	if extract.LooksLikeHTML(text) {
		text = extract.TextFromHTML(text)
	}
	report(model.StepInit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spans := p.extractor.Scan(text)
	report(model.StepExtract)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cites := p.extractor.Resolve(text, spans)
	report(model.StepAnalyze)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.resolver.ResolveNames(text, cites)
	p.resolver.ResolveYears(text, cites)
	report(model.StepExtractNames)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	verified := 0
	if p.verifier != nil && len(cites) > 0 {
		verified = p.verifier.Verify(ctx, cites)
	}
	report(model.StepVerify)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clusters := p.builder.Build(text, cites)
	report(model.StepCluster)

	result := &model.Result{
		Citations:   cites,
		Clusters:    clusters,
		ProcessedAt: time.Now().UTC(),
		Stats: model.Stats{
			TextBytes:     len(text),
			CitationCount: len(cites),
			ClusterCount:  len(clusters),
			VerifiedCount: verified,
			ElapsedMS:     time.Since(started).Milliseconds(),
		},
	}
	result.Notes = deriveNotes(result, p.verifier != nil)

	// Summary generation runs last and never affects the result data
	if p.summarizer != nil && p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, result)
		if err != nil {
			fmt.Printf("Warning: LLM summary generation failed: %v\n", err)
		} else if summary != nil {
			result.LLM = summary
		}
	}

	return result, nil
}

// CheckText runs the pipeline inline over a document already in memory
func (p *Pipeline) CheckText(ctx context.Context, text string) (*model.Result, error) {
	return p.Process(ctx, text, nil)
}

// CheckFile reads one document from disk and runs the pipeline over it
func (p *Pipeline) CheckFile(ctx context.Context, path string) (*model.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return p.Process(ctx, string(data), nil)
}

// RenderResult writes the result to the requested outputs
func (p *Pipeline) RenderResult(result *model.Result, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(result, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(result, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// LLM summary goes to its own file so the factual report stays
	// clearly separated from generated prose
	if result.LLM != nil && result.LLM.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(result.LLM), llmPath); err != nil {
			fmt.Printf("Warning: Failed to write LLM summary: %v\n", err)
		} else if verbose {
			fmt.Printf("✓ Wrote LLM Summary: %s\n", llmPath)
		}
	}

	p.renderer.RenderSummary(result)
	return nil
}
