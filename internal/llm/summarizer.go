package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbechard/citecheck/internal/model"
)

// Summarizer generates optional LLM narrative summaries of check
// results. Summaries are advisory only and never touch the verification
// outcomes they describe.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration. An empty
// provider name yields a disabled summarizer, not an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}

	return &Summarizer{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider's name, or ""
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces an LLM summary of the result. Failures
// degrade gracefully: the check result is already complete, so provider
// problems become warnings on the summary, never errors for the run.
func (s *Summarizer) GenerateSummary(ctx context.Context, result *model.Result) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.LLMSummary{
			Enabled:  false,
			Provider: s.provider.Name(),
			Warnings: []string{fmt.Sprintf("LLM provider %s is not available", s.provider.Name())},
		}, nil
	}

	allowed := allowedURLs(result)

	req := SummarizeRequest{
		Result:      result,
		AllowedURLs: allowed,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	}

	resp, err := s.provider.Summarize(ctx, req)
	if err != nil {
		return &model.LLMSummary{
			Enabled:  true,
			Provider: s.provider.Name(),
			Model:    s.config.Model,
			Warnings: []string{fmt.Sprintf("Summary generation failed: %v", err)},
		}, nil
	}

	return &model.LLMSummary{
		Enabled:   true,
		Provider:  s.provider.Name(),
		Model:     resp.Model,
		SummaryMD: resp.Summary,
		Warnings: []string{
			fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
			fmt.Sprintf("Verified %d citations of allowed URLs (%d allowed)", len(resp.CitedURLs), len(allowed)),
		},
	}, nil
}

// allowedURLs collects the canonical URLs of verified citations: the
// only links the summarizer may reference.
func allowedURLs(result *model.Result) []string {
	seen := make(map[string]bool)
	var urls []string
	for i := range result.Citations {
		c := &result.Citations[i]
		if !c.Verified || c.CanonicalURL == "" {
			continue
		}
		if seen[c.CanonicalURL] {
			continue
		}
		seen[c.CanonicalURL] = true
		urls = append(urls, c.CanonicalURL)
	}
	return urls
}

// RenderSeparateMarkdown renders the summary as a standalone markdown
// document, clearly labeled so generated prose can never be mistaken
// for verification data.
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var b strings.Builder

	b.WriteString("# LLM Summary\n\n")
	b.WriteString("> ⚠️ **GENERATED CONTENT**: This summary was produced by a language model.\n")
	b.WriteString("> All verification outcomes in the report were determined independently of it.\n\n")

	fmt.Fprintf(&b, "**Provider**: %s\n", summary.Provider)
	fmt.Fprintf(&b, "**Model**: %s\n\n", summary.Model)
	b.WriteString("---\n\n")

	if summary.SummaryMD == "" {
		b.WriteString("No summary generated.\n")
	} else {
		b.WriteString(summary.SummaryMD)
		b.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range summary.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}
