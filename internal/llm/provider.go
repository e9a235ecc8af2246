package llm

import (
	"context"
	"fmt"

	"github.com/pbechard/citecheck/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a run summary under the URL allowlist
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Result is the citation check result to summarize
	Result *model.Result

	// AllowedURLs is the STRICT allowlist of URLs the LLM can cite:
	// the canonical URLs of verified citations, nothing else.
	AllowedURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's summary output
type SummarizeResponse struct {
	// Summary is the generated summary text
	Summary string

	// CitedURLs are the URLs the LLM actually cited (for verification)
	CitedURLs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai" or "" (disabled)
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey authenticates against the API
	APIKey string

	// BaseURL points the client at any OpenAI-compatible endpoint,
	// including local runtimes
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Model:     "",
		Timeout:   30,
		MaxTokens: 1000,
	}
}

// BuildPrompt constructs the default summarization prompt. The URL
// allowlist is embedded in the prompt and enforced again on the
// response, so a leak is caught even when the model ignores it.
func BuildPrompt(result *model.Result, allowedURLs []string) string {
	prompt := fmt.Sprintf(`You are summarizing a legal citation check report. The checker verifies that cited opinions exist at authoritative sources - it NEVER judges the legal argument.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. A citation the checker could not confirm is "unverified", never "fake" or "invalid".
4. Focus on VERIFICATION COVERAGE, not legal merit. Use phrases like:
   - "X of Y citations were confirmed at..."
   - "The following citations could not be confirmed..."
5. Never draw legal conclusions from the cited opinions.

Report Summary:
- Citations found: %d
- Verified: %d
- Parallel citation clusters: %d

Verified cases:
`, joinURLs(allowedURLs), result.Stats.CitationCount, result.Stats.VerifiedCount, result.Stats.ClusterCount)

	// List a few confirmed cases so the model has something concrete
	listed := 0
	for i := range result.Citations {
		c := &result.Citations[i]
		if !c.Verified {
			continue
		}
		if listed >= 5 {
			break
		}
		prompt += fmt.Sprintf("- %s, %s (%s)\n", c.CanonicalName, c.Normalized(), c.Source)
		listed++
	}
	if listed == 0 {
		prompt += "(none)\n"
	}

	prompt += "\nProvide a 3-4 sentence summary of verification coverage, not legal merit."

	return prompt
}

// Helper functions

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No verified URLs available)"
	}
	result := ""
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			result += fmt.Sprintf("\n... and %d more URLs", len(urls)-20)
			break
		}
		result += fmt.Sprintf("\n- %s", url)
	}
	return result
}
