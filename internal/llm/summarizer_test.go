package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/pbechard/citecheck/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func verifiedResult() *model.Result {
	return &model.Result{
		Citations: []model.Citation{
			{
				Text:          "347 U.S. 483",
				Volume:        "347",
				Reporter:      "U.S.",
				Page:          "483",
				Verified:      true,
				Source:        "citation-lookup",
				CanonicalName: "Brown v. Board of Education",
				CanonicalURL:  "https://www.courtlistener.com/opinion/105221/brown-v-board-of-education/",
			},
			{
				Text:          "98 F.3d 1121",
				Volume:        "98",
				Reporter:      "F.3d",
				Page:          "1121",
				Verified:      true,
				Source:        "deep-link",
				CanonicalName: "Stone v. Jasper County",
				CanonicalURL:  "https://law.justia.com/cases/federal/appellate-courts/F3/98/1121/",
			},
			{
				Text:     "12 Wash. 2d 500",
				Volume:   "12",
				Reporter: "Wash. 2d",
				Page:     "500",
			},
		},
		Stats: model.Stats{
			CitationCount: 3,
			VerifiedCount: 2,
			ClusterCount:  1,
		},
	}
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	config := Config{
		Provider: "", // Empty = disabled
	}

	summarizer, err := NewSummarizer(config)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summarizer.provider != nil {
		t.Error("Expected provider to be nil when disabled")
	}

	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}

	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	config := Config{
		Provider: "hallucinate-3000",
	}

	_, err := NewSummarizer(config)
	if err == nil {
		t.Fatal("Expected error for unknown provider")
	}

	if !strings.Contains(err.Error(), "unknown LLM provider") {
		t.Errorf("Expected unknown provider error, got %v", err)
	}
}

func TestSummarizer_GenerateSummary_Disabled(t *testing.T) {
	// Create summarizer with nil provider (disabled)
	summarizer := &Summarizer{
		provider: nil,
		config:   Config{},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedResult())

	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}

	if summary != nil {
		t.Error("Expected nil summary when provider disabled")
	}
}

func TestSummarizer_GenerateSummary_ProviderUnavailable(t *testing.T) {
	mockProvider := &MockProvider{
		name:      "test-provider",
		available: false, // Provider not available
	}

	summarizer := &Summarizer{
		provider: mockProvider,
		config:   Config{},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedResult())

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if summary == nil {
		t.Fatal("Expected summary object with warnings")
	}

	if summary.Enabled {
		t.Error("Expected summary to be marked as disabled")
	}

	if len(summary.Warnings) == 0 {
		t.Error("Expected warning about provider unavailability")
	}

	// Check warning message
	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "not available") {
			found = true
			break
		}
	}
	if !found {
		t.Error("Expected warning to mention provider unavailability")
	}
}

func TestSummarizer_GenerateSummary_Success(t *testing.T) {
	mockProvider := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &SummarizeResponse{
			Summary:    "This is a test summary.",
			CitedURLs:  []string{"https://www.courtlistener.com/opinion/105221/brown-v-board-of-education/"},
			Model:      "test-model",
			TokensUsed: 150,
		},
	}

	summarizer := &Summarizer{
		provider: mockProvider,
		config: Config{
			Model: "test-model",
		},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedResult())

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summary == nil {
		t.Fatal("Expected summary to be generated")
	}

	if !summary.Enabled {
		t.Error("Expected summary to be enabled")
	}

	if summary.Provider != "test-provider" {
		t.Errorf("Expected provider 'test-provider', got '%s'", summary.Provider)
	}

	if summary.Model != "test-model" {
		t.Errorf("Expected model 'test-model', got '%s'", summary.Model)
	}

	if summary.SummaryMD != "This is a test summary." {
		t.Errorf("Expected summary text to match, got '%s'", summary.SummaryMD)
	}

	// Check warnings include token usage and citation verification
	foundTokens := false
	foundCitations := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "Tokens used") {
			foundTokens = true
		}
		if strings.Contains(warning, "Verified") && strings.Contains(warning, "citations") {
			foundCitations = true
		}
	}

	if !foundTokens {
		t.Error("Expected warning about tokens used")
	}

	if !foundCitations {
		t.Error("Expected warning about verified citations")
	}
}

func TestSummarizer_GenerateSummary_ProviderError(t *testing.T) {
	mockProvider := &MockProvider{
		name:      "test-provider",
		available: true,
		err:       &mockError{msg: "API rate limit exceeded"},
	}

	summarizer := &Summarizer{
		provider: mockProvider,
		config: Config{
			Model: "test-model",
		},
	}

	summary, err := summarizer.GenerateSummary(context.Background(), verifiedResult())

	// Should not fail the entire run, just return summary with warnings
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}

	if summary == nil {
		t.Fatal("Expected summary with error warning")
	}

	if !summary.Enabled {
		t.Error("Expected summary to be marked as enabled (but failed)")
	}

	if len(summary.Warnings) == 0 {
		t.Fatal("Expected warning about generation failure")
	}

	// Check warning mentions the error
	found := false
	for _, warning := range summary.Warnings {
		if strings.Contains(warning, "failed") && strings.Contains(warning, "rate limit") {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("Expected warning to mention error: %v", summary.Warnings)
	}
}

func TestRenderSeparateMarkdown_Disabled(t *testing.T) {
	summary := &model.LLMSummary{
		Enabled: false,
	}

	md := RenderSeparateMarkdown(summary)

	if md != "" {
		t.Error("Expected empty markdown when disabled")
	}
}

func TestRenderSeparateMarkdown_Nil(t *testing.T) {
	md := RenderSeparateMarkdown(nil)

	if md != "" {
		t.Error("Expected empty markdown when nil")
	}
}

func TestRenderSeparateMarkdown_Success(t *testing.T) {
	summary := &model.LLMSummary{
		Enabled:   true,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		SummaryMD: "This is the generated summary content.",
		Warnings: []string{
			"Tokens used: 150",
			"Verified 2 citations of allowed URLs (2 allowed)",
		},
	}

	md := RenderSeparateMarkdown(summary)

	if md == "" {
		t.Fatal("Expected markdown to be generated")
	}

	// Check required sections
	requiredSections := []string{
		"# LLM Summary",
		"GENERATED CONTENT",
		"Provider",
		"openai",
		"Model",
		"gpt-4o-mini",
		"This is the generated summary content.",
		"## Notes",
		"Tokens used: 150",
		"Verified 2 citations",
	}

	for _, section := range requiredSections {
		if !strings.Contains(md, section) {
			t.Errorf("Expected markdown to contain '%s'", section)
		}
	}

	// Check disclaimer is present
	if !strings.Contains(md, "determined independently") {
		t.Error("Expected disclaimer about independence from LLM")
	}
}

func TestRenderSeparateMarkdown_NoSummary(t *testing.T) {
	summary := &model.LLMSummary{
		Enabled:   true,
		Provider:  "test-provider",
		SummaryMD: "", // Empty summary
	}

	md := RenderSeparateMarkdown(summary)

	if !strings.Contains(md, "No summary generated") {
		t.Error("Expected message about no summary")
	}
}

func TestBuildPrompt_BasicStructure(t *testing.T) {
	result := verifiedResult()

	urls := allowedURLs(result)

	prompt := BuildPrompt(result, urls)

	// Check required elements
	requiredElements := []string{
		"CRITICAL RULES",
		"MUST ONLY cite URLs from this allowed list",
		"https://www.courtlistener.com/opinion/105221/brown-v-board-of-education/",
		"https://law.justia.com/cases/federal/appellate-courts/F3/98/1121/",
		"DO NOT infer, speculate",
		"Citations found: 3",
		"Verified: 2",
		"Parallel citation clusters: 1",
		"Brown v. Board of Education, 347 U.S. 483 (citation-lookup)",
		"Stone v. Jasper County, 98 F.3d 1121 (deep-link)",
		"VERIFICATION COVERAGE, not legal merit",
	}

	for _, element := range requiredElements {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain '%s'", element)
		}
	}
}

func TestBuildPrompt_NothingVerified(t *testing.T) {
	result := &model.Result{
		Citations: []model.Citation{
			{Text: "12 Wash. 2d 500", Volume: "12", Reporter: "Wash. 2d", Page: "500"},
		},
		Stats: model.Stats{CitationCount: 1},
	}

	prompt := BuildPrompt(result, nil)

	if !strings.Contains(prompt, "No verified URLs available") {
		t.Error("Expected message about no verified URLs")
	}

	if !strings.Contains(prompt, "(none)") {
		t.Error("Expected empty verified case list marker")
	}
}

func TestBuildPrompt_ManyURLs(t *testing.T) {
	// Create 25 URLs
	urls := make([]string, 25)
	for i := 0; i < 25; i++ {
		urls[i] = "https://example.com/" + string(rune('a'+i))
	}

	result := &model.Result{
		Stats: model.Stats{CitationCount: 25, VerifiedCount: 25},
	}

	prompt := BuildPrompt(result, urls)

	// Should limit to 20 URLs and show "... and X more"
	if !strings.Contains(prompt, "and 5 more URLs") {
		t.Error("Expected truncation message for many URLs")
	}

	// First URL should be present
	if !strings.Contains(prompt, urls[0]) {
		t.Error("Expected first URL to be in prompt")
	}
}

func TestAllowedURLs(t *testing.T) {
	result := &model.Result{
		Citations: []model.Citation{
			{Verified: true, CanonicalURL: "https://example.com/a"},
			{Verified: true, CanonicalURL: "https://example.com/a"}, // Duplicate
			{Verified: true, CanonicalURL: ""},                      // Verified but no URL
			{Verified: false, CanonicalURL: "https://example.com/b"},
			{Verified: true, CanonicalURL: "https://example.com/c"},
		},
	}

	urls := allowedURLs(result)

	if len(urls) != 2 {
		t.Fatalf("Expected 2 allowed URLs, got %d: %v", len(urls), urls)
	}

	if urls[0] != "https://example.com/a" || urls[1] != "https://example.com/c" {
		t.Errorf("Unexpected allowlist: %v", urls)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Provider != "" {
		t.Errorf("Expected provider to be empty (disabled), got '%s'", config.Provider)
	}

	if config.Timeout <= 0 {
		t.Error("Expected positive timeout")
	}

	if config.MaxTokens <= 0 {
		t.Error("Expected positive max tokens")
	}
}

func TestSummarizer_IsEnabled(t *testing.T) {
	// Disabled summarizer
	disabled := &Summarizer{
		provider: nil,
	}

	if disabled.IsEnabled() {
		t.Error("Expected IsEnabled() to return false when provider is nil")
	}

	// Enabled summarizer
	enabled := &Summarizer{
		provider: &MockProvider{name: "test"},
	}

	if !enabled.IsEnabled() {
		t.Error("Expected IsEnabled() to return true when provider exists")
	}
}

func TestSummarizer_ProviderName(t *testing.T) {
	// Disabled summarizer
	disabled := &Summarizer{
		provider: nil,
	}

	if disabled.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	// Enabled summarizer
	enabled := &Summarizer{
		provider: &MockProvider{name: "test-provider"},
	}

	if enabled.ProviderName() != "test-provider" {
		t.Errorf("Expected provider name 'test-provider', got '%s'", enabled.ProviderName())
	}
}

func TestJoinURLs_Empty(t *testing.T) {
	result := joinURLs([]string{})

	if !strings.Contains(result, "No verified URLs available") {
		t.Error("Expected message about no URLs")
	}
}

func TestJoinURLs_Few(t *testing.T) {
	urls := []string{
		"https://example.com/1",
		"https://example.com/2",
	}

	result := joinURLs(urls)

	for _, url := range urls {
		if !strings.Contains(result, url) {
			t.Errorf("Expected result to contain %s", url)
		}
	}
}

// Mock error type for testing
type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}
