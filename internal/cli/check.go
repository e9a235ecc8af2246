package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON      string
	outMD        string
	checkTimeout time.Duration
	userAgent    string
	noVerify     bool
	noCache      bool
	noFooter     bool
	insecureTLS  bool
	httpProxy    string
	httpsProxy   string
	llmEnabled   bool
	llmModel     string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Check citations in a single document",
	Long: `Check extracts every legal citation from a document, resolves case
names and decision years from the surrounding text, verifies each
citation against authoritative sources, and groups parallel citations
that point at the same opinion.

Reads from stdin when <file> is "-".

Example:
  citecheck check brief.txt
  citecheck check brief.txt --json report.json --md report.md
  citecheck check brief.txt --no-verify
  citecheck check brief.txt --llm --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// Run flags
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 2*time.Minute, "overall check timeout (increase for documents with many citations)")
	checkCmd.Flags().StringVar(&userAgent, "ua", "citecheck/0.3 (+https://github.com/pbechard/citecheck)", "HTTP User-Agent for verification requests")
	checkCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip external verification (extraction and clustering only)")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the verification response cache")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	checkCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	checkCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	checkCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// LLM flags
	checkCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	checkCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", path)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", checkTimeout)
		fmt.Fprintf(os.Stderr, "Verification: %v\n", cfg.Verify.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg)

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Reading document...\n")
	}

	result, err := checkInput(ctx, p, path)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d citations\n", result.Stats.CitationCount)
		fmt.Fprintf(os.Stderr, "✓ Verified %d of %d citations\n", result.Stats.VerifiedCount, result.Stats.CitationCount)
		fmt.Fprintf(os.Stderr, "✓ Grouped %d parallel citation clusters\n", result.Stats.ClusterCount)
		if result.LLM != nil && result.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", result.LLM.Provider, result.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	// Render outputs
	if err := p.RenderResult(result, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

func checkInput(ctx context.Context, p *pipeline.Pipeline, path string) (*model.Result, error) {
	if path == "-" {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return p.CheckText(ctx, string(text))
	}
	return p.CheckFile(ctx, path)
}

// buildConfig assembles the run configuration from defaults, shared
// flags, and environment. Used by check, batch, and serve.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Verify.Enabled = !noVerify
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if token := os.Getenv("COURTLISTENER_API_TOKEN"); token != "" {
		cfg.Verify.LookupToken = token
	}

	// Configure LLM if enabled
	if llmEnabled {
		cfg.LLM.Provider = "openai"
		cfg.LLM.Model = llmModel
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.LLM.BaseURL = os.Getenv("OPENAI_BASE_URL")
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	}

	return cfg, nil
}
