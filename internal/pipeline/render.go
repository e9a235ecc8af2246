package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pbechard/citecheck/internal/model"
)

// Renderer writes run results as JSON and Markdown reports
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the complete result as indented JSON
func (r *Renderer) RenderJSON(result *model.Result, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(result *model.Result, path string) error {
	var b strings.Builder

	b.WriteString("# Citation Check Report\n\n")
	fmt.Fprintf(&b, "Processed: %s\n\n", result.ProcessedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Citations**: %d\n", result.Stats.CitationCount)
	fmt.Fprintf(&b, "- **Verified**: %d\n", result.Stats.VerifiedCount)
	fmt.Fprintf(&b, "- **Clusters**: %d\n", result.Stats.ClusterCount)
	fmt.Fprintf(&b, "- **Document size**: %d bytes\n", result.Stats.TextBytes)
	fmt.Fprintf(&b, "- **Elapsed**: %d ms\n\n", result.Stats.ElapsedMS)

	if len(result.Citations) > 0 {
		b.WriteString("## Citations\n\n")
		b.WriteString("| # | Citation | Case | Year | Verified | Source |\n")
		b.WriteString("|---|----------|------|------|----------|--------|\n")
		for i := range result.Citations {
			c := &result.Citations[i]
			name := c.CanonicalName
			if name == "" {
				name = c.ExtractedCaseName
			}
			year := c.ExtractedDate
			if year == "" {
				year = c.CanonicalDate
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
				i+1, c.Text, orDash(name), orDash(year), yesNo(c.Verified), orDash(c.Source))
		}
		b.WriteString("\n")

		if result.Stats.VerifiedCount > 0 {
			b.WriteString("### Verified Opinions\n\n")
			for i := range result.Citations {
				c := &result.Citations[i]
				if !c.Verified || c.CanonicalURL == "" {
					continue
				}
				fmt.Fprintf(&b, "- [%s](%s): %s\n", c.Normalized(), c.CanonicalURL, c.CanonicalName)
			}
			b.WriteString("\n")
		}
	}

	if parallel := multiMemberClusters(result); len(parallel) > 0 {
		b.WriteString("## Parallel Citation Clusters\n\n")
		for _, cl := range parallel {
			title := cl.CanonicalName
			if title == "" {
				title = "Unidentified case"
			}
			if cl.CanonicalDate != "" {
				fmt.Fprintf(&b, "### Cluster %d: %s (%s)\n\n", cl.ID, title, cl.CanonicalDate)
			} else {
				fmt.Fprintf(&b, "### Cluster %d: %s\n\n", cl.ID, title)
			}
			for _, idx := range cl.Members {
				if idx < 0 || idx >= len(result.Citations) {
					continue
				}
				c := &result.Citations[idx]
				if c.Verified {
					fmt.Fprintf(&b, "- %s (verified: %s)\n", c.Text, c.Source)
				} else {
					fmt.Fprintf(&b, "- %s\n", c.Text)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(result.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range result.Notes {
			fmt.Fprintf(&b, "- **%s**: %s\n", n.Severity, n.Message)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Report generated by [citecheck](https://github.com/pbechard/citecheck). Verification confirms a citation exists at the named source; it is not legal advice.*\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderLLMMarkdown writes the separate LLM summary file
func (r *Renderer) RenderLLMMarkdown(markdown string, path string) error {
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderSummary prints a short console summary of the run
func (r *Renderer) RenderSummary(result *model.Result) {
	fmt.Printf("\nFound %d citation(s), %d verified, %d cluster(s) in %d ms\n",
		result.Stats.CitationCount, result.Stats.VerifiedCount,
		result.Stats.ClusterCount, result.Stats.ElapsedMS)

	for i := range result.Citations {
		c := &result.Citations[i]
		mark := "✗"
		detail := c.ExtractedCaseName
		if c.Verified {
			mark = "✓"
			detail = c.CanonicalName
		}
		if detail != "" {
			fmt.Printf("  %s %s  %s\n", mark, c.Normalized(), detail)
		} else {
			fmt.Printf("  %s %s\n", mark, c.Normalized())
		}
	}

	for _, n := range result.Notes {
		if n.Severity != model.SeverityInfo {
			fmt.Printf("  ! %s\n", n.Message)
		}
	}
}

// multiMemberClusters filters the partition down to true parallel
// groups; singletons add nothing to the report.
func multiMemberClusters(result *model.Result) []model.Cluster {
	var out []model.Cluster
	for _, cl := range result.Clusters {
		if cl.Size >= 2 {
			out = append(out, cl)
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
