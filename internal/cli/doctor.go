package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/pbechard/citecheck/internal/validate"
	"github.com/spf13/cobra"
)

var doctorTimeout time.Duration

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that verification sources are reachable",
	Long: `Doctor probes every external endpoint the verification chain depends
on: the citation-lookup API, the metasearch endpoint, and the
legal-reference sites on the search allow-list.

It confirms the sources answer; it does not look up any citation. Run
it when checks come back with everything unverified to tell source
outages apart from citations that genuinely do not exist.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 30*time.Second, "overall probe timeout")
	doctorCmd.Flags().StringVar(&userAgent, "ua", "citecheck/0.3 (+https://github.com/pbechard/citecheck)", "HTTP User-Agent for probe requests")
	doctorCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	doctorCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), doctorTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	var targets []validate.Target
	if cfg.Verify.LookupURL != "" {
		targets = append(targets, validate.Target{Name: "citation-lookup", URL: cfg.Verify.LookupURL})
	}
	if cfg.Verify.SearchURL != "" {
		targets = append(targets, validate.Target{Name: "web-search", URL: cfg.Verify.SearchURL})
	}
	for _, domain := range cfg.Verify.SearchDomains {
		targets = append(targets, validate.Target{Name: domain, URL: "https://" + domain + "/"})
	}

	if len(targets) == 0 {
		fmt.Println("No verification sources configured; nothing to probe.")
		return nil
	}

	fmt.Printf("⚙️  Probing %d verification sources...\n\n", len(targets))

	prober := validate.NewProber(cfg.HTTP, 4)
	results := prober.ProbeAll(ctx, targets)

	unreachable := 0
	for _, r := range results {
		if r.Reachable {
			fmt.Printf("  ✓ %-28s %d in %dms\n", r.Name, r.StatusCode, r.Latency.Milliseconds())
			continue
		}
		unreachable++
		if r.Error != "" {
			fmt.Printf("  ✗ %-28s %s\n", r.Name, r.Error)
		} else {
			fmt.Printf("  ✗ %-28s status %d\n", r.Name, r.StatusCode)
		}
	}

	fmt.Println()
	if unreachable > 0 {
		return fmt.Errorf("%d of %d sources unreachable", unreachable, len(results))
	}
	fmt.Printf("✓ All %d sources reachable\n", len(results))
	return nil
}
