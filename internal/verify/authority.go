package verify

import (
	"net/url"
	"sort"
	"strings"
)

// Authority tiers for legal-reference hosts. Every candidate page
// costs a fetch, so when a search returns several allow-listed hits
// the court-run sites are validated before the aggregators.
const (
	tierPrimary   = 1 // courts and government archives
	tierSecondary = 2 // established opinion publishers
	tierTertiary  = 3 // everything else on the allow-list
)

// secondaryHosts publish full opinion text and reliably carry the
// citation in the page head.
var secondaryHosts = []string{
	"courtlistener.com",
	"law.cornell.edu",
	"justia.com",
	"caselaw.findlaw.com",
	"casetext.com",
	"openjurist.org",
	"leagle.com",
}

// authorityTier ranks a host. Government and court hosts are primary,
// known publishers secondary, the rest tertiary.
func authorityTier(host string) int {
	if host == "" {
		return tierTertiary
	}

	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".us") {
		return tierPrimary
	}

	for _, s := range secondaryHosts {
		if host == s || strings.HasSuffix(host, "."+s) {
			return tierSecondary
		}
	}

	return tierTertiary
}

// rankByAuthority stable-sorts search results so higher-authority
// hosts come first. Within a tier the engine's own ranking is kept.
func rankByAuthority(results []searchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return authorityTier(urlHost(results[i].URL)) < authorityTier(urlHost(results[j].URL))
	})
}

// urlHost extracts the lowercased host of a URL, without port.
// Unparseable URLs yield "".
func urlHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
