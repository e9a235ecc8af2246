package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/reporters"
	"github.com/pbechard/citecheck/internal/worker"
)

func newWebSearchSource(searchURL string, domains []string, maxRetries int) *WebSearchSource {
	cfg := model.VerifyConfig{
		SearchURL:     searchURL,
		SearchDomains: domains,
		MaxRetries:    maxRetries,
	}
	return NewWebSearchSource(testFetcher(1), cfg, testHTTPConfig(), reporters.NewRegistry(), worker.NewLimiter(100, 10))
}

func hillCitation() *model.Citation {
	return &model.Citation{
		Text:     "123 Wn.2d 641",
		Volume:   "123",
		Reporter: "Wash. 2d",
		Page:     "641",
	}
}

const hillOpinionPage = `<html><head><title>State v. Hill, 123 Wn.2d 641, 870 P.2d 313 | Casetext</title></head>
<body><h1>State v. Hill</h1><p>123 Wn.2d 641, 870 P.2d 313. Supreme Court of Washington, 1994.</p>
<p>The court considered the sufficiency of the evidence.</p></body></html>`

func TestWebSearchSource_VerifiesCitedPage(t *testing.T) {
	var server *httptest.Server

	mux := http.NewServeMux()
	allowAllRobots(mux)
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		wantQ := `"State v. Hill" "123 Wash. 2d 641"`
		if got := r.URL.Query().Get("q"); got != wantQ {
			t.Errorf("Expected query %q, got %q", wantQ, got)
		}
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("Expected format=json, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"results": [{"title": "State v. Hill", "url": "%s/wash/hill", "content": "supreme court opinion"}]}`, server.URL)
	})
	mux.HandleFunc("/wash/hill", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, hillOpinionPage)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	source := newWebSearchSource(server.URL+"/search", []string{"127.0.0.1"}, 1)
	target := Target{Citation: hillCitation(), ExpectedName: "State v. Hill"}

	attempt, err := source.Attempt(context.Background(), target)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeMatch {
		t.Fatalf("Expected match, got %s", attempt.Outcome)
	}
	if attempt.CanonicalName != "State v. Hill" {
		t.Errorf("Unexpected canonical name: %q", attempt.CanonicalName)
	}
	if attempt.CanonicalURL != server.URL+"/wash/hill" {
		t.Errorf("Unexpected canonical URL: %s", attempt.CanonicalURL)
	}
	if attempt.Confidence != WeightWebSearch {
		t.Errorf("Expected confidence %v, got %v", WeightWebSearch, attempt.Confidence)
	}
}

func TestWebSearchSource_RejectsOffListDomain(t *testing.T) {
	var server *httptest.Server
	var pageHits atomic.Int32

	mux := http.NewServeMux()
	allowAllRobots(mux)
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"results": [{"title": "State v. Hill", "url": "%s/wash/hill", "content": ""}]}`, server.URL)
	})
	mux.HandleFunc("/wash/hill", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, hillOpinionPage)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	// The result host (127.0.0.1) is not on the allow-list
	source := newWebSearchSource(server.URL+"/search", []string{"courtlistener.com"}, 1)
	target := Target{Citation: hillCitation(), ExpectedName: "State v. Hill"}

	attempt, err := source.Attempt(context.Background(), target)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeNoMatch {
		t.Errorf("Expected no_match for off-list domain, got %s", attempt.Outcome)
	}
	if pageHits.Load() != 0 {
		t.Errorf("Expected off-list page never fetched, got %d hits", pageHits.Load())
	}
}

func TestWebSearchSource_RejectsCitingDocument(t *testing.T) {
	var server *httptest.Server

	mux := http.NewServeMux()
	allowAllRobots(mux)
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"results": [{"title": "Recent Search Cases", "url": "%s/review/article", "content": ""}]}`, server.URL)
	})
	mux.HandleFunc("/review/article", func(w http.ResponseWriter, r *http.Request) {
		// An article citing the case mid-body: the citation appears
		// well past the opening of the visible text.
		_, _ = fmt.Fprintf(w, `<html><head><title>Recent Search Cases | Law Review</title></head>
<body><p>%s</p><p>See State v. Hill, 123 Wn.2d 641 (1994).</p></body></html>`, strings.Repeat("commentary ", 100))
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	source := newWebSearchSource(server.URL+"/search", []string{"127.0.0.1"}, 1)
	target := Target{Citation: hillCitation(), ExpectedName: "State v. Hill"}

	attempt, err := source.Attempt(context.Background(), target)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeNoMatch {
		t.Errorf("Expected no_match for a citing document, got %s", attempt.Outcome)
	}
}

func TestWebSearchSource_SkipsBadCandidateThenMatches(t *testing.T) {
	var server *httptest.Server

	mux := http.NewServeMux()
	allowAllRobots(mux)
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"results": [
  {"title": "Recent Search Cases", "url": "%s/review/article", "content": ""},
  {"title": "State v. Hill", "url": "%s/wash/hill", "content": ""}
]}`, server.URL, server.URL)
	})
	mux.HandleFunc("/review/article", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `<html><body><p>%s State v. Hill, 123 Wn.2d 641.</p></body></html>`, strings.Repeat("commentary ", 100))
	})
	mux.HandleFunc("/wash/hill", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, hillOpinionPage)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	source := newWebSearchSource(server.URL+"/search", []string{"127.0.0.1"}, 1)
	target := Target{Citation: hillCitation(), ExpectedName: "State v. Hill"}

	attempt, err := source.Attempt(context.Background(), target)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeMatch {
		t.Fatalf("Expected match from second candidate, got %s", attempt.Outcome)
	}
	if attempt.CanonicalURL != server.URL+"/wash/hill" {
		t.Errorf("Unexpected canonical URL: %s", attempt.CanonicalURL)
	}
}

func TestWebSearchSource_NoExpectedName(t *testing.T) {
	var searchHits atomic.Int32
	mux := http.NewServeMux()
	allowAllRobots(mux)
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		searchHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"results": []}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source := newWebSearchSource(server.URL+"/search", []string{"127.0.0.1"}, 1)
	attempt, err := source.Attempt(context.Background(), Target{Citation: hillCitation()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeNoMatch {
		t.Errorf("Expected no_match without an expected name, got %s", attempt.Outcome)
	}
	if searchHits.Load() != 0 {
		t.Errorf("Expected no search call without an expected name, got %d", searchHits.Load())
	}
}

func TestWebSearchSource_SearchErrorReturnsError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	origSleep := searchSleepFunc
	searchSleepFunc = func(d time.Duration) {}
	defer func() { searchSleepFunc = origSleep }()

	source := newWebSearchSource(server.URL+"/search", []string{"127.0.0.1"}, 2)
	target := Target{Citation: hillCitation(), ExpectedName: "State v. Hill"}

	if _, err := source.Attempt(context.Background(), target); err == nil {
		t.Fatal("Expected transport error, got nil")
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestBuildQuery(t *testing.T) {
	withName := buildQuery(Target{Citation: usCitation(), ExpectedName: "Brown v. Board of Education"})
	if withName != `"Brown v. Board of Education" "347 U.S. 483"` {
		t.Errorf("Unexpected query: %s", withName)
	}

	without := buildQuery(Target{Citation: usCitation()})
	if without != `"347 U.S. 483"` {
		t.Errorf("Unexpected query: %s", without)
	}
}

func TestAllowedDomain(t *testing.T) {
	source := &WebSearchSource{domains: []string{"courtlistener.com", "law.justia.com"}}

	cases := []struct {
		url     string
		allowed bool
	}{
		{"https://courtlistener.com/opinion/1/", true},
		{"https://www.courtlistener.com/opinion/1/", true},
		{"https://law.justia.com/cases/", true},
		{"https://justia.com/cases/", false},
		{"https://courtlistener.com.evil.example/x", false},
		{"https://example.com/opinion/", false},
		{"not a url", false},
	}

	for _, tc := range cases {
		if got := source.allowedDomain(tc.url); got != tc.allowed {
			t.Errorf("allowedDomain(%q) = %v, expected %v", tc.url, got, tc.allowed)
		}
	}
}

func TestVisibleTextHead(t *testing.T) {
	page := `<html><head><title>Heading</title><style>body { color: red }</style></head>
<body><script>var x = "invisible";</script><p>First paragraph.</p><p>Second paragraph.</p></body></html>`

	head := visibleTextHead(page, 200)
	if !strings.Contains(head, "First paragraph.") {
		t.Errorf("Expected visible text, got %q", head)
	}
	if strings.Contains(head, "invisible") || strings.Contains(head, "color") {
		t.Errorf("Expected script and style skipped, got %q", head)
	}

	capped := visibleTextHead(page, 10)
	if len(capped) > 10 {
		t.Errorf("Expected head capped at 10 bytes, got %d", len(capped))
	}
}
