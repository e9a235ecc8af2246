package verify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pbechard/citecheck/internal/model"
	"github.com/pbechard/citecheck/internal/worker"
)

const brownLookupResponse = `[
  {
    "citation": "347 U.S. 483",
    "normalized_citations": ["347 U.S. 483"],
    "status": 200,
    "error_message": "",
    "clusters": [
      {
        "case_name": "Brown v. Board of Education",
        "absolute_url": "/opinion/105221/brown-v-board-of-education/",
        "date_filed": "1954-05-17"
      }
    ]
  }
]`

func newLookupSource(t *testing.T, serverURL, token string, maxRetries int) *LookupSource {
	t.Helper()
	cfg := model.VerifyConfig{
		LookupURL:   serverURL + "/api/rest/v4/citation-lookup/",
		LookupToken: token,
		MaxRetries:  maxRetries,
	}
	return NewLookupSource(cfg, testHTTPConfig(), worker.NewLimiter(100, 10))
}

func usCitation() *model.Citation {
	return &model.Citation{
		Text:     "347 U.S. 483",
		Volume:   "347",
		Reporter: "U.S.",
		Page:     "483",
	}
}

func TestLookupSource_SingleMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if got := r.FormValue("text"); got != "347 U.S. 483" {
			t.Errorf("Expected citation text '347 U.S. 483', got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, brownLookupResponse)
	}))
	defer server.Close()

	source := newLookupSource(t, server.URL, "", 3)
	attempt, err := source.Attempt(context.Background(), Target{Citation: usCitation()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if attempt.Outcome != model.OutcomeMatch {
		t.Fatalf("Expected match, got %s", attempt.Outcome)
	}
	if attempt.Confidence != WeightLookup {
		t.Errorf("Expected confidence %v, got %v", WeightLookup, attempt.Confidence)
	}
	if attempt.CanonicalName != "Brown v. Board of Education" {
		t.Errorf("Unexpected canonical name: %s", attempt.CanonicalName)
	}
	if attempt.CanonicalDate != "1954-05-17" {
		t.Errorf("Unexpected canonical date: %s", attempt.CanonicalDate)
	}
	wantURL := server.URL + "/opinion/105221/brown-v-board-of-education/"
	if attempt.CanonicalURL != wantURL {
		t.Errorf("Expected URL %s, got %s", wantURL, attempt.CanonicalURL)
	}
}

func TestLookupSource_AmbiguousRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `[
  {
    "citation": "15 P.3d 1",
    "status": 200,
    "clusters": [
      {"case_name": "State v. One", "absolute_url": "/opinion/1/one/", "date_filed": "2000-01-01"},
      {"case_name": "State v. Two", "absolute_url": "/opinion/2/two/", "date_filed": "2000-02-02"}
    ]
  }
]`)
	}))
	defer server.Close()

	source := newLookupSource(t, server.URL, "", 3)
	attempt, err := source.Attempt(context.Background(), Target{Citation: usCitation()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeNoMatch {
		t.Errorf("Expected no_match for ambiguous citation, got %s", attempt.Outcome)
	}
	if attempt.CanonicalName != "" {
		t.Errorf("Expected no canonical name, got %s", attempt.CanonicalName)
	}
}

func TestLookupSource_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `[{"citation": "999 U.S. 999", "status": 404, "clusters": []}]`)
	}))
	defer server.Close()

	source := newLookupSource(t, server.URL, "", 3)
	attempt, err := source.Attempt(context.Background(), Target{Citation: usCitation()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeNoMatch {
		t.Errorf("Expected no_match, got %s", attempt.Outcome)
	}
}

func TestLookupSource_MissingNameRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `[
  {
    "citation": "347 U.S. 483",
    "status": 200,
    "clusters": [{"case_name": "", "absolute_url": "/opinion/105221/x/", "date_filed": "1954-05-17"}]
  }
]`)
	}))
	defer server.Close()

	source := newLookupSource(t, server.URL, "", 3)
	attempt, err := source.Attempt(context.Background(), Target{Citation: usCitation()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.Outcome != model.OutcomeNoMatch {
		t.Errorf("Expected no_match without a case name, got %s", attempt.Outcome)
	}
}

func TestLookupSource_RetriesTransient(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, brownLookupResponse)
	}))
	defer server.Close()

	origSleep := lookupSleepFunc
	lookupSleepFunc = func(d time.Duration) {}
	defer func() { lookupSleepFunc = origSleep }()

	source := newLookupSource(t, server.URL, "", 3)
	attempt, err := source.Attempt(context.Background(), Target{Citation: usCitation()})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if attempt.Outcome != model.OutcomeMatch {
		t.Errorf("Expected match, got %s", attempt.Outcome)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestLookupSource_ExhaustedRetriesReturnError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	origSleep := lookupSleepFunc
	lookupSleepFunc = func(d time.Duration) {}
	defer func() { lookupSleepFunc = origSleep }()

	source := newLookupSource(t, server.URL, "", 2)
	_, err := source.Attempt(context.Background(), Target{Citation: usCitation()})
	if err == nil {
		t.Fatal("Expected transport error after exhausted retries, got nil")
	}
	if attempts.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts.Load())
	}
}

func TestLookupSource_TokenHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token sekrit" {
			t.Errorf("Expected 'Token sekrit' header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, brownLookupResponse)
	}))
	defer server.Close()

	source := newLookupSource(t, server.URL, "sekrit", 3)
	if _, err := source.Attempt(context.Background(), Target{Citation: usCitation()}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestLookupSource_AbsoluteURLKept(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `[
  {
    "citation": "347 U.S. 483",
    "status": 200,
    "clusters": [{"case_name": "Brown v. Board of Education", "absolute_url": "https://example.org/opinion/105221/", "date_filed": "1954-05-17"}]
  }
]`)
	}))
	defer server.Close()

	source := newLookupSource(t, server.URL, "", 3)
	attempt, err := source.Attempt(context.Background(), Target{Citation: usCitation()})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if attempt.CanonicalURL != "https://example.org/opinion/105221/" {
		t.Errorf("Expected absolute URL kept as-is, got %s", attempt.CanonicalURL)
	}
}
