// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const semanticResponseJSON = `{
  "total": 2,
  "offset": 0,
  "data": [
    {
      "paperId": "abc123",
      "title": "Attention Is All You Need",
      "abstract": "The dominant sequence transduction models.",
      "year": 2017,
      "publicationDate": "2017-06-12",
      "authors": [{"authorId": "a1", "name": "Ashish Vaswani"}],
      "externalIds": {"ArXiv": "1706.03762", "DOI": "10.5555/3295222"},
      "references": [
        {"paperId": "ref1", "externalIds": {"ArXiv": "1409.0473"}},
        {"paperId": "ref2", "externalIds": {"DOI": "10.1162/neco.1997"}},
        {"paperId": "", "externalIds": {}}
      ]
    },
    {
      "paperId": "def456",
      "title": "No External IDs",
      "abstract": "",
      "year": 2020,
      "publicationDate": "",
      "authors": [],
      "externalIds": {},
      "references": []
    }
  ]
}`

func semanticTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() { semanticAPIBase = old })
	return ts
}

func TestSemanticScholarFetchParsesResponse(t *testing.T) {
	ts := semanticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, semanticResponseJSON)
	})

	s := &SemanticScholarSource{Client: ts.Client()}
	records, err := s.Fetch(context.Background(), "attention", testCfg())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r := records[0]
	if r.ID != "1706.03762" {
		t.Errorf("ID = %q, want the arXiv id", r.ID)
	}
	if len(r.RawReferences) != 2 {
		t.Fatalf("RawReferences = %v, want 2 resolvable references", r.RawReferences)
	}
	if r.RawReferences[0] != "1409.0473" {
		t.Errorf("first reference = %q, want arXiv id", r.RawReferences[0])
	}
	if r.RawReferences[1] != "10.1162/neco.1997" {
		t.Errorf("second reference = %q, want DOI fallback", r.RawReferences[1])
	}
	if r.PublishedAt.Year() != 2017 || r.PublishedAt.Month() != 6 {
		t.Errorf("PublishedAt = %v", r.PublishedAt)
	}

	// A paper with no external ids falls back to the internal id; a year
	// without a publication date becomes January 1 of that year.
	if records[1].ID != "def456" {
		t.Errorf("fallback ID = %q, want paperId", records[1].ID)
	}
	if records[1].PublishedAt.Year() != 2020 {
		t.Errorf("year-only PublishedAt = %v", records[1].PublishedAt)
	}
}

func TestSemanticScholarFetchRequestParams(t *testing.T) {
	var captured *http.Request
	ts := semanticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	})

	cfg := testCfg()
	cfg.MaxResults = 15
	cfg.SemanticScholarAPIKey = "secret-key"

	s := &SemanticScholarSource{Client: ts.Client(), APIKey: cfg.SemanticScholarAPIKey}
	if _, err := s.Fetch(context.Background(), "graph neural networks", cfg); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	q := captured.URL.Query()
	if got := q.Get("query"); got != "graph neural networks" {
		t.Errorf("query = %q", got)
	}
	if got := q.Get("limit"); got != "15" {
		t.Errorf("limit = %q, want 15", got)
	}
	if got := q.Get("fields"); got != semanticFields {
		t.Errorf("fields = %q", got)
	}
	if got := captured.Header.Get("x-api-key"); got != "secret-key" {
		t.Errorf("x-api-key = %q", got)
	}
}

func TestSemanticScholarFetchServerError(t *testing.T) {
	ts := semanticTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	s := &SemanticScholarSource{Client: ts.Client()}
	if _, err := s.Fetch(context.Background(), "attention", testCfg()); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestPaperIdentifierPreference(t *testing.T) {
	tests := []struct {
		name string
		ext  semanticExternalIDs
		fall string
		want string
	}{
		{"arxiv first", semanticExternalIDs{ArXiv: "2301.07041", DOI: "10.1/x"}, "p1", "2301.07041"},
		{"doi second", semanticExternalIDs{DOI: "10.1/x"}, "p1", "10.1/x"},
		{"fallback", semanticExternalIDs{}, "p1", "p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paperIdentifier(tt.ext, tt.fall); got != tt.want {
				t.Errorf("paperIdentifier = %q, want %q", got, tt.want)
			}
		})
	}
}
