// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/httputil"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,references.externalIds,references.paperId"

// SemanticScholarSource fetches records from the Semantic Scholar graph
// API, including each paper's reference list for the citation graph.
type SemanticScholarSource struct {
	Client *http.Client
	APIKey string
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() string { return "semantic_scholar" }

// Fetch queries the Semantic Scholar API and returns raw records.
func (s *SemanticScholarSource) Fetch(ctx context.Context, query string, cfg types.IngestionConfig) ([]types.RawPaperRecord, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{
		"query":  {query},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if s.APIKey != "" {
		req.Header.Set("x-api-key", s.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, types.Transient("Semantic Scholar API request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.RawPaperRecord
	for _, paper := range sr.Data {
		r := types.RawPaperRecord{
			ID:       paperIdentifier(paper.ExternalIDs, paper.PaperID),
			Title:    paper.Title,
			Abstract: paper.Abstract,
			Source:   "semantic_scholar",
		}
		if r.ID == "" {
			continue
		}

		for _, a := range paper.Authors {
			r.Authors = append(r.Authors, a.Name)
		}

		if paper.PublicationDate != "" {
			if t, parseErr := time.Parse("2006-01-02", paper.PublicationDate); parseErr == nil {
				r.PublishedAt = t
			}
		} else if paper.Year > 0 {
			r.PublishedAt = time.Date(paper.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		}

		for _, ref := range paper.References {
			if id := paperIdentifier(ref.ExternalIDs, ref.PaperID); id != "" {
				r.RawReferences = append(r.RawReferences, id)
			}
		}

		records = append(records, r)
	}
	return records, nil
}

// paperIdentifier picks the stable id for a paper: arXiv id first, then
// DOI, then the Semantic Scholar internal id.
func paperIdentifier(ext semanticExternalIDs, fallback string) string {
	if ext.ArXiv != "" {
		return ext.ArXiv
	}
	if ext.DOI != "" {
		return ext.DOI
	}
	return fallback
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
	References      []semanticRef       `json:"references"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticRef struct {
	PaperID     string              `json:"paperId"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
