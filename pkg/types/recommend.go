// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Source identifies which retrieval strategy produced a candidate.
type Source string

const (
	SourceVector Source = "vector"
	SourceGraph  Source = "graph"
	SourceHybrid Source = "hybrid"
)

// Candidate is a provisional recommendation before fusion. Multiple
// candidates for the same paper id from different sources are merged by
// the fuser; candidates are never persisted.
type Candidate struct {
	// PaperID identifies the recommended paper.
	PaperID string `json:"paper_id"`

	// Score is the strategy score in [0,1]: cosine similarity for vector
	// candidates, hop decay for graph candidates.
	Score float64 `json:"score"`

	// Source is the retrieval strategy that produced this candidate.
	Source Source `json:"source"`

	// PublishedAt carries the paper date for recency tie-breaking.
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Recommendation is one fused, ranked output entry.
type Recommendation struct {
	// PaperID identifies the recommended paper.
	PaperID string `json:"paper_id"`

	// Score is the fused score.
	Score float64 `json:"score"`

	// Sources lists the strategies that contributed, for provenance.
	Sources []Source `json:"sources"`

	// PublishedAt carries the paper date through fusion for tie-breaking.
	PublishedAt time.Time `json:"published_at,omitempty"`

	// Title and Abstract are filled from the metadata store when available.
	Title    string `json:"title,omitempty"`
	Abstract string `json:"abstract,omitempty"`
}
