// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the paper recommender:
// papers, citation edges, pipeline runs, recommendation candidates, and
// the configuration and error types used across stages.
package types

import "time"

// PaperStatus tracks how far a paper has progressed through the pipeline.
// Status only moves forward, except into StatusFailed; a retry resets a
// failed paper to its last successful stage.
type PaperStatus string

const (
	StatusIngested    PaperStatus = "ingested"
	StatusTransformed PaperStatus = "transformed"
	StatusEmbedded    PaperStatus = "embedded"
	StatusIndexed     PaperStatus = "indexed"
	StatusFailed      PaperStatus = "failed"
)

// statusOrder maps each forward status to its position in the pipeline.
var statusOrder = map[PaperStatus]int{
	StatusIngested:    0,
	StatusTransformed: 1,
	StatusEmbedded:    2,
	StatusIndexed:     3,
}

// AtLeast reports whether s has reached want in the forward ordering.
// StatusFailed has reached nothing.
func (s PaperStatus) AtLeast(want PaperStatus) bool {
	si, ok := statusOrder[s]
	if !ok {
		return false
	}
	wi, ok := statusOrder[want]
	if !ok {
		return false
	}
	return si >= wi
}

// CanTransition reports whether moving from s to next is a legal status
// change: one step forward, any step into StatusFailed, or a reset from
// StatusFailed back to a forward stage.
func (s PaperStatus) CanTransition(next PaperStatus) bool {
	if next == StatusFailed {
		return true
	}
	ni, ok := statusOrder[next]
	if !ok {
		return false
	}
	if s == StatusFailed {
		return true
	}
	si, ok := statusOrder[s]
	if !ok {
		return false
	}
	return ni == si+1
}

// Paper is the canonical unit of the corpus. ID is globally unique and
// immutable once assigned (e.g. an arXiv id).
type Paper struct {
	// ID is the stable external identifier (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract after cleaning.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// PublishedAt is the publication or preprint date.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// References holds ids of papers this paper cites. Entries may point
	// outside the corpus.
	References []string `json:"references,omitempty" yaml:"references,omitempty"`

	// Source identifies which backend supplied the record (e.g. "arxiv",
	// "semantic_scholar").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Status is the last pipeline stage this paper completed.
	Status PaperStatus `json:"status" yaml:"status"`

	// Fingerprint is a content hash over title, abstract, and authors,
	// used to detect source changes between runs.
	Fingerprint string `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
}

// RawPaperRecord is what an ingestion source delivers before cleaning.
// Any field except ID may be empty.
type RawPaperRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Abstract      string    `json:"abstract"`
	Authors       []string  `json:"authors"`
	PublishedAt   time.Time `json:"published_at"`
	RawReferences []string  `json:"raw_references"`
	Source        string    `json:"source"`
}

// CitationEdge is a directed citation relation: FromID cites ToID. ToID
// may name a paper not yet ingested; such dangling edges are retained and
// become traversable once the target arrives.
type CitationEdge struct {
	FromID string `json:"from_id" yaml:"from_id"`
	ToID   string `json:"to_id" yaml:"to_id"`
}
