// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store defines the four backing store clients — relational
// metadata, vector index, citation graph, and blob storage — and their
// implementations. Each store is independent; the multi-store writer
// coordinates writes across them without assuming exclusive access.
package store

import (
	"context"
	"errors"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// ErrNotFound reports a lookup miss in any store.
var ErrNotFound = errors.New("not found")

// Metadata is the authoritative table of paper records and processing
// status, plus pipeline run records. A paper present here is "in the
// system" even when other stores still need repair.
type Metadata interface {
	// UpsertPaper writes a paper record, overwriting any existing record
	// with the same id.
	UpsertPaper(ctx context.Context, p *types.Paper) error

	// GetPaper returns the record for id, or ErrNotFound.
	GetPaper(ctx context.Context, id string) (*types.Paper, error)

	// ListByStatus returns all papers with the given status.
	ListByStatus(ctx context.Context, status types.PaperStatus) ([]*types.Paper, error)

	// ListAll returns every paper record.
	ListAll(ctx context.Context) ([]*types.Paper, error)

	// UpdateStatus moves a paper to status without touching other fields.
	UpdateStatus(ctx context.Context, id string, status types.PaperStatus) error

	// SaveRun persists a pipeline run record, overwriting by run id.
	SaveRun(ctx context.Context, run *types.PipelineRun) error

	// GetRun returns a run record, or ErrNotFound.
	GetRun(ctx context.Context, runID string) (*types.PipelineRun, error)
}

// Hit is one nearest-neighbor result.
type Hit struct {
	PaperID    string
	Similarity float64
}

// Vector is the nearest-neighbor index over paper embeddings.
type Vector interface {
	// Upsert stores a vector keyed by paper id, overwriting any previous
	// vector for that id without leaving duplicates.
	Upsert(ctx context.Context, paperID string, vec []float32) error

	// Get returns the stored vector for paperID, or ErrNotFound.
	Get(ctx context.Context, paperID string) ([]float32, error)

	// Search returns the k most cosine-similar vectors, excluding
	// excludeID (the seed paper matching itself). An empty index returns
	// an empty slice, not an error.
	Search(ctx context.Context, vec []float32, k int, excludeID string) ([]Hit, error)
}

// Graph is the directed citation edge store. Edges may reference papers
// not yet ingested; such dangling edges are retained and become
// traversable once the target arrives.
type Graph interface {
	// InsertEdges inserts edges, idempotent on the (from, to) pair.
	InsertEdges(ctx context.Context, edges []types.CitationEdge) error

	// Neighbors returns every edge touching id, in either direction.
	Neighbors(ctx context.Context, id string) ([]types.CitationEdge, error)
}

// Blob is the durable store of full paper JSON payloads keyed by id.
type Blob interface {
	// Put writes the payload for paperID, overwriting any existing one.
	Put(ctx context.Context, paperID string, data []byte) error

	// Get returns the payload for paperID, or ErrNotFound.
	Get(ctx context.Context, paperID string) ([]byte, error)
}
