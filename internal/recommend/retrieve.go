// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recommend produces ranked paper recommendations by retrieving
// candidates from the vector index and citation graph and fusing them
// into one deduplicated, explainable list.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/embed"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

const defaultGraphDepth = 2

// Query identifies what to recommend against: free text, or a seed
// paper already in the corpus.
type Query struct {
	Text   string
	SeedID string
}

// Retriever produces scored candidate sets from the vector and graph
// stores.
type Retriever struct {
	meta  store.Metadata
	vec   store.Vector
	graph store.Graph
	gen   embed.Generator
	depth int
	log   *zap.Logger
}

// NewRetriever builds a retriever. depth bounds graph traversal; zero
// or negative uses the default (2). A nil logger logs nothing.
func NewRetriever(meta store.Metadata, vec store.Vector, graph store.Graph, gen embed.Generator, depth int, log *zap.Logger) *Retriever {
	if depth <= 0 {
		depth = defaultGraphDepth
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{meta: meta, vec: vec, graph: graph, gen: gen, depth: depth, log: log}
}

// Retrieve returns scored candidates for the query under the given
// strategy. Empty stores yield an empty result, never an error.
//
// A vector-strategy query against a seed paper that has not reached
// StatusEmbedded fails with a NotReadyError. The hybrid strategy
// instead degrades to graph-only results, tagged with the sources that
// actually contributed, so a partially indexed corpus still answers
// best-effort.
func (r *Retriever) Retrieve(ctx context.Context, q Query, k int, strategy types.Source) ([]types.Candidate, error) {
	if q.Text == "" && q.SeedID == "" {
		return nil, fmt.Errorf("query requires text or a seed paper id")
	}
	if k <= 0 {
		return nil, nil
	}

	switch strategy {
	case types.SourceVector:
		return r.vectorCandidates(ctx, q, k)

	case types.SourceGraph:
		if q.SeedID == "" {
			return nil, fmt.Errorf("graph strategy requires a seed paper id")
		}
		return r.graphCandidates(ctx, q.SeedID, k)

	case types.SourceHybrid:
		vecCands, err := r.vectorCandidates(ctx, q, k)
		if err != nil {
			if !types.IsNotReady(err) {
				return nil, err
			}
			// Seed not embedded yet: degrade to graph-only.
			r.log.Info("seed not embedded, graph-only retrieval",
				zap.String("seed_id", q.SeedID))
			vecCands = nil
		}
		var graphCands []types.Candidate
		if q.SeedID != "" {
			graphCands, err = r.graphCandidates(ctx, q.SeedID, k)
			if err != nil {
				return nil, err
			}
		}
		return append(vecCands, graphCands...), nil

	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// vectorCandidates embeds the query text, or reuses the seed paper's
// stored embedding, and returns the top-k cosine neighbors.
func (r *Retriever) vectorCandidates(ctx context.Context, q Query, k int) ([]types.Candidate, error) {
	var (
		vec     []float32
		exclude string
		err     error
	)

	switch {
	case q.Text != "":
		vec, err = r.gen.Embed(ctx, q.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding query: %w", err)
		}

	default:
		exclude = q.SeedID
		vec, err = r.vec.Get(ctx, q.SeedID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, r.notReady(ctx, q.SeedID)
		}
		if err != nil {
			return nil, fmt.Errorf("loading seed embedding: %w", err)
		}
	}

	hits, err := r.vec.Search(ctx, vec, k, exclude)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	cands := make([]types.Candidate, 0, len(hits))
	for _, h := range hits {
		cands = append(cands, types.Candidate{
			PaperID:     h.PaperID,
			Score:       h.Similarity,
			Source:      types.SourceVector,
			PublishedAt: r.publishedAt(ctx, h.PaperID),
		})
	}
	return cands, nil
}

// graphCandidates walks the citation graph breadth-first from the seed,
// both directions, bounded by the configured depth. Scores decay as
// 1/hop; a paper reached by several paths keeps its best (shortest-hop)
// score rather than a sum, so well-connected hubs are not over-counted.
// Results come back ordered by score descending, paper id ascending,
// truncated to k.
func (r *Retriever) graphCandidates(ctx context.Context, seedID string, k int) ([]types.Candidate, error) {
	visited := map[string]int{seedID: 0}
	frontier := []string{seedID}

	for hop := 1; hop <= r.depth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			edges, err := r.graph.Neighbors(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("graph traversal at %s: %w", id, err)
			}
			for _, e := range edges {
				for _, other := range []string{e.FromID, e.ToID} {
					if other == id {
						continue
					}
					if _, seen := visited[other]; seen {
						continue
					}
					visited[other] = hop
					next = append(next, other)
				}
			}
		}
		frontier = next
	}

	var cands []types.Candidate
	for id, hop := range visited {
		if id == seedID {
			continue
		}
		cands = append(cands, types.Candidate{
			PaperID:     id,
			Score:       1.0 / float64(hop),
			Source:      types.SourceGraph,
			PublishedAt: r.publishedAt(ctx, id),
		})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].PaperID < cands[j].PaperID
	})
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands, nil
}

// notReady builds the NotReadyError for a seed that has no embedding,
// reporting the seed's actual status when the metadata store knows it.
func (r *Retriever) notReady(ctx context.Context, seedID string) error {
	status := types.PaperStatus("")
	if p, err := r.meta.GetPaper(ctx, seedID); err == nil {
		status = p.Status
	}
	return &types.NotReadyError{PaperID: seedID, Status: status, Required: types.StatusEmbedded}
}

// publishedAt looks up a paper's date for recency tie-breaking. A miss
// leaves the zero time; the fuser treats that as least recent.
func (r *Retriever) publishedAt(ctx context.Context, id string) time.Time {
	if p, err := r.meta.GetPaper(ctx, id); err == nil {
		return p.PublishedAt
	}
	return time.Time{}
}
