// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// DefaultWeights weighs vector and graph evidence equally.
func DefaultWeights() map[types.Source]float64 {
	return map[types.Source]float64{
		types.SourceVector: 1,
		types.SourceGraph:  1,
	}
}

// fusedEntry accumulates per-source evidence for one paper during
// fusion.
type fusedEntry struct {
	paperID     string
	perSource   map[types.Source]float64
	publishedAt time.Time
}

// Fuse merges candidate lists from multiple retrieval sources into one
// ranked, deduplicated recommendation list.
//
// Each paper's fused score is the weighted sum of its best score per
// source, normalized by the total configured weight. The denominator
// always covers every configured source, so a paper found by only one
// source is penalized for the missing evidence rather than promoted
// over papers corroborated by both.
//
// Ties break on number of contributing sources (more first), then
// publication recency, then paper id. Truncation to k happens only
// after the full ranking, so a low-scoring early candidate cannot
// displace a better late one.
func Fuse(lists [][]types.Candidate, weights map[types.Source]float64, k int) []types.Recommendation {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}

	var totalWeight float64
	for _, w := range weights {
		totalWeight += w
	}
	if totalWeight <= 0 {
		return nil
	}

	entries := map[string]*fusedEntry{}
	for _, list := range lists {
		for _, c := range list {
			if _, ok := weights[c.Source]; !ok {
				continue
			}
			e := entries[c.PaperID]
			if e == nil {
				e = &fusedEntry{paperID: c.PaperID, perSource: map[types.Source]float64{}}
				entries[c.PaperID] = e
			}
			if cur, ok := e.perSource[c.Source]; !ok || c.Score > cur {
				e.perSource[c.Source] = c.Score
			}
			if c.PublishedAt.After(e.publishedAt) {
				e.publishedAt = c.PublishedAt
			}
		}
	}

	recs := make([]types.Recommendation, 0, len(entries))
	for _, e := range entries {
		var sum float64
		sources := make([]types.Source, 0, len(e.perSource))
		for src, score := range e.perSource {
			sum += weights[src] * score
			sources = append(sources, src)
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
		recs = append(recs, types.Recommendation{
			PaperID:     e.paperID,
			Score:       sum / totalWeight,
			Sources:     sources,
			PublishedAt: e.publishedAt,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		if len(recs[i].Sources) != len(recs[j].Sources) {
			return len(recs[i].Sources) > len(recs[j].Sources)
		}
		if !recs[i].PublishedAt.Equal(recs[j].PublishedAt) {
			return recs[i].PublishedAt.After(recs[j].PublishedAt)
		}
		return recs[i].PaperID < recs[j].PaperID
	})

	if k > 0 && len(recs) > k {
		recs = recs[:k]
	}
	return recs
}

// Annotate fills in title and abstract for each recommendation from
// the metadata store, best effort.
func Annotate(ctx context.Context, meta store.Metadata, recs []types.Recommendation) {
	for i := range recs {
		if p, err := meta.GetPaper(ctx, recs[i].PaperID); err == nil {
			recs[i].Title = p.Title
			recs[i].Abstract = p.Abstract
		}
	}
}
