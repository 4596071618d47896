// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// fixedGenerator returns the same embedding for any text.
type fixedGenerator struct {
	vec []float32
}

func (g fixedGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	return g.vec, nil
}

func (g fixedGenerator) Dimension() int { return len(g.vec) }

type fixture struct {
	meta  *store.MemMetadata
	vec   *store.MemVector
	graph *store.MemGraph
}

func newFixture() *fixture {
	return &fixture{
		meta:  store.NewMemMetadata(),
		vec:   store.NewMemVector(),
		graph: store.NewMemGraph(),
	}
}

func (f *fixture) retriever(gen fixedGenerator, depth int) *Retriever {
	return NewRetriever(f.meta, f.vec, f.graph, gen, depth, nil)
}

func (f *fixture) addPaper(t *testing.T, id string, status types.PaperStatus) {
	t.Helper()
	p := &types.Paper{ID: id, Title: id, Status: status}
	if err := f.meta.UpsertPaper(context.Background(), p); err != nil {
		t.Fatalf("seeding paper %s: %v", id, err)
	}
}

func (f *fixture) addEmbedding(t *testing.T, id string, vec []float32) {
	t.Helper()
	if err := f.vec.Upsert(context.Background(), id, vec); err != nil {
		t.Fatalf("seeding embedding %s: %v", id, err)
	}
}

func (f *fixture) addEdges(t *testing.T, edges ...types.CitationEdge) {
	t.Helper()
	if err := f.graph.InsertEdges(context.Background(), edges); err != nil {
		t.Fatalf("seeding edges: %v", err)
	}
}

func scoreOf(t *testing.T, cands []types.Candidate, id string) float64 {
	t.Helper()
	for _, c := range cands {
		if c.PaperID == id {
			return c.Score
		}
	}
	t.Fatalf("candidate %s not found in %v", id, cands)
	return 0
}

func TestRetrieveVectorByText(t *testing.T) {
	f := newFixture()
	f.addPaper(t, "close", types.StatusIndexed)
	f.addPaper(t, "far", types.StatusIndexed)
	f.addEmbedding(t, "close", []float32{1, 0, 0})
	f.addEmbedding(t, "far", []float32{0, 1, 0})

	r := f.retriever(fixedGenerator{vec: []float32{1, 0, 0}}, 0)
	cands, err := r.Retrieve(context.Background(), Query{Text: "attention mechanisms"}, 10, types.SourceVector)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	if cands[0].PaperID != "close" {
		t.Errorf("expected nearest paper first, got %s", cands[0].PaperID)
	}
	for _, c := range cands {
		if c.Source != types.SourceVector {
			t.Errorf("candidate %s tagged %s, want vector", c.PaperID, c.Source)
		}
	}
}

func TestRetrieveVectorBySeedExcludesSeed(t *testing.T) {
	f := newFixture()
	f.addPaper(t, "seed", types.StatusIndexed)
	f.addPaper(t, "other", types.StatusIndexed)
	f.addEmbedding(t, "seed", []float32{1, 0})
	f.addEmbedding(t, "other", []float32{1, 0})

	r := f.retriever(fixedGenerator{}, 0)
	cands, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceVector)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 1 || cands[0].PaperID != "other" {
		t.Fatalf("expected only the other paper, got %v", cands)
	}
}

func TestRetrieveVectorSeedNotEmbedded(t *testing.T) {
	f := newFixture()
	f.addPaper(t, "seed", types.StatusIngested)

	r := f.retriever(fixedGenerator{}, 0)
	_, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceVector)
	if !types.IsNotReady(err) {
		t.Fatalf("expected NotReadyError, got %v", err)
	}
	var nrErr *types.NotReadyError
	if !errors.As(err, &nrErr) {
		t.Fatalf("error does not unwrap to NotReadyError: %v", err)
	}
	if nrErr.Required != types.StatusEmbedded {
		t.Errorf("Required = %s, want %s", nrErr.Required, types.StatusEmbedded)
	}
	if nrErr.Status != types.StatusIngested {
		t.Errorf("Status = %s, want %s", nrErr.Status, types.StatusIngested)
	}
}

func TestRetrieveGraphHopDecay(t *testing.T) {
	f := newFixture()
	// seed cites direct; direct cites distant.
	f.addEdges(t,
		types.CitationEdge{FromID: "seed", ToID: "direct"},
		types.CitationEdge{FromID: "direct", ToID: "distant"},
	)

	r := f.retriever(fixedGenerator{}, 2)
	cands, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceGraph)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(cands))
	}
	direct := scoreOf(t, cands, "direct")
	distant := scoreOf(t, cands, "distant")
	if direct != 1.0 {
		t.Errorf("direct neighbor score = %v, want 1.0", direct)
	}
	if distant != 0.5 {
		t.Errorf("two-hop score = %v, want 0.5", distant)
	}
	if direct <= distant {
		t.Errorf("expected direct > distant, got %v vs %v", direct, distant)
	}
}

func TestRetrieveGraphBothDirections(t *testing.T) {
	f := newFixture()
	// cited cites seed; seed cites reference.
	f.addEdges(t,
		types.CitationEdge{FromID: "citing", ToID: "seed"},
		types.CitationEdge{FromID: "seed", ToID: "reference"},
	)

	r := f.retriever(fixedGenerator{}, 1)
	cands, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceGraph)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("expected both directions reachable, got %v", cands)
	}
	if scoreOf(t, cands, "citing") != 1.0 || scoreOf(t, cands, "reference") != 1.0 {
		t.Errorf("expected score 1.0 on both one-hop neighbors: %v", cands)
	}
}

func TestRetrieveGraphShortestPathWins(t *testing.T) {
	f := newFixture()
	// hub is reachable directly and through intermediate.
	f.addEdges(t,
		types.CitationEdge{FromID: "seed", ToID: "hub"},
		types.CitationEdge{FromID: "seed", ToID: "intermediate"},
		types.CitationEdge{FromID: "intermediate", ToID: "hub"},
	)

	r := f.retriever(fixedGenerator{}, 2)
	cands, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceGraph)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if got := scoreOf(t, cands, "hub"); got != 1.0 {
		t.Errorf("hub score = %v, want shortest-hop score 1.0", got)
	}
}

func TestRetrieveGraphDepthBound(t *testing.T) {
	f := newFixture()
	f.addEdges(t,
		types.CitationEdge{FromID: "seed", ToID: "one"},
		types.CitationEdge{FromID: "one", ToID: "two"},
		types.CitationEdge{FromID: "two", ToID: "three"},
	)

	r := f.retriever(fixedGenerator{}, 2)
	cands, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceGraph)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, c := range cands {
		if c.PaperID == "three" {
			t.Errorf("paper beyond depth bound returned: %v", cands)
		}
	}
	if len(cands) != 2 {
		t.Errorf("expected 2 candidates within depth 2, got %d", len(cands))
	}
}

func TestRetrieveGraphOrderedAndBounded(t *testing.T) {
	f := newFixture()
	edges := []types.CitationEdge{
		{FromID: "seed", ToID: "p03"},
		{FromID: "seed", ToID: "p01"},
		{FromID: "p07", ToID: "seed"},
		{FromID: "p03", ToID: "p12"},
		{FromID: "p01", ToID: "p09"},
		{FromID: "p07", ToID: "p05"},
	}
	f.addEdges(t, edges...)

	r := f.retriever(fixedGenerator{}, 2)
	first, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceGraph)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	want := []string{"p01", "p03", "p07", "p05", "p09", "p12"}
	if len(first) != len(want) {
		t.Fatalf("expected %d candidates, got %v", len(want), first)
	}
	for i, id := range want {
		if first[i].PaperID != id {
			t.Fatalf("position %d = %s, want %s (full: %v)", i, first[i].PaperID, id, first)
		}
	}

	// Identical calls return the identical order.
	for i := 0; i < 20; i++ {
		again, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceGraph)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		for j := range want {
			if again[j].PaperID != first[j].PaperID {
				t.Fatalf("iteration %d reordered: %v vs %v", i, again, first)
			}
		}
	}

	// k bounds the result, keeping the best-scored candidates.
	top, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 2, types.SourceGraph)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(top) != 2 || top[0].PaperID != "p01" || top[1].PaperID != "p03" {
		t.Fatalf("expected top-2 one-hop neighbors, got %v", top)
	}
}

func TestRetrieveHybridDegradesToGraph(t *testing.T) {
	f := newFixture()
	f.addPaper(t, "seed", types.StatusTransformed)
	f.addEdges(t, types.CitationEdge{FromID: "seed", ToID: "neighbor"})

	r := f.retriever(fixedGenerator{}, 2)
	cands, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceHybrid)
	if err != nil {
		t.Fatalf("expected graph-only degradation, got error: %v", err)
	}
	if len(cands) != 1 || cands[0].PaperID != "neighbor" {
		t.Fatalf("expected the graph neighbor, got %v", cands)
	}
	if cands[0].Source != types.SourceGraph {
		t.Errorf("candidate tagged %s, want graph", cands[0].Source)
	}
}

func TestRetrieveHybridMergesBothSources(t *testing.T) {
	f := newFixture()
	f.addPaper(t, "seed", types.StatusIndexed)
	f.addPaper(t, "similar", types.StatusIndexed)
	f.addEmbedding(t, "seed", []float32{1, 0})
	f.addEmbedding(t, "similar", []float32{1, 0})
	f.addEdges(t, types.CitationEdge{FromID: "seed", ToID: "cited"})

	r := f.retriever(fixedGenerator{}, 2)
	cands, err := r.Retrieve(context.Background(), Query{SeedID: "seed"}, 10, types.SourceHybrid)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	sources := map[types.Source]bool{}
	for _, c := range cands {
		sources[c.Source] = true
	}
	if !sources[types.SourceVector] || !sources[types.SourceGraph] {
		t.Errorf("expected candidates from both sources, got %v", cands)
	}
}

func TestRetrieveEmptyStores(t *testing.T) {
	f := newFixture()
	r := f.retriever(fixedGenerator{vec: []float32{1, 0}}, 2)

	cands, err := r.Retrieve(context.Background(), Query{Text: "anything"}, 10, types.SourceVector)
	if err != nil {
		t.Fatalf("vector retrieve on empty store: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %v", cands)
	}

	cands, err = r.Retrieve(context.Background(), Query{SeedID: "ghost"}, 10, types.SourceGraph)
	if err != nil {
		t.Fatalf("graph retrieve on empty store: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %v", cands)
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	f := newFixture()
	r := f.retriever(fixedGenerator{}, 0)
	if _, err := r.Retrieve(context.Background(), Query{}, 10, types.SourceVector); err == nil {
		t.Fatal("expected error for empty query")
	}
	if _, err := r.Retrieve(context.Background(), Query{Text: "only text"}, 10, types.SourceGraph); err == nil {
		t.Fatal("expected error for graph strategy without a seed")
	}
}
