package persist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

type stores struct {
	meta  *store.MemMetadata
	vec   *store.MemVector
	graph *store.MemGraph
	blob  *store.MemBlob
}

func testWriter(t *testing.T) (*Writer, *stores) {
	t.Helper()
	s := &stores{
		meta:  store.NewMemMetadata(),
		vec:   store.NewMemVector(),
		graph: store.NewMemGraph(),
		blob:  store.NewMemBlob(),
	}
	return NewWriter(s.meta, s.vec, s.graph, s.blob, nil), s
}

func sampleInput() Input {
	return Input{
		Paper: &types.Paper{
			ID:     "2301.07041",
			Title:  "Efficient Attention",
			Status: types.StatusEmbedded,
		},
		Embedding: []float32{0.1, 0.2, 0.3},
		Edges: []types.CitationEdge{
			{FromID: "2301.07041", ToID: "1706.03762"},
		},
		Blob: []byte(`{"id":"2301.07041"}`),
	}
}

func TestPersistAllStores(t *testing.T) {
	w, s := testWriter(t)
	ctx := context.Background()

	res := w.Persist(ctx, sampleInput())
	if !res.Succeeded() {
		t.Fatalf("persist failed: %v", res.Err())
	}

	if _, err := s.meta.GetPaper(ctx, "2301.07041"); err != nil {
		t.Errorf("metadata missing: %v", err)
	}
	if _, err := s.vec.Get(ctx, "2301.07041"); err != nil {
		t.Errorf("vector missing: %v", err)
	}
	if edges, _ := s.graph.Neighbors(ctx, "2301.07041"); len(edges) != 1 {
		t.Errorf("graph edges = %v", edges)
	}
	if _, err := s.blob.Get(ctx, "2301.07041"); err != nil {
		t.Errorf("blob missing: %v", err)
	}
}

func TestPersistIdempotent(t *testing.T) {
	w, s := testWriter(t)
	ctx := context.Background()
	in := sampleInput()

	r1 := w.Persist(ctx, in)
	r2 := w.Persist(ctx, in)
	if !r1.Succeeded() || !r2.Succeeded() {
		t.Fatal("persist failed")
	}

	// Same observable state as a single call: one paper, one vector,
	// one edge, one blob.
	papers, _ := s.meta.ListAll(ctx)
	if len(papers) != 1 {
		t.Errorf("papers = %d", len(papers))
	}
	if s.graph.EdgeCount() != 1 {
		t.Errorf("edges = %d", s.graph.EdgeCount())
	}
	b1, _ := s.blob.Get(ctx, in.Paper.ID)
	if string(b1) != string(in.Blob) {
		t.Errorf("blob = %s", b1)
	}
}

func TestPersistPartialFailureNoRollback(t *testing.T) {
	w, s := testWriter(t)
	ctx := context.Background()

	s.vec.FailUpsert = func(string) error {
		return types.Transient("vector upsert", errors.New("timeout"))
	}

	in := sampleInput()
	res := w.Persist(ctx, in)

	if res.Succeeded() {
		t.Fatal("expected failure")
	}
	failed := res.Failed()
	if len(failed) != 1 || failed[0] != ComponentEmbedding {
		t.Fatalf("Failed() = %v", failed)
	}

	// Metadata and blob stay written; no rollback.
	if _, err := s.meta.GetPaper(ctx, in.Paper.ID); err != nil {
		t.Errorf("metadata rolled back: %v", err)
	}
	if _, err := s.blob.Get(ctx, in.Paper.ID); err != nil {
		t.Errorf("blob rolled back: %v", err)
	}

	// Metadata succeeded, so the paper is in the system and the status
	// is not Failed.
	if in.Paper.Status == types.StatusFailed {
		t.Error("status marked failed on non-metadata failure")
	}

	var ppe *PartialPersistError
	if !errors.As(res.Err(), &ppe) {
		t.Fatalf("Err() = %v, want PartialPersistError", res.Err())
	}
	if ppe.PaperID != in.Paper.ID {
		t.Errorf("PaperID = %s", ppe.PaperID)
	}
}

func TestPersistMetadataFailureMarksFailed(t *testing.T) {
	w, s := testWriter(t)
	ctx := context.Background()

	s.meta.FailUpsert = func(string) error {
		return types.Transient("metadata upsert", errors.New("connection refused"))
	}

	in := sampleInput()
	res := w.Persist(ctx, in)

	if !res.MetadataFailed() {
		t.Fatal("expected metadata failure")
	}
	if in.Paper.Status != types.StatusFailed {
		t.Error("paper not marked failed on metadata failure")
	}
	var ppe *PartialPersistError
	if errors.As(res.Err(), &ppe) {
		t.Error("metadata failure must not surface as PartialPersistError")
	}
}

func TestRepairOnlyTouchesFailedStores(t *testing.T) {
	w, s := testWriter(t)
	ctx := context.Background()

	failing := true
	s.vec.FailUpsert = func(string) error {
		if failing {
			return types.Transient("vector upsert", errors.New("timeout"))
		}
		return nil
	}

	in := sampleInput()
	first := w.Persist(ctx, in)
	if first.Succeeded() {
		t.Fatal("expected partial failure")
	}
	blobPutsAfterFirst := s.blob.Puts[in.Paper.ID]

	// Store recovers; repair retries only the embedding.
	failing = false
	repaired := w.Repair(ctx, in, first)
	if !repaired.Succeeded() {
		t.Fatalf("repair failed: %v", repaired.Err())
	}

	if s.blob.Puts[in.Paper.ID] != blobPutsAfterFirst {
		t.Error("repair re-touched the blob store")
	}
	if _, err := s.vec.Get(ctx, in.Paper.ID); err != nil {
		t.Errorf("vector still missing after repair: %v", err)
	}

	// Prior successes are carried into the repaired result.
	for _, c := range []Component{ComponentMetadata, ComponentBlob, ComponentEmbedding, ComponentGraph} {
		if !repaired.Outcomes[c].OK() {
			t.Errorf("component %s not OK after repair", c)
		}
	}
}

func TestRepairNothingToDo(t *testing.T) {
	w, _ := testWriter(t)
	ctx := context.Background()
	in := sampleInput()

	res := w.Persist(ctx, in)
	if !res.Succeeded() {
		t.Fatal("persist failed")
	}
	again := w.Repair(ctx, in, res)
	if !again.Succeeded() {
		t.Error("repair of a clean result failed")
	}
}

func TestMissingDetectsAbsentComponents(t *testing.T) {
	w, _ := testWriter(t)
	ctx := context.Background()
	in := sampleInput()

	missing, err := w.Missing(ctx, in.Paper)
	if err != nil {
		t.Fatalf("Missing: %v", err)
	}
	if len(missing) != 2 || missing[0] != ComponentBlob || missing[1] != ComponentEmbedding {
		t.Fatalf("Missing before persist = %v", missing)
	}

	if res := w.Persist(ctx, in); !res.Succeeded() {
		t.Fatalf("persist failed: %v", res.Err())
	}
	missing, err = w.Missing(ctx, in.Paper)
	if err != nil {
		t.Fatalf("Missing: %v", err)
	}
	if len(missing) != 0 {
		t.Errorf("Missing after full persist = %v", missing)
	}

	// References force a graph rewrite even when everything is present.
	in.Paper.References = []string{"1706.03762"}
	missing, err = w.Missing(ctx, in.Paper)
	if err != nil {
		t.Fatalf("Missing: %v", err)
	}
	if len(missing) != 1 || missing[0] != ComponentGraph {
		t.Errorf("Missing with references = %v", missing)
	}
}

// outageVector simulates a vector store whose reads fail outright.
type outageVector struct {
	store.Vector
}

func (outageVector) Get(ctx context.Context, paperID string) ([]float32, error) {
	return nil, types.Transient("vector get", errors.New("connection refused"))
}

func TestMissingSurfacesStoreOutage(t *testing.T) {
	_, s := testWriter(t)
	ctx := context.Background()
	in := sampleInput()

	w := NewWriter(s.meta, outageVector{s.vec}, s.graph, s.blob, nil)
	if res := w.Persist(ctx, in); !res.Succeeded() {
		t.Fatalf("persist failed: %v", res.Err())
	}

	// The outage must surface as an error, never as a clean paper.
	missing, err := w.Missing(ctx, in.Paper)
	if err == nil {
		t.Fatalf("expected error, got missing = %v", missing)
	}
	if !types.IsTransient(err) {
		t.Errorf("store error not preserved: %v", err)
	}
}

func TestPersistBlobDefaultsToMarshaledPaper(t *testing.T) {
	w, s := testWriter(t)
	ctx := context.Background()

	in := sampleInput()
	in.Blob = nil
	res := w.Persist(ctx, in)
	if !res.Succeeded() {
		t.Fatalf("persist failed: %v", res.Err())
	}

	data, err := s.blob.Get(ctx, in.Paper.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("%q", in.Paper.ID)
	if !strings.Contains(string(data), want) {
		t.Errorf("blob payload %s does not contain %s", data, want)
	}
}
