package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

func testGraph(t *testing.T) *GraphStore {
	t.Helper()
	s, err := OpenGraph(filepath.Join(t.TempDir(), "graph", "citations.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGraphInsertAndNeighbors(t *testing.T) {
	s := testGraph(t)
	ctx := context.Background()

	edges := []types.CitationEdge{
		{FromID: "A", ToID: "B"},
		{FromID: "C", ToID: "A"},
		{FromID: "B", ToID: "D"},
	}
	if err := s.InsertEdges(ctx, edges); err != nil {
		t.Fatal(err)
	}

	got, err := s.Neighbors(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	// A cites B, C cites A; B->D does not touch A.
	want := []types.CitationEdge{{FromID: "A", ToID: "B"}, {FromID: "C", ToID: "A"}}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(A) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Neighbors(A)[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGraphInsertIdempotent(t *testing.T) {
	s := testGraph(t)
	ctx := context.Background()

	e := []types.CitationEdge{{FromID: "A", ToID: "B"}}
	for i := 0; i < 3; i++ {
		if err := s.InsertEdges(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Neighbors(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("duplicate inserts produced %d edges", len(got))
	}
}

func TestGraphDanglingEdgeResolution(t *testing.T) {
	s := testGraph(t)
	ctx := context.Background()

	// P2 does not exist yet; the edge is retained anyway.
	if err := s.InsertEdges(ctx, []types.CitationEdge{{FromID: "P1", ToID: "P2"}}); err != nil {
		t.Fatal(err)
	}

	// Once P2 is ingested and adds its own edges, traversal from P1
	// reaches it; the dangling edge was already in place.
	if err := s.InsertEdges(ctx, []types.CitationEdge{{FromID: "P2", ToID: "P3"}}); err != nil {
		t.Fatal(err)
	}

	from1, err := s.Neighbors(ctx, "P1")
	if err != nil {
		t.Fatal(err)
	}
	if len(from1) != 1 || from1[0].ToID != "P2" {
		t.Fatalf("Neighbors(P1) = %v", from1)
	}

	from2, err := s.Neighbors(ctx, "P2")
	if err != nil {
		t.Fatal(err)
	}
	if len(from2) != 2 {
		t.Fatalf("Neighbors(P2) = %v, want both directions", from2)
	}
}

func TestGraphEmptyStore(t *testing.T) {
	s := testGraph(t)
	got, err := s.Neighbors(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("empty store returned %v", got)
	}
}

func TestGraphRejectsEmptyEndpoint(t *testing.T) {
	s := testGraph(t)
	err := s.InsertEdges(context.Background(), []types.CitationEdge{{FromID: "A", ToID: ""}})
	if err == nil {
		t.Error("expected error for empty endpoint")
	}
}
