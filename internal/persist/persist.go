// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persist writes a processed paper across the four backing
// stores with per-store outcome tracking. Writes are idempotent, never
// rolled back, and repairable at store granularity.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// Component names one of the four stores a paper fans out to.
type Component string

const (
	ComponentMetadata  Component = "metadata"
	ComponentBlob      Component = "blob"
	ComponentEmbedding Component = "embedding"
	ComponentGraph     Component = "graph"
)

// writeOrder is the fan-out sequence: blob and metadata first (cheap,
// authoritative existence signal), embedding next, graph edges last
// since they may reference papers not yet ingested and must not block
// on them.
var writeOrder = []Component{ComponentMetadata, ComponentBlob, ComponentEmbedding, ComponentGraph}

// Outcome is the tagged result of one store write.
type Outcome struct {
	Attempted bool
	Err       error
}

// OK reports whether the write was attempted and succeeded.
func (o Outcome) OK() bool { return o.Attempted && o.Err == nil }

// Result aggregates per-store outcomes for one persist call.
type Result struct {
	PaperID  string
	Outcomes map[Component]Outcome
}

// Failed returns the components that were attempted and failed, in
// write order.
func (r Result) Failed() []Component {
	var out []Component
	for _, c := range writeOrder {
		if o, ok := r.Outcomes[c]; ok && o.Attempted && o.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// Succeeded reports whether every attempted write succeeded.
func (r Result) Succeeded() bool { return len(r.Failed()) == 0 }

// MetadataFailed reports whether the authoritative metadata write failed.
func (r Result) MetadataFailed() bool {
	o := r.Outcomes[ComponentMetadata]
	return o.Attempted && o.Err != nil
}

// Err summarizes the result as an error: nil on full success, the
// metadata error when the authoritative write failed, and a
// PartialPersistError when metadata succeeded but other stores did not.
func (r Result) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	if r.MetadataFailed() {
		return fmt.Errorf("persisting %s: metadata write failed: %w", r.PaperID, r.Outcomes[ComponentMetadata].Err)
	}
	return &PartialPersistError{PaperID: r.PaperID, Components: failed, Result: r}
}

// PartialPersistError reports that metadata succeeded (the paper is in
// the system) but one or more other stores still need repair.
type PartialPersistError struct {
	PaperID    string
	Components []Component
	Result     Result
}

func (e *PartialPersistError) Error() string {
	names := make([]string, len(e.Components))
	for i, c := range e.Components {
		names[i] = string(c)
	}
	return fmt.Sprintf("paper %s partially persisted, failed: %s", e.PaperID, strings.Join(names, ", "))
}

// Input carries everything persist fans out for one paper. Components
// restricts the write to a subset for repair calls; empty means all
// four.
type Input struct {
	Paper      *types.Paper
	Embedding  []float32
	Edges      []types.CitationEdge
	Blob       []byte
	Components []Component
}

// Writer coordinates the multi-store fan-out. It never assumes
// exclusive access: concurrent writers for the same paper id converge
// because every store write is an idempotent overwrite.
type Writer struct {
	meta  store.Metadata
	vec   store.Vector
	graph store.Graph
	blob  store.Blob
	log   *zap.Logger
}

// NewWriter builds a writer over the four stores. A nil logger logs
// nothing.
func NewWriter(meta store.Metadata, vec store.Vector, graph store.Graph, blob store.Blob, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{meta: meta, vec: vec, graph: graph, blob: blob, log: log}
}

// Persist writes the paper to each requested store in write order. A
// failing store never aborts or rolls back the others; the caller gets
// one Outcome per attempted component. When the metadata write fails
// the paper's status is set to StatusFailed, since without the
// authoritative record the paper is not in the system; failures in the
// other stores leave status alone and are repaired independently.
func (w *Writer) Persist(ctx context.Context, in Input) Result {
	res := Result{PaperID: in.Paper.ID, Outcomes: make(map[Component]Outcome)}

	requested := in.Components
	if len(requested) == 0 {
		requested = writeOrder
	}
	want := make(map[Component]bool, len(requested))
	for _, c := range requested {
		want[c] = true
	}

	for _, c := range writeOrder {
		if !want[c] {
			continue
		}
		err := w.write(ctx, c, in)
		res.Outcomes[c] = Outcome{Attempted: true, Err: err}
		if err != nil {
			w.log.Warn("store write failed",
				zap.String("paper_id", in.Paper.ID),
				zap.String("component", string(c)),
				zap.Error(err))
		}
	}

	if res.MetadataFailed() {
		in.Paper.Status = types.StatusFailed
	}
	return res
}

// Missing inspects the blob and vector stores for the paper and returns
// the components that need re-persisting. References always imply a
// graph rewrite, which is safe because edge inserts are idempotent. A
// store error other than ErrNotFound is returned as-is so an outage is
// never mistaken for a present component.
func (w *Writer) Missing(ctx context.Context, p *types.Paper) ([]Component, error) {
	var missing []Component
	if _, err := w.blob.Get(ctx, p.ID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("checking blob for %s: %w", p.ID, err)
		}
		missing = append(missing, ComponentBlob)
	}
	if _, err := w.vec.Get(ctx, p.ID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("checking embedding for %s: %w", p.ID, err)
		}
		missing = append(missing, ComponentEmbedding)
	}
	if len(p.References) > 0 {
		missing = append(missing, ComponentGraph)
	}
	return missing, nil
}

// Repair retries only the components that failed in a prior result.
// Unaffected stores are not re-touched, so a repaired paper reaches
// fully persisted state without re-fetching or re-embedding anything.
func (w *Writer) Repair(ctx context.Context, in Input, prior Result) Result {
	failed := prior.Failed()
	if len(failed) == 0 {
		return prior
	}
	in.Components = failed
	res := w.Persist(ctx, in)

	// Carry forward the outcomes of components that already succeeded.
	for c, o := range prior.Outcomes {
		if _, retried := res.Outcomes[c]; !retried {
			res.Outcomes[c] = o
		}
	}
	return res
}

func (w *Writer) write(ctx context.Context, c Component, in Input) error {
	switch c {
	case ComponentMetadata:
		return w.meta.UpsertPaper(ctx, in.Paper)

	case ComponentBlob:
		data := in.Blob
		if data == nil {
			var err error
			data, err = json.Marshal(in.Paper)
			if err != nil {
				return fmt.Errorf("marshaling paper payload: %w", err)
			}
		}
		return w.blob.Put(ctx, in.Paper.ID, data)

	case ComponentEmbedding:
		if in.Embedding == nil {
			return fmt.Errorf("no embedding provided for %s", in.Paper.ID)
		}
		return w.vec.Upsert(ctx, in.Paper.ID, in.Embedding)

	case ComponentGraph:
		return w.graph.InsertEdges(ctx, in.Edges)

	default:
		return fmt.Errorf("unknown component %q", c)
	}
}
