// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// In-memory store implementations. They back the orchestrator and writer
// tests and are usable as a standalone single-process deployment. Each
// store is safe for concurrent use.

// MemMetadata implements Metadata in memory.
type MemMetadata struct {
	mu     sync.RWMutex
	papers map[string]types.Paper
	runs   map[string]types.PipelineRun

	// FailUpsert and FailStatus inject errors for writer tests.
	FailUpsert func(id string) error
	FailStatus func(id string) error
}

// NewMemMetadata returns an empty in-memory metadata store.
func NewMemMetadata() *MemMetadata {
	return &MemMetadata{
		papers: make(map[string]types.Paper),
		runs:   make(map[string]types.PipelineRun),
	}
}

func (m *MemMetadata) UpsertPaper(ctx context.Context, p *types.Paper) error {
	if m.FailUpsert != nil {
		if err := m.FailUpsert(p.ID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.papers[p.ID] = *p
	return nil
}

func (m *MemMetadata) GetPaper(ctx context.Context, id string) (*types.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemMetadata) ListByStatus(ctx context.Context, status types.PaperStatus) ([]*types.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Paper
	for _, p := range m.papers {
		if p.Status == status {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemMetadata) ListAll(ctx context.Context) ([]*types.Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*types.Paper, 0, len(m.papers))
	for _, p := range m.papers {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemMetadata) UpdateStatus(ctx context.Context, id string, status types.PaperStatus) error {
	if m.FailStatus != nil {
		if err := m.FailStatus(id); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.papers[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	m.papers[id] = p
	return nil
}

func (m *MemMetadata) SaveRun(ctx context.Context, run *types.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.RunID] = *run
	return nil
}

func (m *MemMetadata) GetRun(ctx context.Context, runID string) (*types.PipelineRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

// MemVector implements Vector in memory with exact cosine search.
type MemVector struct {
	mu   sync.RWMutex
	vecs map[string][]float32

	// FailUpsert injects errors for writer tests.
	FailUpsert func(id string) error
}

// NewMemVector returns an empty in-memory vector store.
func NewMemVector() *MemVector {
	return &MemVector{vecs: make(map[string][]float32)}
}

func (m *MemVector) Upsert(ctx context.Context, paperID string, vec []float32) error {
	if m.FailUpsert != nil {
		if err := m.FailUpsert(paperID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]float32, len(vec))
	copy(cp, vec)
	m.vecs[paperID] = cp
	return nil
}

func (m *MemVector) Get(ctx context.Context, paperID string) ([]float32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vecs[paperID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]float32, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *MemVector) Search(ctx context.Context, vec []float32, k int, excludeID string) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hits []Hit
	for id, v := range m.vecs {
		if id == excludeID {
			continue
		}
		sim := cosine(vec, v)
		if sim < 0 {
			sim = 0
		}
		hits = append(hits, Hit{PaperID: id, Similarity: sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].PaperID < hits[j].PaperID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MemGraph implements Graph in memory.
type MemGraph struct {
	mu    sync.RWMutex
	edges map[types.CitationEdge]struct{}

	// FailInsert injects errors for writer tests.
	FailInsert func() error
}

// NewMemGraph returns an empty in-memory graph store.
func NewMemGraph() *MemGraph {
	return &MemGraph{edges: make(map[types.CitationEdge]struct{})}
}

func (m *MemGraph) InsertEdges(ctx context.Context, edges []types.CitationEdge) error {
	if m.FailInsert != nil {
		if err := m.FailInsert(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range edges {
		m.edges[e] = struct{}{}
	}
	return nil
}

func (m *MemGraph) Neighbors(ctx context.Context, id string) ([]types.CitationEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []types.CitationEdge
	for e := range m.edges {
		if e.FromID == id || e.ToID == id {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromID != out[j].FromID {
			return out[i].FromID < out[j].FromID
		}
		return out[i].ToID < out[j].ToID
	})
	return out, nil
}

// EdgeCount returns the number of stored edges.
func (m *MemGraph) EdgeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.edges)
}

// MemBlob implements Blob in memory.
type MemBlob struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailPut injects errors for writer tests.
	FailPut func(id string) error

	// Puts counts Put calls per id, for repair tests asserting a store
	// was not re-touched.
	Puts map[string]int
}

// NewMemBlob returns an empty in-memory blob store.
func NewMemBlob() *MemBlob {
	return &MemBlob{blobs: make(map[string][]byte), Puts: make(map[string]int)}
}

func (m *MemBlob) Put(ctx context.Context, paperID string, data []byte) error {
	if m.FailPut != nil {
		if err := m.FailPut(paperID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[paperID] = cp
	m.Puts[paperID]++
	return nil
}

func (m *MemBlob) Get(ctx context.Context, paperID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[paperID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}
