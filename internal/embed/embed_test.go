package embed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

func testServer(t *testing.T, dim int, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		vec := make([]float64, dim)
		for i := range vec {
			vec[i] = float64(i + 1)
		}
		json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	}))
}

func TestOllamaEmbed(t *testing.T) {
	ts := testServer(t, 4, http.StatusOK)
	defer ts.Close()

	g := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL, Dimension: 4}, ts.Client())
	vec, err := g.Embed(context.Background(), "efficient attention")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 4 {
		t.Fatalf("got %d dimensions", len(vec))
	}

	// Result must be unit length for cosine similarity.
	var mag float64
	for _, v := range vec {
		mag += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(mag)-1.0) > 1e-5 {
		t.Errorf("vector magnitude = %f, want 1", math.Sqrt(mag))
	}
}

func TestOllamaEmbedEmptyText(t *testing.T) {
	g := NewOllama(types.EmbeddingConfig{}, nil)
	_, err := g.Embed(context.Background(), "   ")
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("got %v, want ErrEmbeddingFailed", err)
	}
}

func TestOllamaEmbedDimensionMismatch(t *testing.T) {
	ts := testServer(t, 3, http.StatusOK)
	defer ts.Close()

	g := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL, Dimension: 4}, ts.Client())
	_, err := g.Embed(context.Background(), "text")
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("got %v, want ErrEmbeddingFailed", err)
	}
}

func TestOllamaEmbedServerErrorIsTransient(t *testing.T) {
	ts := testServer(t, 0, http.StatusServiceUnavailable)
	defer ts.Close()

	g := NewOllama(types.EmbeddingConfig{BaseURL: ts.URL}, ts.Client())
	_, err := g.Embed(context.Background(), "text")
	if !types.IsTransient(err) {
		t.Errorf("got %v, want transient", err)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	vec := []float32{0, 0, 0}
	got := Normalize(vec)
	for _, v := range got {
		if v != 0 {
			t.Errorf("zero vector changed: %v", got)
		}
	}
}

func TestDefaults(t *testing.T) {
	g := NewOllama(types.EmbeddingConfig{}, nil)
	if g.Dimension() != 768 {
		t.Errorf("default dimension = %d", g.Dimension())
	}
	if g.model != "nomic-embed-text" || g.baseURL != "http://localhost:11434" {
		t.Errorf("defaults not applied: %q %q", g.model, g.baseURL)
	}
}
