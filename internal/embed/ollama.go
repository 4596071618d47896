// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

const (
	defaultBaseURL   = "http://localhost:11434"
	defaultModel     = "nomic-embed-text"
	defaultDimension = 768
)

// OllamaGenerator calls a local Ollama server's embedding endpoint.
type OllamaGenerator struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

// NewOllama builds a generator from config, applying defaults for any
// unset field.
func NewOllama(cfg types.EmbeddingConfig, client *http.Client) *OllamaGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	g := &OllamaGenerator{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    client,
	}
	if g.baseURL == "" {
		g.baseURL = defaultBaseURL
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.dimension <= 0 {
		g.dimension = defaultDimension
	}
	return g
}

// Dimension returns the fixed vector length this generator produces.
func (g *OllamaGenerator) Dimension() int { return g.dimension }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed requests an embedding for text and returns a unit-length vector
// of the configured dimension. Empty text fails with ErrEmbeddingFailed;
// transport errors are wrapped as transient so callers retry them.
func (g *OllamaGenerator) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrEmbeddingFailed)
	}

	body, err := json.Marshal(ollamaRequest{Model: g.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, types.Transient("embedding request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("embedding service returned HTTP %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, types.Transient("embedding request", err)
		}
		return nil, err
	}

	var or ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("parsing embedding response: %w", err)
	}

	vec := make([]float32, len(or.Embedding))
	for i, v := range or.Embedding {
		vec[i] = float32(v)
	}
	if err := checkDimension(vec, g.dimension); err != nil {
		return nil, err
	}

	// Cosine distance in the vector store expects unit-length vectors.
	return Normalize(vec), nil
}
