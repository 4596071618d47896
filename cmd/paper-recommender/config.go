// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

const defaultUserAgent = "paper-recommender/0.1"

// setConfigDefaults registers every config key with its default so a
// bare install works against local services.
func setConfigDefaults() {
	viper.SetDefault("ingestion.timeout", 60*time.Second)
	viper.SetDefault("ingestion.user_agent", defaultUserAgent)
	viper.SetDefault("ingestion.max_results", 20)
	viper.SetDefault("ingestion.enable_arxiv", true)
	viper.SetDefault("ingestion.enable_semantic_scholar", true)
	viper.SetDefault("ingestion.request_delay", time.Second)

	viper.SetDefault("embedding.base_url", "http://localhost:11434")
	viper.SetDefault("embedding.model", "nomic-embed-text")
	viper.SetDefault("embedding.dimension", 768)
	viper.SetDefault("embedding.timeout", 60*time.Second)

	viper.SetDefault("stores.graph_path", "data/citations.db")
	viper.SetDefault("stores.blob_dir", "data/blobs")

	viper.SetDefault("pipeline.workers", 4)
	viper.SetDefault("pipeline.max_retries", 3)
	viper.SetDefault("pipeline.retry_base_delay", time.Second)
	viper.SetDefault("pipeline.scope", string(types.ScopeDelta))
	viper.SetDefault("pipeline.report_dir", "data/runs")

	viper.SetDefault("recommend.top_k", 10)
	viper.SetDefault("recommend.graph_depth", 2)

	viper.SetDefault("environment", "development")
}

// buildConfig assembles the runtime config from viper, filling DSNs and
// API keys from loaded secrets when the config leaves them empty.
func buildConfig() types.Config {
	return types.Config{
		Ingestion: types.IngestionConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("ingestion.timeout"),
				UserAgent: viper.GetString("ingestion.user_agent"),
			},
			MaxResults:            viper.GetInt("ingestion.max_results"),
			EnableArxiv:           viper.GetBool("ingestion.enable_arxiv"),
			EnableSemanticScholar: viper.GetBool("ingestion.enable_semantic_scholar"),
			SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("ingestion.semantic_scholar_api_key")),
			RequestDelay:          viper.GetDuration("ingestion.request_delay"),
		},
		Embedding: types.EmbeddingConfig{
			BaseURL:   viper.GetString("embedding.base_url"),
			Model:     viper.GetString("embedding.model"),
			Dimension: viper.GetInt("embedding.dimension"),
			Timeout:   viper.GetDuration("embedding.timeout"),
		},
		Stores: types.StoreConfig{
			MetadataDSN: secretDefault("metadata-dsn", viper.GetString("stores.metadata_dsn")),
			VectorDSN:   secretDefault("vector-dsn", viper.GetString("stores.vector_dsn")),
			GraphPath:   viper.GetString("stores.graph_path"),
			BlobDir:     viper.GetString("stores.blob_dir"),
		},
		Pipeline: types.PipelineConfig{
			Workers:        viper.GetInt("pipeline.workers"),
			MaxRetries:     viper.GetInt("pipeline.max_retries"),
			RetryBaseDelay: viper.GetDuration("pipeline.retry_base_delay"),
			Scope:          types.RunScope(viper.GetString("pipeline.scope")),
			ReportDir:      viper.GetString("pipeline.report_dir"),
		},
		Recommend: types.RecommendConfig{
			TopK:       viper.GetInt("recommend.top_k"),
			GraphDepth: viper.GetInt("recommend.graph_depth"),
		},
		LogFile:     viper.GetString("log_file"),
		Environment: viper.GetString("environment"),
	}
}

// stores bundles the four opened backing stores.
type stores struct {
	meta  *store.MetadataStore
	vec   *store.VectorStore
	graph *store.GraphStore
	blob  *store.BlobStore
}

func (s *stores) Close() {
	if s.graph != nil {
		_ = s.graph.Close()
	}
}

// openStores connects to all four stores from config.
func openStores(cfg types.Config) (*stores, error) {
	if cfg.Stores.MetadataDSN == "" {
		return nil, fmt.Errorf("no metadata DSN configured: set stores.metadata_dsn or .secrets/metadata-dsn")
	}

	meta, err := store.OpenMetadata(cfg.Stores.MetadataDSN)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	vectorDSN := cfg.Stores.VectorDSN
	if vectorDSN == "" {
		vectorDSN = cfg.Stores.MetadataDSN
	}
	vec, err := store.OpenVector(vectorDSN, cfg.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	graph, err := store.OpenGraph(cfg.Stores.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("opening graph store: %w", err)
	}

	blob, err := store.OpenBlob(cfg.Stores.BlobDir)
	if err != nil {
		graph.Close()
		return nil, fmt.Errorf("opening blob store: %w", err)
	}

	return &stores{meta: meta, vec: vec, graph: graph, blob: blob}, nil
}

// httpClient builds the shared client for source and embedding requests.
func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
