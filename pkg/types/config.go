// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-recommender/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// IngestionConfig holds settings for the ingestion sources.
type IngestionConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of papers fetched per query (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// RequestDelay is the delay between consecutive source requests (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// EmbeddingConfig holds settings for the embedding generator.
type EmbeddingConfig struct {
	// BaseURL is the embedding service endpoint (default http://localhost:11434).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Model is the embedding model identifier (default "nomic-embed-text").
	Model string `json:"model" yaml:"model"`

	// Dimension is the expected vector dimension (default 768). Vectors of
	// any other length are rejected.
	Dimension int `json:"dimension" yaml:"dimension"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StoreConfig holds connection settings for the four backing stores.
type StoreConfig struct {
	// MetadataDSN is the postgres connection string for the metadata store.
	MetadataDSN string `json:"metadata_dsn" yaml:"metadata_dsn"`

	// VectorDSN is the postgres connection string for the vector store.
	// Empty reuses MetadataDSN.
	VectorDSN string `json:"vector_dsn,omitempty" yaml:"vector_dsn,omitempty"`

	// GraphPath is the SQLite database path for the citation graph
	// (default "data/citations.db").
	GraphPath string `json:"graph_path" yaml:"graph_path"`

	// BlobDir is the directory for paper JSON blobs (default "data/blobs").
	BlobDir string `json:"blob_dir" yaml:"blob_dir"`
}

// PipelineConfig holds settings for the orchestrator.
type PipelineConfig struct {
	// Workers is the number of concurrent per-paper work items (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// MaxRetries is the per-stage retry bound for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the base duration for retry backoff (default 1s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`

	// Scope selects delta or full processing when the trigger does not
	// supply one (default delta).
	Scope RunScope `json:"scope" yaml:"scope"`

	// ReportDir is the directory for per-run YAML reports (default "data/runs").
	ReportDir string `json:"report_dir" yaml:"report_dir"`
}

// RecommendConfig holds settings for retrieval and fusion.
type RecommendConfig struct {
	// TopK is the default result count (default 10).
	TopK int `json:"top_k" yaml:"top_k"`

	// GraphDepth bounds citation graph traversal (default 2).
	GraphDepth int `json:"graph_depth" yaml:"graph_depth"`

	// Weights maps retrieval sources to fusion weights. Empty means equal
	// weighting of vector and graph.
	Weights map[Source]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// Config groups all component configurations.
type Config struct {
	Ingestion IngestionConfig `json:"ingestion" yaml:"ingestion"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Stores    StoreConfig     `json:"stores" yaml:"stores"`
	Pipeline  PipelineConfig  `json:"pipeline" yaml:"pipeline"`
	Recommend RecommendConfig `json:"recommend" yaml:"recommend"`

	// LogFile is the rotating log destination. Empty logs to stderr only.
	LogFile string `json:"log_file,omitempty" yaml:"log_file,omitempty"`

	// Environment selects console encoding in dev ("development") or JSON
	// in prod ("production").
	Environment string `json:"environment" yaml:"environment"`
}
