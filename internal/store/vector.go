// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// VectorStore implements Vector on postgres with the pgvector extension.
// Vectors are stored unit-length, so cosine distance via the <=> operator
// gives similarity = 1 - distance.
type VectorStore struct {
	db        *gorm.DB
	dimension int
}

// embeddingRow maps the paper_embeddings table for scans.
type embeddingRow struct {
	PaperID   string
	Embedding pgvector.Vector
}

// OpenVector connects to postgres, enables the vector extension, and
// creates the embeddings table at the given dimension.
func OpenVector(dsn string, dimension int) (*VectorStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	return NewVectorStore(db, dimension)
}

// NewVectorStore initializes the schema on an existing gorm handle.
func NewVectorStore(db *gorm.DB, dimension int) (*VectorStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", dimension)
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("enabling vector extension: %w", err)
	}
	ddl := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS paper_embeddings (
			paper_id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL
		)`, dimension)
	if err := db.Exec(ddl).Error; err != nil {
		return nil, fmt.Errorf("creating embeddings table: %w", err)
	}
	return &VectorStore{db: db, dimension: dimension}, nil
}

// Upsert overwrites the vector for paperID. Deletion-free overwrite keeps
// re-persisting the same paper idempotent.
func (s *VectorStore) Upsert(ctx context.Context, paperID string, vec []float32) error {
	if len(vec) != s.dimension {
		return fmt.Errorf("vector for %s has %d dimensions, store expects %d", paperID, len(vec), s.dimension)
	}
	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO paper_embeddings (paper_id, embedding) VALUES (?, ?)
		 ON CONFLICT (paper_id) DO UPDATE SET embedding = excluded.embedding`,
		paperID, pgvector.NewVector(vec),
	).Error
	return types.Transient("vector upsert", err)
}

func (s *VectorStore) Get(ctx context.Context, paperID string) ([]float32, error) {
	var row embeddingRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT paper_id, embedding FROM paper_embeddings WHERE paper_id = ?`, paperID,
	).Scan(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, types.Transient("vector get", err)
	}
	if row.PaperID == "" {
		return nil, ErrNotFound
	}
	return row.Embedding.Slice(), nil
}

// Search returns the k nearest neighbors by cosine distance, excluding
// excludeID. Ties are broken by paper id for deterministic output.
func (s *VectorStore) Search(ctx context.Context, vec []float32, k int, excludeID string) ([]Hit, error) {
	if k <= 0 {
		return nil, nil
	}

	type result struct {
		PaperID  string
		Distance float64
	}
	var rows []result
	err := s.db.WithContext(ctx).Raw(
		`SELECT paper_id, embedding <=> ? AS distance
		 FROM paper_embeddings
		 WHERE paper_id <> ?
		 ORDER BY distance, paper_id
		 LIMIT ?`,
		pgvector.NewVector(vec), excludeID, k,
	).Scan(&rows).Error
	if err != nil {
		return nil, types.Transient("vector search", err)
	}

	hits := make([]Hit, 0, len(rows))
	for _, r := range rows {
		sim := 1.0 - r.Distance
		if sim < 0 {
			sim = 0
		}
		if sim > 1 {
			sim = 1
		}
		hits = append(hits, Hit{PaperID: r.PaperID, Similarity: sim})
	}
	return hits, nil
}
