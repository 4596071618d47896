// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// GraphStore implements Graph on a SQLite edge table. Edges carry no
// foreign keys, so an edge may be inserted before its target paper is
// ingested; it becomes traversable the moment the target id shows up in
// a query from the other side.
type GraphStore struct {
	db *sql.DB
}

// OpenGraph opens or creates the citation graph database at path,
// creating parent directories and the schema as needed.
func OpenGraph(path string) (*GraphStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating graph directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening graph database: %w", err)
	}

	s := &GraphStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating graph schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *GraphStore) Close() error {
	return s.db.Close()
}

func (s *GraphStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS edges (
			from_id TEXT NOT NULL,
			to_id TEXT NOT NULL,
			PRIMARY KEY (from_id, to_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_edges_to_id ON edges(to_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// InsertEdges appends edges in one transaction, ignoring pairs that
// already exist. Edges are append-only; nothing here deletes.
func (s *GraphStore) InsertEdges(ctx context.Context, edges []types.CitationEdge) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Transient("graph insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO edges (from_id, to_id) VALUES (?, ?)`)
	if err != nil {
		return types.Transient("graph insert", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if e.FromID == "" || e.ToID == "" {
			return fmt.Errorf("edge with empty endpoint: %q -> %q", e.FromID, e.ToID)
		}
		if _, err := stmt.ExecContext(ctx, e.FromID, e.ToID); err != nil {
			return types.Transient("graph insert", err)
		}
	}
	return types.Transient("graph insert", tx.Commit())
}

// Neighbors returns all edges where id appears on either end, ordered
// deterministically.
func (s *GraphStore) Neighbors(ctx context.Context, id string) ([]types.CitationEdge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT from_id, to_id FROM edges WHERE from_id = ? OR to_id = ?
		 ORDER BY from_id, to_id`, id, id)
	if err != nil {
		return nil, types.Transient("graph query", err)
	}
	defer rows.Close()

	var edges []types.CitationEdge
	for rows.Next() {
		var e types.CitationEdge
		if err := rows.Scan(&e.FromID, &e.ToID); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
