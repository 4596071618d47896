// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest fetches raw paper records from academic APIs. Each
// source implements the Source interface; FetchAll fans a query out to
// every enabled source concurrently and merges the results, isolating
// per-source failures so one flaky API never empties a batch.
package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// Source fetches raw records from one academic API.
type Source interface {
	Name() string
	Fetch(ctx context.Context, query string, cfg types.IngestionConfig) ([]types.RawPaperRecord, error)
}

// Output holds merged records and per-source failure messages.
type Output struct {
	Records      []types.RawPaperRecord
	SourceErrors []string
}

// Sources builds the enabled sources from config.
func Sources(client *http.Client, cfg types.IngestionConfig) []Source {
	var out []Source
	if cfg.EnableArxiv {
		out = append(out, &ArxivSource{Client: client})
	}
	if cfg.EnableSemanticScholar {
		out = append(out, &SemanticScholarSource{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	return out
}

// FetchAll queries every source concurrently and merges records,
// deduplicating by paper id. The first source to return a record wins;
// later duplicates only fill fields the winner left empty. A source
// error is recorded, logged, and skipped. FetchAll fails only when
// every source fails.
func FetchAll(ctx context.Context, sources []Source, query string, cfg types.IngestionConfig, log *zap.Logger) (Output, error) {
	if query == "" {
		return Output{}, fmt.Errorf("empty ingestion query")
	}
	if len(sources) == 0 {
		return Output{}, fmt.Errorf("no ingestion sources enabled")
	}
	if log == nil {
		log = zap.NewNop()
	}

	type sourceResult struct {
		records []types.RawPaperRecord
		err     error
		name    string
	}

	ch := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for i, s := range sources {
		if i > 0 && cfg.RequestDelay > 0 {
			time.Sleep(cfg.RequestDelay)
		}
		wg.Add(1)
		go func(s Source) {
			defer wg.Done()
			records, err := s.Fetch(ctx, query, cfg)
			ch <- sourceResult{records: records, err: err, name: s.Name()}
		}(s)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var out Output
	seen := make(map[string]int) // paper id → index in Records
	for sr := range ch {
		if sr.err != nil {
			out.SourceErrors = append(out.SourceErrors, fmt.Sprintf("%s: %v", sr.name, sr.err))
			log.Warn("ingestion source failed",
				zap.String("source", sr.name), zap.Error(sr.err))
			continue
		}
		for _, r := range sr.records {
			if r.ID == "" {
				continue
			}
			if idx, ok := seen[r.ID]; ok {
				mergeRecord(&out.Records[idx], r)
				continue
			}
			seen[r.ID] = len(out.Records)
			out.Records = append(out.Records, r)
		}
	}

	if len(out.Records) == 0 && len(out.SourceErrors) == len(sources) {
		return out, fmt.Errorf("all ingestion sources failed: %v", out.SourceErrors)
	}
	return out, nil
}

// mergeRecord fills empty fields of dst from src. References merge as a
// union since sources disagree on citation coverage.
func mergeRecord(dst *types.RawPaperRecord, src types.RawPaperRecord) {
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.PublishedAt.IsZero() {
		dst.PublishedAt = src.PublishedAt
	}
	have := make(map[string]bool, len(dst.RawReferences))
	for _, ref := range dst.RawReferences {
		have[ref] = true
	}
	for _, ref := range src.RawReferences {
		if !have[ref] {
			dst.RawReferences = append(dst.RawReferences, ref)
			have[ref] = true
		}
	}
}
