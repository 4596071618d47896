// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/embed"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/persist"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/transform"
)

var repairCmd = &cobra.Command{
	Use:   "repair [paper-ids...]",
	Short: "Re-persist papers whose backing stores drifted apart",
	Long: `Repair checks each paper's presence across the blob, vector, and
graph stores and rewrites only the missing pieces. The metadata record
is the authoritative source; a paper without one cannot be repaired and
must go through a pipeline run instead.

Without arguments, every paper in the metadata store is checked.`,
	RunE: runRepair,
}

func init() {
	rootCmd.AddCommand(repairCmd)
}

func needsComponent(missing []persist.Component, c persist.Component) bool {
	for _, m := range missing {
		if m == c {
			return true
		}
	}
	return false
}

func runRepair(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	ids := args
	if len(ids) == 0 {
		papers, err := st.meta.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("listing papers: %w", err)
		}
		for _, p := range papers {
			ids = append(ids, p.ID)
		}
	}

	gen := embed.NewOllama(cfg.Embedding, httpClient(cfg.Embedding.Timeout))
	writer := persist.NewWriter(st.meta, st.vec, st.graph, st.blob, logger)

	repaired, clean, failed := 0, 0, 0
	for _, id := range ids {
		paper, err := st.meta.GetPaper(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Printf("skipped: %s (no metadata record, run the pipeline)\n", id)
			} else {
				fmt.Printf("failed:  %s (%v)\n", id, err)
			}
			failed++
			continue
		}

		missing, err := writer.Missing(ctx, paper)
		if err != nil {
			fmt.Printf("failed:  %s (%v)\n", id, err)
			failed++
			continue
		}

		var embedding []float32
		if needsComponent(missing, persist.ComponentEmbedding) {
			embedding, err = gen.Embed(ctx, transform.EmbeddingText(paper))
			if err != nil {
				fmt.Printf("failed:  %s (regenerating embedding: %v)\n", id, err)
				failed++
				continue
			}
		}

		if len(missing) == 0 {
			clean++
			continue
		}

		res := writer.Persist(ctx, persist.Input{
			Paper:      paper,
			Embedding:  embedding,
			Edges:      transform.Edges(paper),
			Components: missing,
		})
		if err := res.Err(); err != nil {
			fmt.Printf("failed:  %s (%v)\n", id, err)
			failed++
			continue
		}
		fmt.Printf("repaired: %s (%d component(s))\n", id, len(missing))
		repaired++
	}

	fmt.Printf("\nRepair summary: %d repaired, %d clean, %d failed (total: %d)\n",
		repaired, clean, failed, len(ids))
	if failed > 0 {
		return fmt.Errorf("%d paper(s) failed repair", failed)
	}
	return nil
}
