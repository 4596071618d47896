// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/embed"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/ingest"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/persist"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/pipeline"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

var runCmd = &cobra.Command{
	Use:     "ingest [query...]",
	Aliases: []string{"run"},
	Short:   "Trigger one pipeline run: ingest, transform, embed, persist, refresh",
	Long: `Ingest executes the full pipeline once. With a query, enabled sources
(arXiv, Semantic Scholar) are searched and the results flow through the
stages; without one, only papers already in the metadata store are
reprocessed according to the scope.

Delta scope (the default) processes papers that have not reached the
indexed state, which includes papers that failed in earlier runs. Full
scope revisits the whole corpus but still skips indexed papers whose
content is unchanged.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("scope", "", "run scope: delta or full (default from config)")
	runCmd.Flags().StringSlice("paper", nil, "restrict the run to specific paper ids (repeatable)")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	scopeFlag, _ := cmd.Flags().GetString("scope")
	var scope types.RunScope
	switch scopeFlag {
	case "":
	case string(types.ScopeDelta), string(types.ScopeFull):
		scope = types.RunScope(scopeFlag)
	default:
		return fmt.Errorf("unknown scope %q: use delta or full", scopeFlag)
	}
	paperIDs, _ := cmd.Flags().GetStringSlice("paper")

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	client := httpClient(cfg.Ingestion.Timeout)
	sources := ingest.Sources(client, cfg.Ingestion)
	gen := embed.NewOllama(cfg.Embedding, httpClient(cfg.Embedding.Timeout))
	writer := persist.NewWriter(st.meta, st.vec, st.graph, st.blob, logger)
	orch := pipeline.New(sources, gen, writer, st.meta, cfg, logger)

	trig := pipeline.Trigger{
		Query:    strings.Join(args, " "),
		Scope:    scope,
		PaperIDs: paperIDs,
	}

	result, err := orch.Run(context.Background(), trig)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d processed, %d skipped, %d failed\n",
		result.Run.RunID, result.Processed, result.Skipped, result.Failed)
	if result.HasFailures() {
		fmt.Printf("failed papers: %s\n", strings.Join(result.Run.FailedItems, ", "))
		return fmt.Errorf("%d paper(s) failed; they will retry on the next run", result.Failed)
	}
	return nil
}
