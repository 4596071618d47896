// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/embed"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/recommend"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend papers for a text query or a seed paper",
	Long: `Recommend retrieves candidate papers by semantic similarity and
citation graph proximity, fuses them into one ranked list, and prints
the top results with provenance.

Strategies: vector (similarity only), graph (citation proximity only,
requires --seed), hybrid (both, the default). A hybrid query against a
seed that is not embedded yet degrades to graph-only results.`,
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().String("query", "", "free-text query")
	recommendCmd.Flags().String("seed", "", "seed paper id")
	recommendCmd.Flags().String("strategy", "hybrid", "retrieval strategy: vector, graph, or hybrid")
	recommendCmd.Flags().Int("top-k", 0, "number of results (default from config)")
	recommendCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	query, _ := cmd.Flags().GetString("query")
	seed, _ := cmd.Flags().GetString("seed")
	strategyFlag, _ := cmd.Flags().GetString("strategy")
	topK, _ := cmd.Flags().GetInt("top-k")
	asJSON, _ := cmd.Flags().GetBool("json")

	if query == "" && seed == "" {
		return fmt.Errorf("provide --query or --seed")
	}
	if topK <= 0 {
		topK = cfg.Recommend.TopK
	}

	var strategy types.Source
	switch strategyFlag {
	case string(types.SourceVector), string(types.SourceGraph), string(types.SourceHybrid):
		strategy = types.Source(strategyFlag)
	default:
		return fmt.Errorf("unknown strategy %q: use vector, graph, or hybrid", strategyFlag)
	}

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	gen := embed.NewOllama(cfg.Embedding, httpClient(cfg.Embedding.Timeout))
	retriever := recommend.NewRetriever(st.meta, st.vec, st.graph, gen, cfg.Recommend.GraphDepth, logger)

	ctx := context.Background()
	cands, err := retriever.Retrieve(ctx, recommend.Query{Text: query, SeedID: seed}, topK*4, strategy)
	if err != nil {
		if types.IsNotReady(err) {
			return fmt.Errorf("seed paper is not embedded yet, run the pipeline first: %w", err)
		}
		return err
	}

	weights := cfg.Recommend.Weights
	if len(weights) == 0 {
		weights = recommend.DefaultWeights()
	}
	recs := recommend.Fuse([][]types.Candidate{cands}, weights, topK)
	recommend.Annotate(ctx, st.meta, recs)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}

	if len(recs) == 0 {
		fmt.Println("no recommendations: the corpus may be empty")
		return nil
	}
	for i, r := range recs {
		sources := make([]string, len(r.Sources))
		for j, s := range r.Sources {
			sources[j] = string(s)
		}
		title := r.Title
		if title == "" {
			title = "(title unavailable)"
		}
		fmt.Printf("%2d. %-18s %.3f  [%s]  %s\n",
			i+1, r.PaperID, r.Score, strings.Join(sources, "+"), title)
	}
	return nil
}
