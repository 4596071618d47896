// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus status or inspect a pipeline run",
	Long: `Status prints paper counts per pipeline stage. With --run, the full
record of one pipeline run is printed as YAML instead.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("run", "", "print the record of one run id")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	if runID, _ := cmd.Flags().GetString("run"); runID != "" {
		run, err := st.meta.GetRun(ctx, runID)
		if err != nil {
			return fmt.Errorf("loading run %s: %w", runID, err)
		}
		out, err := yaml.Marshal(run)
		if err != nil {
			return fmt.Errorf("rendering run: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	papers, err := st.meta.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing papers: %w", err)
	}

	counts := make(map[types.PaperStatus]int)
	for _, p := range papers {
		counts[p.Status]++
	}

	fmt.Printf("corpus: %d paper(s)\n", len(papers))
	for _, s := range []types.PaperStatus{
		types.StatusIngested,
		types.StatusTransformed,
		types.StatusEmbedded,
		types.StatusIndexed,
		types.StatusFailed,
	} {
		if counts[s] > 0 {
			fmt.Printf("  %-12s %d\n", s, counts[s])
		}
	}
	return nil
}
