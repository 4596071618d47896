// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

const defaultReportDir = "data/runs"

// writeReport renders the run record as YAML under the report
// directory, one file per run.
func (o *Orchestrator) writeReport(run *types.PipelineRun) error {
	dir := o.cfg.Pipeline.ReportDir
	if dir == "" {
		dir = defaultReportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}

	data, err := yaml.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}

	path := filepath.Join(dir, run.RunID+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}
