// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage names a pipeline stage. Stages execute in the order returned by
// Stages.
type Stage string

const (
	StageIngest       Stage = "ingest"
	StageTransform    Stage = "transform"
	StageEmbed        Stage = "embed"
	StagePersist      Stage = "persist"
	StageIndexRefresh Stage = "index_refresh"
)

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageIngest, StageTransform, StageEmbed, StagePersist, StageIndexRefresh}
}

// StageStatus is the state of one stage within a run.
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageRunning   StageStatus = "running"
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageRetried   StageStatus = "retried"
)

// RunScope restricts which papers a run processes.
type RunScope string

const (
	// ScopeDelta processes papers below StatusIndexed plus indexed papers
	// whose source fingerprint changed.
	ScopeDelta RunScope = "delta"

	// ScopeFull reprocesses the entire corpus regardless of status, still
	// skipping indexed papers with unchanged fingerprints.
	ScopeFull RunScope = "full"
)

// PipelineRun records one execution of the orchestrated flow. It is
// created at trigger time, mutated only by the orchestrator, and terminal
// once every stage reports succeeded or the run is abandoned.
type PipelineRun struct {
	// RunID is a UUID assigned at trigger time.
	RunID string `json:"run_id" yaml:"run_id"`

	// StartedAt is the trigger time in UTC.
	StartedAt time.Time `json:"started_at" yaml:"started_at"`

	// FinishedAt is set when the run reaches a terminal state.
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`

	// Scope selects delta or full processing.
	Scope RunScope `json:"scope" yaml:"scope"`

	// PaperIDs optionally restricts the run to an explicit id set.
	PaperIDs []string `json:"paper_ids,omitempty" yaml:"paper_ids,omitempty"`

	// StageStatuses maps each stage to its state.
	StageStatuses map[Stage]StageStatus `json:"stage_statuses" yaml:"stage_statuses"`

	// FailedItems holds ids of papers that could not complete a stage in
	// this run. They are retried on the next triggered run.
	FailedItems []string `json:"failed_items,omitempty" yaml:"failed_items,omitempty"`
}

// NewPipelineRun returns a run with every stage pending.
func NewPipelineRun(runID string, scope RunScope, paperIDs []string) *PipelineRun {
	statuses := make(map[Stage]StageStatus, len(Stages()))
	for _, st := range Stages() {
		statuses[st] = StagePending
	}
	return &PipelineRun{
		RunID:         runID,
		StartedAt:     time.Now().UTC(),
		Scope:         scope,
		PaperIDs:      paperIDs,
		StageStatuses: statuses,
	}
}

// Terminal reports whether every stage finished. Retried counts:
// it marks a stage that completed after per-item retries.
func (r *PipelineRun) Terminal() bool {
	for _, st := range Stages() {
		s := r.StageStatuses[st]
		if s != StageSucceeded && s != StageFailed && s != StageRetried {
			return false
		}
	}
	return true
}
