// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the ingest, transform, embed, persist,
// and index refresh stages over a bounded worker pool. Each triggered
// run is recorded as a PipelineRun and saved at stage boundaries, so a
// crash mid-run leaves an inspectable record. Item failures never stop
// a stage; a paper that fails is excluded from later stages of the run
// and retried on the next trigger.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/embed"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/ingest"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/persist"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/store"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/internal/transform"
	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

const (
	defaultWorkers    = 4
	defaultMaxRetries = 3
	defaultRetryBase  = time.Second
)

// Trigger describes one requested run.
type Trigger struct {
	// Query is the ingestion search text. Empty skips source fetching and
	// reprocesses only papers already in the metadata store.
	Query string

	// Scope overrides the configured run scope when set.
	Scope types.RunScope

	// PaperIDs restricts the run to an explicit id set.
	PaperIDs []string
}

// RunResult summarizes a finished run.
type RunResult struct {
	Run       *types.PipelineRun
	Processed int
	Skipped   int
	Failed    int
}

// HasFailures reports whether any papers failed during the run.
func (r RunResult) HasFailures() bool { return r.Failed > 0 }

// Orchestrator drives the staged flow.
type Orchestrator struct {
	sources []ingest.Source
	gen     embed.Generator
	writer  *persist.Writer
	meta    store.Metadata
	cfg     types.Config
	log     *zap.Logger
}

// New builds an orchestrator. A nil logger logs nothing.
func New(sources []ingest.Source, gen embed.Generator, writer *persist.Writer, meta store.Metadata, cfg types.Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		sources: sources,
		gen:     gen,
		writer:  writer,
		meta:    meta,
		cfg:     cfg,
		log:     log,
	}
}

// workItem carries one paper through the stages.
type workItem struct {
	id        string
	raw       *types.RawPaperRecord
	existing  *types.Paper // stored record, if any
	paper     *types.Paper
	embedding []float32
	edges     []types.CitationEdge
	skipped   bool
	retried   bool
	err       error
	transient bool
}

func (it *workItem) fail(err error) {
	it.err = err
	it.transient = types.IsTransient(err)
}

// Run executes one full pipeline pass and returns its summary. The run
// record is saved before and after every stage. Run fails outright only
// when a stage cannot make progress at all, which indicates a source or
// store outage rather than bad items.
func (o *Orchestrator) Run(ctx context.Context, trig Trigger) (RunResult, error) {
	scope := trig.Scope
	if scope == "" {
		scope = o.cfg.Pipeline.Scope
	}
	if scope == "" {
		scope = types.ScopeDelta
	}

	run := types.NewPipelineRun(uuid.NewString(), scope, trig.PaperIDs)
	if err := o.meta.SaveRun(ctx, run); err != nil {
		return RunResult{}, fmt.Errorf("recording run: %w", err)
	}
	o.log.Info("pipeline run started",
		zap.String("run_id", run.RunID),
		zap.String("scope", string(scope)),
		zap.String("query", trig.Query))

	result := RunResult{Run: run}
	items, err := o.runIngest(ctx, run, trig)
	if err != nil {
		o.finish(ctx, run, &result, nil)
		return result, err
	}

	stages := []struct {
		stage types.Stage
		exec  func(context.Context, *types.PipelineRun, []*workItem) error
	}{
		{types.StageTransform, o.runTransform},
		{types.StageEmbed, o.runEmbed},
		{types.StagePersist, o.runPersist},
		{types.StageIndexRefresh, o.runIndexRefresh},
	}

	for _, s := range stages {
		if err := o.runStage(ctx, run, s.stage, items, s.exec); err != nil {
			o.finish(ctx, run, &result, items)
			return result, err
		}
	}

	o.finish(ctx, run, &result, items)
	return result, nil
}

// runStage executes one stage over live items, updating and saving the
// run record around it. It fails only on escalation: every live item
// failed transiently, or the context was canceled.
func (o *Orchestrator) runStage(ctx context.Context, run *types.PipelineRun, stage types.Stage, items []*workItem, exec func(context.Context, *types.PipelineRun, []*workItem) error) error {
	run.StageStatuses[stage] = types.StageRunning
	o.saveRun(ctx, run)

	err := exec(ctx, run, items)
	if err == nil {
		err = o.escalation(items)
	}
	if err != nil {
		run.StageStatuses[stage] = types.StageFailed
		o.saveRun(ctx, run)
		return fmt.Errorf("stage %s: %w", stage, err)
	}

	status := types.StageSucceeded
	for _, it := range items {
		if it.err == nil && it.retried {
			status = types.StageRetried
			break
		}
	}
	run.StageStatuses[stage] = status
	o.saveRun(ctx, run)
	return nil
}

// escalation detects a store or service outage: a stage with live items
// where every single one failed with a transient error. Individual
// failures are expected and tolerated; total transient failure is not.
func (o *Orchestrator) escalation(items []*workItem) error {
	live, failed, transient := 0, 0, 0
	for _, it := range items {
		if it.skipped {
			continue
		}
		live++
		if it.err != nil {
			failed++
			if it.transient {
				transient++
			}
		}
	}
	if live > 0 && failed == live && transient == live {
		return fmt.Errorf("all %d items failed transiently, aborting run", live)
	}
	return nil
}

// runIngest builds the work set: papers fetched from sources for the
// query, plus stored papers selected by the run scope. It is the only
// stage that does not use the worker pool, since source fan-out is
// already concurrent inside ingest.FetchAll.
func (o *Orchestrator) runIngest(ctx context.Context, run *types.PipelineRun, trig Trigger) ([]*workItem, error) {
	run.StageStatuses[types.StageIngest] = types.StageRunning
	o.saveRun(ctx, run)

	byID := make(map[string]*workItem)
	var items []*workItem
	item := func(id string) *workItem {
		if it, ok := byID[id]; ok {
			return it
		}
		it := &workItem{id: id}
		byID[id] = it
		items = append(items, it)
		return it
	}

	if trig.Query != "" {
		out, err := ingest.FetchAll(ctx, o.sources, trig.Query, o.cfg.Ingestion, o.log)
		if err != nil {
			run.StageStatuses[types.StageIngest] = types.StageFailed
			o.saveRun(ctx, run)
			return nil, fmt.Errorf("stage %s: %w", types.StageIngest, err)
		}
		for i := range out.Records {
			r := out.Records[i]
			id := transform.NormalizeID(r.ID)
			item(id).raw = &r
		}
	}

	stored, err := o.scopedPapers(ctx, run)
	if err != nil {
		run.StageStatuses[types.StageIngest] = types.StageFailed
		o.saveRun(ctx, run)
		return nil, fmt.Errorf("stage %s: %w", types.StageIngest, err)
	}
	for _, p := range stored {
		item(p.ID).existing = p
	}

	// Fetched papers outside the stored scope still need their stored
	// record, if any, for the fingerprint comparison.
	for _, it := range items {
		if it.existing != nil {
			continue
		}
		if p, err := o.meta.GetPaper(ctx, it.id); err == nil {
			it.existing = p
		}
	}

	o.log.Info("work set assembled",
		zap.String("run_id", run.RunID),
		zap.Int("papers", len(items)))

	run.StageStatuses[types.StageIngest] = types.StageSucceeded
	o.saveRun(ctx, run)
	return items, nil
}

// scopedPapers selects stored papers for the run scope. Delta takes
// papers that have not reached indexed, which also picks up papers
// failed in earlier runs. Full takes the entire corpus; the transform
// stage still skips indexed papers whose fingerprint is unchanged.
func (o *Orchestrator) scopedPapers(ctx context.Context, run *types.PipelineRun) ([]*types.Paper, error) {
	if len(run.PaperIDs) > 0 {
		var out []*types.Paper
		for _, id := range run.PaperIDs {
			p, err := o.meta.GetPaper(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("loading scoped paper %s: %w", id, err)
			}
			out = append(out, p)
		}
		return out, nil
	}

	all, err := o.meta.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	if run.Scope == types.ScopeFull {
		return all, nil
	}
	var out []*types.Paper
	for _, p := range all {
		if !p.Status.AtLeast(types.StatusIndexed) {
			out = append(out, p)
		}
	}
	return out, nil
}

// runTransform cleans raw records into canonical papers and computes
// fingerprints and citation edges. An indexed paper whose fingerprint
// matches the incoming record is skipped for the rest of the run.
// Validation failures are permanent and never retried.
func (o *Orchestrator) runTransform(ctx context.Context, run *types.PipelineRun, items []*workItem) error {
	return o.forEach(ctx, run, items, func(it *workItem) error {
		if it.raw != nil {
			p, err := transform.Record(*it.raw)
			if err != nil {
				return err
			}
			if it.existing != nil && it.existing.Status == types.StatusIndexed &&
				it.existing.Fingerprint == p.Fingerprint {
				it.skipped = true
				return nil
			}
			it.paper = p
		} else {
			p := *it.existing
			p.Fingerprint = transform.Fingerprint(&p)
			if p.Status == types.StatusIndexed {
				it.skipped = true
				return nil
			}
			it.paper = &p
		}

		it.paper.Status = types.StatusTransformed
		it.edges = transform.Edges(it.paper)
		return nil
	})
}

// runEmbed generates one embedding per live paper. Transient embedding
// service failures retry with exponential backoff.
func (o *Orchestrator) runEmbed(ctx context.Context, run *types.PipelineRun, items []*workItem) error {
	return o.forEach(ctx, run, items, func(it *workItem) error {
		text := transform.EmbeddingText(it.paper)
		err := o.withRetry(ctx, it, func() error {
			vec, err := o.gen.Embed(ctx, text)
			if err != nil {
				return err
			}
			it.embedding = vec
			return nil
		})
		if err != nil {
			return err
		}
		it.paper.Status = types.StatusEmbedded
		return nil
	})
}

// runPersist writes each paper to all four stores. A partial failure
// repairs only the failed components on retry; writes that already
// succeeded are not repeated.
func (o *Orchestrator) runPersist(ctx context.Context, run *types.PipelineRun, items []*workItem) error {
	return o.forEach(ctx, run, items, func(it *workItem) error {
		in := persist.Input{
			Paper:     it.paper,
			Embedding: it.embedding,
			Edges:     it.edges,
		}

		res := o.writer.Persist(ctx, in)
		attempt := 0
		for !res.Succeeded() && attempt < o.maxRetries() {
			if err := o.backoff(ctx, attempt); err != nil {
				return err
			}
			it.retried = true
			attempt++
			res = o.writer.Repair(ctx, in, res)
		}
		return res.Err()
	})
}

// runIndexRefresh promotes fully persisted papers to indexed. Edges
// written for papers not yet ingested stay in the graph and resolve by
// themselves when the target paper arrives.
func (o *Orchestrator) runIndexRefresh(ctx context.Context, run *types.PipelineRun, items []*workItem) error {
	return o.forEach(ctx, run, items, func(it *workItem) error {
		if err := o.meta.UpdateStatus(ctx, it.id, types.StatusIndexed); err != nil {
			return types.Transient("promoting paper to indexed", err)
		}
		it.paper.Status = types.StatusIndexed
		return nil
	})
}

// forEach runs fn over all live items on a bounded worker pool. Context
// cancellation is honored between dispatches; in-flight items finish. A
// failed item records its error, joins the run's failed set, and is
// excluded from later stages.
func (o *Orchestrator) forEach(ctx context.Context, run *types.PipelineRun, items []*workItem, fn func(*workItem) error) error {
	workers := o.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	var dispatchErr error
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			dispatchErr = err
			break
		}
		if it.skipped || it.err != nil {
			continue
		}
		it.retried = false // flag is per stage
		wg.Add(1)
		sem <- struct{}{}
		go func(it *workItem) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(it); err != nil {
				it.fail(err)
				o.log.Warn("paper failed",
					zap.String("run_id", run.RunID),
					zap.String("paper_id", it.id),
					zap.Error(err))
			}
		}(it)
	}
	wg.Wait()

	return dispatchErr
}

// withRetry runs op, retrying transient errors up to the configured
// bound with exponential backoff. Validation and other permanent errors
// return immediately. Any retry marks the item, which surfaces as a
// retried stage in the run record.
func (o *Orchestrator) withRetry(ctx context.Context, it *workItem, op func() error) error {
	var err error
	for attempt := 0; attempt <= o.maxRetries(); attempt++ {
		if attempt > 0 {
			it.retried = true
			if berr := o.backoff(ctx, attempt-1); berr != nil {
				return berr
			}
		}
		err = op()
		if err == nil || !types.IsTransient(err) {
			return err
		}
	}
	return err
}

func (o *Orchestrator) maxRetries() int {
	if o.cfg.Pipeline.MaxRetries > 0 {
		return o.cfg.Pipeline.MaxRetries
	}
	return defaultMaxRetries
}

// backoff sleeps for base * 2^attempt, honoring cancellation.
func (o *Orchestrator) backoff(ctx context.Context, attempt int) error {
	base := o.cfg.Pipeline.RetryBaseDelay
	if base <= 0 {
		base = defaultRetryBase
	}
	delay := base * (1 << attempt)
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish closes out the run record, collects failed items, saves the
// record, and writes the YAML report. Stored papers that failed
// validation are marked failed in the metadata store; transient
// failures keep their prior status so the next delta run re-picks them.
func (o *Orchestrator) finish(ctx context.Context, run *types.PipelineRun, result *RunResult, items []*workItem) {
	for _, it := range items {
		switch {
		case it.err != nil:
			run.FailedItems = append(run.FailedItems, it.id)
			result.Failed++
			if it.existing != nil && types.IsValidation(it.err) {
				if err := o.meta.UpdateStatus(ctx, it.id, types.StatusFailed); err != nil {
					o.log.Warn("marking paper failed",
						zap.String("run_id", run.RunID),
						zap.String("paper_id", it.id),
						zap.Error(err))
				}
			}
		case it.skipped:
			result.Skipped++
		default:
			result.Processed++
		}
	}

	run.FinishedAt = time.Now().UTC()
	o.saveRun(ctx, run)

	if err := o.writeReport(run); err != nil {
		o.log.Warn("writing run report", zap.String("run_id", run.RunID), zap.Error(err))
	}

	o.log.Info("pipeline run finished",
		zap.String("run_id", run.RunID),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
}

// saveRun persists the run record, logging rather than failing the run
// on error. The run record is bookkeeping; losing one update must not
// abort paper processing.
func (o *Orchestrator) saveRun(ctx context.Context, run *types.PipelineRun) {
	if err := o.meta.SaveRun(ctx, run); err != nil {
		o.log.Warn("saving run record", zap.String("run_id", run.RunID), zap.Error(err))
	}
}
