// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/muhmmad-ahmad-1/ai601-research-paper-recommender/pkg/types"
)

// paperModel is the gorm mapping for the papers table.
type paperModel struct {
	ID          string         `gorm:"primaryKey"`
	Title       string         `gorm:"type:text"`
	Abstract    string         `gorm:"type:text"`
	Authors     datatypes.JSON `gorm:"type:jsonb"`
	PublishedAt time.Time
	References  datatypes.JSON `gorm:"type:jsonb"`
	Source      string
	Status      string `gorm:"index"`
	Fingerprint string
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (paperModel) TableName() string { return "papers" }

// runModel is the gorm mapping for the pipeline_runs table.
type runModel struct {
	RunID         string `gorm:"primaryKey"`
	StartedAt     time.Time
	FinishedAt    *time.Time
	Scope         string
	PaperIDs      datatypes.JSON `gorm:"type:jsonb"`
	StageStatuses datatypes.JSON `gorm:"type:jsonb"`
	FailedItems   datatypes.JSON `gorm:"type:jsonb"`
}

func (runModel) TableName() string { return "pipeline_runs" }

// MetadataStore implements Metadata on postgres via gorm.
type MetadataStore struct {
	db *gorm.DB
}

// OpenMetadata connects to postgres and migrates the papers and
// pipeline_runs tables.
func OpenMetadata(dsn string) (*MetadataStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}
	if err := db.AutoMigrate(&paperModel{}, &runModel{}); err != nil {
		return nil, fmt.Errorf("migrating metadata schema: %w", err)
	}
	return &MetadataStore{db: db}, nil
}

// NewMetadataStore wraps an existing gorm handle. Used by tests sharing
// one database.
func NewMetadataStore(db *gorm.DB) *MetadataStore { return &MetadataStore{db: db} }

func toPaperModel(p *types.Paper) (*paperModel, error) {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return nil, fmt.Errorf("marshaling authors: %w", err)
	}
	refs, err := json.Marshal(p.References)
	if err != nil {
		return nil, fmt.Errorf("marshaling references: %w", err)
	}
	return &paperModel{
		ID:          p.ID,
		Title:       p.Title,
		Abstract:    p.Abstract,
		Authors:     authors,
		PublishedAt: p.PublishedAt,
		References:  refs,
		Source:      p.Source,
		Status:      string(p.Status),
		Fingerprint: p.Fingerprint,
	}, nil
}

func fromPaperModel(m *paperModel) *types.Paper {
	p := &types.Paper{
		ID:          m.ID,
		Title:       m.Title,
		Abstract:    m.Abstract,
		PublishedAt: m.PublishedAt,
		Source:      m.Source,
		Status:      types.PaperStatus(m.Status),
		Fingerprint: m.Fingerprint,
	}
	json.Unmarshal(m.Authors, &p.Authors)
	json.Unmarshal(m.References, &p.References)
	return p
}

// UpsertPaper writes the full record, last write wins per field.
func (s *MetadataStore) UpsertPaper(ctx context.Context, p *types.Paper) error {
	m, err := toPaperModel(p)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(m).Error
	return types.Transient("metadata upsert", err)
}

func (s *MetadataStore) GetPaper(ctx context.Context, id string) (*types.Paper, error) {
	var m paperModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, types.Transient("metadata get", err)
	}
	return fromPaperModel(&m), nil
}

func (s *MetadataStore) ListByStatus(ctx context.Context, status types.PaperStatus) ([]*types.Paper, error) {
	var models []*paperModel
	err := s.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, types.Transient("metadata list", err)
	}
	papers := make([]*types.Paper, len(models))
	for i, m := range models {
		papers[i] = fromPaperModel(m)
	}
	return papers, nil
}

func (s *MetadataStore) ListAll(ctx context.Context) ([]*types.Paper, error) {
	var models []*paperModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, types.Transient("metadata list", err)
	}
	papers := make([]*types.Paper, len(models))
	for i, m := range models {
		papers[i] = fromPaperModel(m)
	}
	return papers, nil
}

func (s *MetadataStore) UpdateStatus(ctx context.Context, id string, status types.PaperStatus) error {
	res := s.db.WithContext(ctx).Model(&paperModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return types.Transient("metadata status update", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRun overwrites the run record by run id. The orchestrator calls
// this at every stage boundary, which is what makes crash recovery and
// cross-run retry possible.
func (s *MetadataStore) SaveRun(ctx context.Context, run *types.PipelineRun) error {
	statuses, err := json.Marshal(run.StageStatuses)
	if err != nil {
		return fmt.Errorf("marshaling stage statuses: %w", err)
	}
	failed, err := json.Marshal(run.FailedItems)
	if err != nil {
		return fmt.Errorf("marshaling failed items: %w", err)
	}
	ids, err := json.Marshal(run.PaperIDs)
	if err != nil {
		return fmt.Errorf("marshaling paper ids: %w", err)
	}

	m := &runModel{
		RunID:         run.RunID,
		StartedAt:     run.StartedAt,
		Scope:         string(run.Scope),
		PaperIDs:      ids,
		StageStatuses: statuses,
		FailedItems:   failed,
	}
	if !run.FinishedAt.IsZero() {
		t := run.FinishedAt
		m.FinishedAt = &t
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}},
		UpdateAll: true,
	}).Create(m).Error
	return types.Transient("run save", err)
}

func (s *MetadataStore) GetRun(ctx context.Context, runID string) (*types.PipelineRun, error) {
	var m runModel
	if err := s.db.WithContext(ctx).First(&m, "run_id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, types.Transient("run get", err)
	}

	run := &types.PipelineRun{
		RunID:     m.RunID,
		StartedAt: m.StartedAt,
		Scope:     types.RunScope(m.Scope),
	}
	if m.FinishedAt != nil {
		run.FinishedAt = *m.FinishedAt
	}
	json.Unmarshal(m.PaperIDs, &run.PaperIDs)
	json.Unmarshal(m.StageStatuses, &run.StageStatuses)
	json.Unmarshal(m.FailedItems, &run.FailedItems)
	return run, nil
}
