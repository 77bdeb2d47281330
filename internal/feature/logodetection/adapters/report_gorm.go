// Package adapters はlogodetectionフィーチャーの永続化アダプターを提供します。
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"logoscan/internal/feature/logodetection/domain/entity"
	"logoscan/internal/feature/logodetection/usecase"
)

type reportGorm struct {
	db *gorm.DB
}

var _ usecase.ReportRepository = (*reportGorm)(nil)

// NewReportRepository はgormで検出履歴を保存するリポジトリを生成します。
func NewReportRepository(db *gorm.DB) *reportGorm {
	return &reportGorm{db: db}
}

// ReportModel は logo_reports テーブルの1行です。
type ReportModel struct {
	ID           uint      `gorm:"primaryKey"`
	Path         string    `gorm:"size:1024;not null;index"`
	Mode         string    `gorm:"size:16;not null"`
	Status       string    `gorm:"size:16;not null;index"`
	Logos        string    `gorm:"type:text"`
	AverageScore float64   `gorm:"not null;default:0"`
	Error        string    `gorm:"type:text"`
	DurationMS   int64     `gorm:"not null;default:0"`
	ProcessedAt  time.Time `gorm:"not null;index"`
}

func (ReportModel) TableName() string {
	return "logo_reports"
}

// logoRecord はアノテーションをJSONで保存するための表現です。
type logoRecord struct {
	Description string   `json:"description,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

func toModel(r entity.FileReport) (ReportModel, error) {
	records := make([]logoRecord, 0, len(r.Logos))
	for _, l := range r.Logos {
		records = append(records, logoRecord{Description: l.Description, Score: l.Score})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return ReportModel{}, err
	}
	processedAt := r.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}
	return ReportModel{
		Path:         r.Path,
		Mode:         r.Mode,
		Status:       string(r.Status),
		Logos:        string(b),
		AverageScore: r.AverageScore,
		Error:        r.Error,
		DurationMS:   r.Duration.Milliseconds(),
		ProcessedAt:  processedAt,
	}, nil
}

func toEntity(m ReportModel) (entity.FileReport, error) {
	var records []logoRecord
	if m.Logos != "" {
		if err := json.Unmarshal([]byte(m.Logos), &records); err != nil {
			return entity.FileReport{}, fmt.Errorf("corrupted logos for report %d: %w", m.ID, err)
		}
	}
	var logos []entity.LogoAnnotation
	for _, rec := range records {
		logos = append(logos, entity.LogoAnnotation{Description: rec.Description, Score: rec.Score})
	}
	return entity.FileReport{
		Path:         m.Path,
		Mode:         m.Mode,
		Status:       entity.ReportStatus(m.Status),
		Logos:        logos,
		AverageScore: m.AverageScore,
		Error:        m.Error,
		Duration:     time.Duration(m.DurationMS) * time.Millisecond,
		ProcessedAt:  m.ProcessedAt,
	}, nil
}

// Save はレポートをまとめて保存します。
func (r *reportGorm) Save(ctx context.Context, reports ...entity.FileReport) error {
	if len(reports) == 0 {
		return nil
	}
	ms := make([]ReportModel, 0, len(reports))
	for _, rep := range reports {
		m, err := toModel(rep)
		if err != nil {
			return fmt.Errorf("failed to encode report for %q: %w", rep.Path, err)
		}
		ms = append(ms, m)
	}
	return r.db.WithContext(ctx).Create(&ms).Error
}

// ListRecent は処理日時の新しい順に最大limit件のレポートを返します。
func (r *reportGorm) ListRecent(ctx context.Context, limit int) ([]entity.FileReport, error) {
	var ms []ReportModel
	if err := r.db.WithContext(ctx).
		Order("processed_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	out := make([]entity.FileReport, 0, len(ms))
	for _, m := range ms {
		e, err := toEntity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
