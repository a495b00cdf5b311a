package models

// GORM models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TriageRun records how a single request was served. It intentionally holds
// no patient fields, prompts or completions.
type TriageRun struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	RequestID     string    `json:"request_id" gorm:"index;not null"`
	Mode          string    `json:"mode" gorm:"not null;check:mode IN ('triage','classify')"`
	Tier          string    `json:"tier"`
	BothFailed    bool      `json:"both_failed" gorm:"default:false"`
	DocumentCount int       `json:"document_count" gorm:"default:0"`
	ChunkCount    int       `json:"chunk_count" gorm:"default:0"`
	LatencyMs     int       `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// TierStat aggregates runs per tier for the health/stats view.
type TierStat struct {
	Tier  string `json:"tier"`
	Count int64  `json:"count"`
}

type TriageRunRepository interface {
	Create(run *TriageRun) error
	GetByRequestID(requestID string) (*TriageRun, error)
	GetRecent(limit int) ([]TriageRun, error)
	CountByTier(since time.Time) ([]TierStat, error)
}

func (TriageRun) TableName() string { return "triage_runs" }

func (r *TriageRun) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("request id is required")
	}
	if r.Mode != ModeTriage && r.Mode != ModeClassify {
		return fmt.Errorf("invalid mode: %s", r.Mode)
	}
	if r.LatencyMs < 0 {
		return fmt.Errorf("latency cannot be negative")
	}
	return nil
}

// GORM hooks
func (r *TriageRun) BeforeCreate(tx *gorm.DB) error {
	return r.Validate()
}
