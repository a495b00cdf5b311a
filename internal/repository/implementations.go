package repository

import (
	"time"

	"github.com/edtriage/backend/internal/models"
	"gorm.io/gorm"
)

// TriageRunRepositoryImpl implements TriageRunRepository
type TriageRunRepositoryImpl struct {
	db *gorm.DB
}

func NewTriageRunRepository(db *gorm.DB) models.TriageRunRepository {
	return &TriageRunRepositoryImpl{db: db}
}

func (r *TriageRunRepositoryImpl) Create(run *models.TriageRun) error {
	return r.db.Create(run).Error
}

func (r *TriageRunRepositoryImpl) GetByRequestID(requestID string) (*models.TriageRun, error) {
	var run models.TriageRun
	err := r.db.Where("request_id = ?", requestID).
		Order("created_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *TriageRunRepositoryImpl) GetRecent(limit int) ([]models.TriageRun, error) {
	var runs []models.TriageRun
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func (r *TriageRunRepositoryImpl) CountByTier(since time.Time) ([]models.TierStat, error) {
	var stats []models.TierStat
	err := r.db.Model(&models.TriageRun{}).
		Select("tier, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("tier").
		Order("tier").
		Scan(&stats).Error
	return stats, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	TriageRun models.TriageRunRepository
}

// NewRepositoryManager returns nil when there is no audit database.
func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	if db == nil {
		return nil
	}
	return &RepositoryManager{
		TriageRun: NewTriageRunRepository(db),
	}
}
