package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-mastery-api/internal/models"
)

// MasteryRepository persists mastery attempts and progress records.
type MasteryRepository interface {
	ListAttempts(ctx context.Context, studentID, objectiveID uint) ([]models.MasteryAttempt, error)
	ListCleanAttempts(ctx context.Context, studentID, objectiveID uint) ([]models.MasteryAttempt, error)
	CreateAttempt(ctx context.Context, attempt *models.MasteryAttempt) error
	GetProgress(ctx context.Context, studentID, objectiveID uint) (*models.Progress, error)
	SaveProgress(ctx context.Context, progress *models.Progress) error
}

type masteryRepository struct {
	db *gorm.DB
}

// NewMasteryRepository constructs a repository.
func NewMasteryRepository(db *gorm.DB) MasteryRepository {
	return &masteryRepository{db: db}
}

func (r *masteryRepository) ListAttempts(ctx context.Context, studentID, objectiveID uint) ([]models.MasteryAttempt, error) {
	var attempts []models.MasteryAttempt
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND objective_id = ?", studentID, objectiveID).
		Order("attempt_date ASC").
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *masteryRepository) ListCleanAttempts(ctx context.Context, studentID, objectiveID uint) ([]models.MasteryAttempt, error) {
	var attempts []models.MasteryAttempt
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND objective_id = ? AND passed_clean = ?", studentID, objectiveID, true).
		Order("attempt_date ASC").
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *masteryRepository) CreateAttempt(ctx context.Context, attempt *models.MasteryAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *masteryRepository) GetProgress(ctx context.Context, studentID, objectiveID uint) (*models.Progress, error) {
	var progress models.Progress
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND objective_id = ?", studentID, objectiveID).
		First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

// SaveProgress inserts or updates the single progress row of a (student, objective) pair.
func (r *masteryRepository) SaveProgress(ctx context.Context, progress *models.Progress) error {
	if progress.ID != 0 {
		return r.db.WithContext(ctx).Save(progress).Error
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "objective_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mastery_level", "assessment_ids", "notes", "updated_at"}),
		}).
		Create(progress).Error
}
