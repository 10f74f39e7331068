package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-mastery-api/internal/models"
)

// AssessmentRepository persists assessments, their questions and the responses to them.
type AssessmentRepository interface {
	Create(ctx context.Context, assessment *models.Assessment) error
	Find(ctx context.Context, id uint) (*models.Assessment, error)
	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	GetQuestion(ctx context.Context, assessmentID, questionID uint) (*models.Question, error)
	CountResponses(ctx context.Context, questionID uint) (int64, error)
	CreateResponse(ctx context.Context, response *models.Response) error
	MarkInProgress(ctx context.Context, id uint) error
	MarkCompleted(ctx context.Context, id uint, score float64, passedWithoutHints bool, completedAt time.Time) (bool, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Assessment, error)
}

type assessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository constructs a repository.
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

// Find loads an assessment without its questions.
func (r *assessmentRepository) Find(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).
		Preload("Objective").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC").Order("id ASC")
		}).
		Preload("Questions.Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		First(&assessment, id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (r *assessmentRepository) GetQuestion(ctx context.Context, assessmentID, questionID uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Where("id = ? AND assessment_id = ?", questionID, assessmentID).
		First(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *assessmentRepository) CountResponses(ctx context.Context, questionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("question_id = ?", questionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *assessmentRepository) CreateResponse(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

// MarkInProgress moves a not_started assessment forward. Other statuses are left untouched.
func (r *assessmentRepository) MarkInProgress(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ? AND status = ?", id, models.AssessmentStatusNotStarted).
		Update("status", models.AssessmentStatusInProgress).
		Error
}

// MarkCompleted finalises an assessment and reports false when it was already completed.
func (r *assessmentRepository) MarkCompleted(ctx context.Context, id uint, score float64, passedWithoutHints bool, completedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ? AND status <> ?", id, models.AssessmentStatusCompleted).
		Updates(map[string]interface{}{
			"status":               models.AssessmentStatusCompleted,
			"score":                score,
			"passed_without_hints": passedWithoutHints,
			"completed_at":         completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *assessmentRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Assessment, error) {
	var assessments []models.Assessment
	if err := r.db.WithContext(ctx).
		Preload("Objective").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&assessments).Error; err != nil {
		return nil, err
	}
	return assessments, nil
}
