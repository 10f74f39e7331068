package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-mastery-api/internal/models"
)

// ObjectiveRepository gives read-only access to learning objectives and their curricular context.
type ObjectiveRepository interface {
	GetWithCurriculum(ctx context.Context, id uint) (*models.LearningObjective, error)
}

type objectiveRepository struct {
	db *gorm.DB
}

// NewObjectiveRepository constructs a repository.
func NewObjectiveRepository(db *gorm.DB) ObjectiveRepository {
	return &objectiveRepository{db: db}
}

func (r *objectiveRepository) GetWithCurriculum(ctx context.Context, id uint) (*models.LearningObjective, error) {
	var objective models.LearningObjective
	if err := r.db.WithContext(ctx).
		Preload("Unit.Curriculum").
		First(&objective, id).Error; err != nil {
		return nil, err
	}
	return &objective, nil
}
