package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles the repositories that take part in one atomic unit.
type Repositories struct {
	Assessments AssessmentRepository
	Mastery     MasteryRepository
}

// UnitOfWork runs a function against repositories bound to a single database transaction.
type UnitOfWork interface {
	Atomic(ctx context.Context, fn func(repos Repositories) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork constructs a transactional unit of work.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Atomic(ctx context.Context, fn func(repos Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			Assessments: NewAssessmentRepository(tx),
			Mastery:     NewMasteryRepository(tx),
		})
	})
}
