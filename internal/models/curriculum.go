package models

import (
	"time"

	"gorm.io/datatypes"
)

// Curriculum is a year-long plan for a student in one subject. It is owned by the curriculum
// service; the mastery engine only reads it.
type Curriculum struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	StudentID   uint                        `gorm:"index;not null" json:"student_id"`
	Subject     string                      `gorm:"size:100;not null" json:"subject"`
	Title       string                      `gorm:"size:255;not null" json:"title"`
	Description string                      `gorm:"type:text" json:"description"`
	GradeLevel  int                         `gorm:"not null" json:"grade_level"`
	Standards   datatypes.JSONSlice[string] `json:"standards"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	Units       []Unit                      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"units,omitempty"`
}

// Unit groups objectives inside a curriculum.
type Unit struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	CurriculumID   uint                `gorm:"index;not null" json:"curriculum_id"`
	Title          string              `gorm:"size:255;not null" json:"title"`
	Description    string              `gorm:"type:text" json:"description"`
	Order          int                 `gorm:"column:sort_order" json:"order"`
	EstimatedHours int                 `json:"estimated_hours"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Curriculum     Curriculum          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Objectives     []LearningObjective `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"objectives,omitempty"`
}

// LearningObjective is the unit of knowledge an assessment measures mastery of.
type LearningObjective struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	UnitID        uint                        `gorm:"index;not null" json:"unit_id"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Description   string                      `gorm:"type:text" json:"description"`
	Order         int                         `gorm:"column:sort_order" json:"order"`
	StandardCodes datatypes.JSONSlice[string] `json:"standard_codes"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	Unit          Unit                        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// SubjectMath is the curriculum subject for mathematics.
	SubjectMath = "math"
	// SubjectComputerScience is the curriculum subject for computer science.
	SubjectComputerScience = "computer_science"
)

// IsQuantitativeSubject reports whether objectives in the subject are assessed with numeric and
// equation questions.
func IsQuantitativeSubject(subject string) bool {
	switch subject {
	case SubjectMath, SubjectComputerScience:
		return true
	default:
		return false
	}
}
