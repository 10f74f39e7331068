package models

import (
	"time"

	"gorm.io/datatypes"
)

// MasteryLevel is the current mastery state of a student for an objective.
type MasteryLevel string

const (
	MasteryLevelNotStarted MasteryLevel = "not_started"
	MasteryLevelIntroduced MasteryLevel = "introduced"
	MasteryLevelPracticing MasteryLevel = "practicing"
	MasteryLevelMastered   MasteryLevel = "mastered"
)

// Progress holds the latest mastery level for a (student, objective) pair.
type Progress struct {
	ID            uint                      `gorm:"primaryKey" json:"id"`
	StudentID     uint                      `gorm:"uniqueIndex:idx_progress_pair;not null" json:"student_id"`
	ObjectiveID   uint                      `gorm:"uniqueIndex:idx_progress_pair;not null" json:"objective_id"`
	MasteryLevel  MasteryLevel              `gorm:"size:32;not null;default:not_started" json:"mastery_level"`
	SessionIDs    datatypes.JSONSlice[uint] `json:"session_ids"`
	AssessmentIDs datatypes.JSONSlice[uint] `json:"assessment_ids"`
	Notes         string                    `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
}

// AppendAssessment records a contributing assessment once.
func (p *Progress) AppendAssessment(id uint) {
	for _, existing := range p.AssessmentIDs {
		if existing == id {
			return
		}
	}
	p.AssessmentIDs = append(p.AssessmentIDs, id)
}

// IsMastered reports whether the objective has been mastered.
func (p Progress) IsMastered() bool {
	return p.MasteryLevel == MasteryLevelMastered
}
