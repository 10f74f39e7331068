package models

import (
	"time"

	"gorm.io/datatypes"
)

// AssessmentStatus tracks the lifecycle of an assessment.
type AssessmentStatus string

const (
	// AssessmentStatusNotStarted is the initial status of a generated assessment.
	AssessmentStatusNotStarted AssessmentStatus = "not_started"
	// AssessmentStatusInProgress is set by the first answer submission.
	AssessmentStatusInProgress AssessmentStatus = "in_progress"
	// AssessmentStatusCompleted is terminal.
	AssessmentStatusCompleted AssessmentStatus = "completed"
)

// QuestionType is the persisted tag of a question's answer semantics.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeNumeric        QuestionType = "numeric"
	QuestionTypeEquation       QuestionType = "equation"
)

// Assessment bundles questions generated for one student and objective.
type Assessment struct {
	ID                 uint              `gorm:"primaryKey" json:"id"`
	ObjectiveID        uint              `gorm:"index;not null" json:"objective_id"`
	StudentID          uint              `gorm:"index;not null" json:"student_id"`
	Status             AssessmentStatus  `gorm:"size:32;not null;default:not_started" json:"status"`
	Score              *float64          `json:"score"`
	PassedWithoutHints bool              `gorm:"not null;default:false" json:"passed_without_hints"`
	CompletedAt        *time.Time        `gorm:"type:date" json:"completed_at"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	Objective          LearningObjective `gorm:"constraint:OnUpdate:CASCADE" json:"-"`
	Questions          []Question        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
}

// IsCompleted reports whether the assessment reached its terminal status.
func (a Assessment) IsCompleted() bool {
	return a.Status == AssessmentStatusCompleted
}

// Question is one graded item. Rows are written once at generation time.
type Question struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	AssessmentID  uint                        `gorm:"index;not null" json:"assessment_id"`
	Type          QuestionType                `gorm:"column:question_type;size:32;not null" json:"question_type"`
	Text          string                      `gorm:"column:question_text;type:text;not null" json:"question_text"`
	Options       datatypes.JSONSlice[string] `json:"options,omitempty"`
	CorrectAnswer string                      `gorm:"type:text;not null" json:"-"`
	Hint1         string                      `gorm:"column:hint_1;type:text" json:"-"`
	Hint2         string                      `gorm:"column:hint_2;type:text" json:"-"`
	Order         int                         `gorm:"column:sort_order;not null" json:"order"`
	CreatedAt     time.Time                   `json:"created_at"`
	Responses     []Response                  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// LatestResponse returns the most recent response by creation time, breaking ties by id.
func (q Question) LatestResponse() (Response, bool) {
	if len(q.Responses) == 0 {
		return Response{}, false
	}
	latest := q.Responses[0]
	for _, response := range q.Responses[1:] {
		if response.CreatedAt.After(latest.CreatedAt) ||
			(response.CreatedAt.Equal(latest.CreatedAt) && response.ID > latest.ID) {
			latest = response
		}
	}
	return latest, true
}

// Response is one graded attempt at a question. Responses are append-only.
type Response struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	QuestionID    uint      `gorm:"index;not null" json:"question_id"`
	StudentAnswer string    `gorm:"type:text;not null" json:"student_answer"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	HintsUsed     int       `gorm:"not null;default:0" json:"hints_used"`
	AIFeedback    string    `gorm:"column:ai_feedback;type:text" json:"ai_feedback,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// MasteryAttempt is the immutable audit record of one assessment completion.
type MasteryAttempt struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"index:idx_mastery_attempt_pair;not null" json:"student_id"`
	ObjectiveID  uint      `gorm:"index:idx_mastery_attempt_pair;not null" json:"objective_id"`
	AssessmentID uint      `gorm:"index;not null" json:"assessment_id"`
	PassedClean  bool      `gorm:"not null" json:"passed_clean"`
	AttemptDate  time.Time `gorm:"type:date;not null" json:"attempt_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// CalendarDate truncates t to midnight UTC of its calendar day in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar date for set membership checks.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
