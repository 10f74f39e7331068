package dto

import (
	"time"

	"github.com/noah-isme/gema-mastery-api/internal/models"
)

// GenerateAssessmentRequest asks for a new assessment on an objective.
type GenerateAssessmentRequest struct {
	ObjectiveID uint `json:"objective_id" validate:"required"`
	StudentID   uint `json:"student_id" validate:"required"`
}

// SubmitAnswerRequest carries one answer to one question.
type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"answer" validate:"required,max=2000"`
}

// QuestionResponse is a question as shown to the learner. Answers and hints are withheld.
type QuestionResponse struct {
	ID      uint     `json:"id"`
	Type    string   `json:"question_type"`
	Text    string   `json:"question_text"`
	Options []string `json:"options,omitempty"`
	Order   int      `json:"order"`
}

// AssessmentResponse is an assessment with its questions.
type AssessmentResponse struct {
	ID                 uint               `json:"id"`
	ObjectiveID        uint               `json:"objective_id"`
	StudentID          uint               `json:"student_id"`
	Status             string             `json:"status"`
	Score              *float64           `json:"score"`
	PassedWithoutHints bool               `json:"passed_without_hints"`
	CompletedAt        *string            `json:"completed_at"`
	CreatedAt          time.Time          `json:"created_at"`
	Questions          []QuestionResponse `json:"questions"`
}

// AssessmentSummaryResponse is one row of a student's assessment list.
type AssessmentSummaryResponse struct {
	ID                 uint      `json:"id"`
	ObjectiveID        uint      `json:"objective_id"`
	ObjectiveTitle     string    `json:"objective_title"`
	Status             string    `json:"status"`
	Score              *float64  `json:"score"`
	PassedWithoutHints bool      `json:"passed_without_hints"`
	CompletedAt        *string   `json:"completed_at"`
	CreatedAt          time.Time `json:"created_at"`
}

// ReviewResponseItem is one recorded answer in a review.
type ReviewResponseItem struct {
	StudentAnswer string    `json:"student_answer"`
	IsCorrect     bool      `json:"is_correct"`
	HintsUsed     int       `json:"hints_used"`
	AIFeedback    string    `json:"ai_feedback,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReviewQuestionResponse exposes the canonical answer and hints for a completed assessment.
type ReviewQuestionResponse struct {
	QuestionResponse
	CorrectAnswer string               `json:"correct_answer"`
	Hint1         string               `json:"hint_1,omitempty"`
	Hint2         string               `json:"hint_2,omitempty"`
	Responses     []ReviewResponseItem `json:"responses"`
}

// AssessmentReviewResponse is a completed assessment as seen by a guardian or teacher.
type AssessmentReviewResponse struct {
	ID                 uint                     `json:"id"`
	ObjectiveID        uint                     `json:"objective_id"`
	ObjectiveTitle     string                   `json:"objective_title"`
	StudentID          uint                     `json:"student_id"`
	Score              *float64                 `json:"score"`
	PassedWithoutHints bool                     `json:"passed_without_hints"`
	CompletedAt        *string                  `json:"completed_at"`
	Questions          []ReviewQuestionResponse `json:"questions"`
}

// SubmissionResult is returned after grading one answer.
type SubmissionResult struct {
	IsCorrect     bool    `json:"is_correct"`
	HintsUsed     int     `json:"hints_used"`
	Hint          *string `json:"hint"`
	Feedback      *string `json:"feedback"`
	ShowAnswer    bool    `json:"show_answer"`
	CorrectAnswer *string `json:"correct_answer"`
}

// CompletionResult is returned when an assessment is finalised.
type CompletionResult struct {
	AssessmentID       uint    `json:"assessment_id"`
	Score              float64 `json:"score"`
	PassedWithoutHints bool    `json:"passed_without_hints"`
	MasteryUpdated     bool    `json:"mastery_updated"`
	NewLevel           *string `json:"new_mastery_level"`
	AlreadyCompleted   bool    `json:"already_completed"`
}

// MasteryAttemptResponse is one entry of the attempt history.
type MasteryAttemptResponse struct {
	AssessmentID uint   `json:"assessment_id"`
	PassedClean  bool   `json:"passed_clean"`
	AttemptDate  string `json:"attempt_date"`
}

// MasteryStatusResponse projects the mastery state of a student for an objective.
type MasteryStatusResponse struct {
	StudentID           uint                     `json:"student_id"`
	ObjectiveID         uint                     `json:"objective_id"`
	CurrentLevel        string                   `json:"current_level"`
	CleanPasses         int                      `json:"clean_passes"`
	PassesNeeded        int                      `json:"passes_needed"`
	CountsTowardMastery bool                     `json:"counts_toward_mastery"`
	CanAchieveMastery   bool                     `json:"can_achieve_mastery"`
	Attempts            []MasteryAttemptResponse `json:"attempts"`
}

// NewQuestionResponse converts a question for learner display.
func NewQuestionResponse(question models.Question) QuestionResponse {
	response := QuestionResponse{
		ID:    question.ID,
		Type:  string(question.Type),
		Text:  question.Text,
		Order: question.Order,
	}
	if len(question.Options) > 0 {
		response.Options = append([]string(nil), question.Options...)
	}
	return response
}

// NewAssessmentResponse converts an assessment for learner display.
func NewAssessmentResponse(assessment models.Assessment) AssessmentResponse {
	questions := make([]QuestionResponse, 0, len(assessment.Questions))
	for _, question := range assessment.Questions {
		questions = append(questions, NewQuestionResponse(question))
	}

	return AssessmentResponse{
		ID:                 assessment.ID,
		ObjectiveID:        assessment.ObjectiveID,
		StudentID:          assessment.StudentID,
		Status:             string(assessment.Status),
		Score:              assessment.Score,
		PassedWithoutHints: assessment.PassedWithoutHints,
		CompletedAt:        formatDate(assessment.CompletedAt),
		CreatedAt:          assessment.CreatedAt,
		Questions:          questions,
	}
}

// NewAssessmentSummaryResponse converts an assessment into a list row.
func NewAssessmentSummaryResponse(assessment models.Assessment) AssessmentSummaryResponse {
	return AssessmentSummaryResponse{
		ID:                 assessment.ID,
		ObjectiveID:        assessment.ObjectiveID,
		ObjectiveTitle:     assessment.Objective.Title,
		Status:             string(assessment.Status),
		Score:              assessment.Score,
		PassedWithoutHints: assessment.PassedWithoutHints,
		CompletedAt:        formatDate(assessment.CompletedAt),
		CreatedAt:          assessment.CreatedAt,
	}
}

// NewAssessmentReviewResponse converts a completed assessment for review.
func NewAssessmentReviewResponse(assessment models.Assessment) AssessmentReviewResponse {
	questions := make([]ReviewQuestionResponse, 0, len(assessment.Questions))
	for _, question := range assessment.Questions {
		responses := make([]ReviewResponseItem, 0, len(question.Responses))
		for _, response := range question.Responses {
			responses = append(responses, ReviewResponseItem{
				StudentAnswer: response.StudentAnswer,
				IsCorrect:     response.IsCorrect,
				HintsUsed:     response.HintsUsed,
				AIFeedback:    response.AIFeedback,
				CreatedAt:     response.CreatedAt,
			})
		}
		questions = append(questions, ReviewQuestionResponse{
			QuestionResponse: NewQuestionResponse(question),
			CorrectAnswer:    question.CorrectAnswer,
			Hint1:            question.Hint1,
			Hint2:            question.Hint2,
			Responses:        responses,
		})
	}

	return AssessmentReviewResponse{
		ID:                 assessment.ID,
		ObjectiveID:        assessment.ObjectiveID,
		ObjectiveTitle:     assessment.Objective.Title,
		StudentID:          assessment.StudentID,
		Score:              assessment.Score,
		PassedWithoutHints: assessment.PassedWithoutHints,
		CompletedAt:        formatDate(assessment.CompletedAt),
		Questions:          questions,
	}
}

// NewMasteryAttemptResponse converts an attempt row.
func NewMasteryAttemptResponse(attempt models.MasteryAttempt) MasteryAttemptResponse {
	return MasteryAttemptResponse{
		AssessmentID: attempt.AssessmentID,
		PassedClean:  attempt.PassedClean,
		AttemptDate:  models.DateKey(attempt.AttemptDate),
	}
}

func formatDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := models.DateKey(*value)
	return &formatted
}
