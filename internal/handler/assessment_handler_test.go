package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-mastery-api/internal/dto"
	"github.com/noah-isme/gema-mastery-api/internal/handler"
	"github.com/noah-isme/gema-mastery-api/internal/middleware"
	"github.com/noah-isme/gema-mastery-api/internal/repository"
	"github.com/noah-isme/gema-mastery-api/internal/service"
)

type stubAssessmentService struct {
	generateErr error
	submitErr   error
	completeErr error
	reviewErr   error
	lastActor   service.Actor
	lastSubmit  dto.SubmitAnswerRequest
	submission  dto.SubmissionResult
	completion  dto.CompletionResult
}

func (s *stubAssessmentService) Generate(_ context.Context, actor service.Actor, req dto.GenerateAssessmentRequest) (dto.AssessmentResponse, error) {
	s.lastActor = actor
	if s.generateErr != nil {
		return dto.AssessmentResponse{}, s.generateErr
	}
	return dto.AssessmentResponse{ID: 3, ObjectiveID: req.ObjectiveID, StudentID: req.StudentID, Status: "not_started", CreatedAt: time.Now()}, nil
}

func (s *stubAssessmentService) Get(_ context.Context, actor service.Actor, id uint) (dto.AssessmentResponse, error) {
	s.lastActor = actor
	if id != 3 {
		return dto.AssessmentResponse{}, service.ErrAssessmentNotFound
	}
	return dto.AssessmentResponse{ID: id, Status: "in_progress"}, nil
}

func (s *stubAssessmentService) Review(_ context.Context, actor service.Actor, id uint) (dto.AssessmentReviewResponse, error) {
	s.lastActor = actor
	if s.reviewErr != nil {
		return dto.AssessmentReviewResponse{}, s.reviewErr
	}
	return dto.AssessmentReviewResponse{ID: id}, nil
}

func (s *stubAssessmentService) Submit(_ context.Context, actor service.Actor, _ uint, req dto.SubmitAnswerRequest) (dto.SubmissionResult, error) {
	s.lastActor = actor
	s.lastSubmit = req
	if s.submitErr != nil {
		return dto.SubmissionResult{}, s.submitErr
	}
	return s.submission, nil
}

func (s *stubAssessmentService) Complete(_ context.Context, actor service.Actor, id uint) (dto.CompletionResult, error) {
	s.lastActor = actor
	if s.completeErr != nil {
		return dto.CompletionResult{}, s.completeErr
	}
	result := s.completion
	result.AssessmentID = id
	return result, nil
}

func (s *stubAssessmentService) ListForStudent(_ context.Context, actor service.Actor, studentID uint) ([]dto.AssessmentSummaryResponse, error) {
	s.lastActor = actor
	return []dto.AssessmentSummaryResponse{{ID: 1, ObjectiveTitle: "Fractions"}}, nil
}

type stubMasteryService struct {
	status dto.MasteryStatusResponse
	err    error
}

func (s *stubMasteryService) Evaluate(context.Context, repository.MasteryRepository, service.MasteryInput) (service.MasteryOutcome, error) {
	return service.MasteryOutcome{}, nil
}

func (s *stubMasteryService) Status(_ context.Context, _ service.Actor, studentID, objectiveID uint) (dto.MasteryStatusResponse, error) {
	if s.err != nil {
		return dto.MasteryStatusResponse{}, s.err
	}
	status := s.status
	status.StudentID = studentID
	status.ObjectiveID = objectiveID
	return status, nil
}

func (s *stubMasteryService) InvalidateStatus(context.Context, uint, uint) {}

func (s *stubMasteryService) Today() time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
}

func newAssessmentApp(svc service.AssessmentService, mastery service.MasteryService, userID uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1", func(c *fiber.Ctx) error {
		middleware.WithActor(c, service.Actor{UserID: userID, Role: role})
		return c.Next()
	})
	handler.NewAssessmentHandler(svc, mastery, 2, zerolog.Nop()).Register(group)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	resp.Body.Close()
	return resp, decoded
}

func TestAssessmentHandlerGenerate(t *testing.T) {
	svc := &stubAssessmentService{}
	app := newAssessmentApp(svc, &stubMasteryService{}, 1, "student")

	resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/assessments/generate", map[string]interface{}{"objective_id": 4, "student_id": 1})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, true, payload["success"])
	require.Equal(t, service.Actor{UserID: 1, Role: "student"}, svc.lastActor)

	data := payload["data"].(map[string]interface{})
	require.Equal(t, float64(4), data["objective_id"])
}

func TestAssessmentHandlerGenerateErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad json", service.ErrContentParse), fiber.StatusUnprocessableEntity},
		{service.ErrGeneratorUnavailable, fiber.StatusServiceUnavailable},
		{service.ErrObjectiveNotFound, fiber.StatusNotFound},
		{service.ErrStudentNotAccessible, fiber.StatusForbidden},
		{fmt.Errorf("database exploded"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		app := newAssessmentApp(&stubAssessmentService{generateErr: tc.err}, &stubMasteryService{}, 1, "student")
		resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/assessments/generate", map[string]interface{}{"objective_id": 4, "student_id": 1})
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		require.Equal(t, false, payload["success"])
	}
}

func TestAssessmentHandlerReportsValidationFields(t *testing.T) {
	validationErr := service.NewRequestValidator().Struct(dto.GenerateAssessmentRequest{ObjectiveID: 4})
	require.Error(t, validationErr)

	app := newAssessmentApp(&stubAssessmentService{generateErr: validationErr}, &stubMasteryService{}, 1, "student")
	resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/assessments/generate", map[string]interface{}{"objective_id": 4})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "validation failed", payload["message"])

	fields := payload["errors"].([]interface{})
	require.Len(t, fields, 1)
	require.Equal(t, map[string]interface{}{"field": "student_id", "rule": "required"}, fields[0])
}

func TestAssessmentHandlerGenerateIsRateLimited(t *testing.T) {
	app := newAssessmentApp(&stubAssessmentService{}, &stubMasteryService{}, 1, "student")

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/assessments/generate", map[string]interface{}{"objective_id": 4, "student_id": 1})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/generate", bytes.NewReader([]byte(`{"objective_id":4,"student_id":1}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

const submissionSchema = `{
  "type": "object",
  "required": ["success", "message", "data"],
  "properties": {
    "success": {"const": true},
    "data": {
      "type": "object",
      "required": ["is_correct", "hints_used", "hint", "feedback", "show_answer", "correct_answer"],
      "properties": {
        "is_correct": {"type": "boolean"},
        "hints_used": {"type": "integer", "minimum": 1},
        "hint": {"type": ["string", "null"]},
        "feedback": {"type": ["string", "null"]},
        "show_answer": {"type": "boolean"},
        "correct_answer": {"type": ["string", "null"]}
      },
      "additionalProperties": false
    }
  }
}`

func TestAssessmentHandlerSubmitContract(t *testing.T) {
	hint := "Think of 10 x 5"
	svc := &stubAssessmentService{submission: dto.SubmissionResult{IsCorrect: false, HintsUsed: 1, Hint: &hint}}
	app := newAssessmentApp(svc, &stubMasteryService{}, 1, "student")

	resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/assessments/3/submit", map[string]interface{}{"question_id": 9, "answer": "44"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(9), svc.lastSubmit.QuestionID)
	require.Equal(t, "44", svc.lastSubmit.Answer)

	schema := jsonschema.MustCompileString("schema://submission.json", submissionSchema)
	require.NoError(t, schema.Validate(payload))

	data := payload["data"].(map[string]interface{})
	require.Equal(t, hint, data["hint"])
	require.Nil(t, data["correct_answer"])
}

func TestAssessmentHandlerSubmitErrors(t *testing.T) {
	app := newAssessmentApp(&stubAssessmentService{submitErr: service.ErrQuestionNotFound}, &stubMasteryService{}, 1, "student")
	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/assessments/3/submit", map[string]interface{}{"question_id": 9, "answer": "44"})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/assessments/abc/submit", map[string]interface{}{"question_id": 9, "answer": "44"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAssessmentHandlerCompleteAndGet(t *testing.T) {
	level := "mastered"
	svc := &stubAssessmentService{completion: dto.CompletionResult{Score: 1, PassedWithoutHints: true, MasteryUpdated: true, NewLevel: &level}}
	app := newAssessmentApp(svc, &stubMasteryService{}, 1, "student")

	resp, payload := doJSON(t, app, http.MethodPost, "/api/v1/assessments/3/complete", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := payload["data"].(map[string]interface{})
	require.Equal(t, float64(3), data["assessment_id"])
	require.Equal(t, "mastered", data["new_mastery_level"])
	require.Equal(t, true, data["passed_without_hints"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/assessments/3", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, payload = doJSON(t, app, http.MethodGet, "/api/v1/assessments/4", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "assessment not found", payload["message"])
}

func TestAssessmentHandlerReviewRequiresGuardianRole(t *testing.T) {
	studentApp := newAssessmentApp(&stubAssessmentService{}, &stubMasteryService{}, 1, "student")
	resp, _ := doJSON(t, studentApp, http.MethodGet, "/api/v1/assessments/3/review", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	parentApp := newAssessmentApp(&stubAssessmentService{}, &stubMasteryService{}, 20, "parent")
	resp, _ = doJSON(t, parentApp, http.MethodGet, "/api/v1/assessments/3/review", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	pendingApp := newAssessmentApp(&stubAssessmentService{reviewErr: service.ErrAssessmentNotCompleted}, &stubMasteryService{}, 20, "teacher")
	resp, _ = doJSON(t, pendingApp, http.MethodGet, "/api/v1/assessments/3/review", nil)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestAssessmentHandlerMasteryStatus(t *testing.T) {
	mastery := &stubMasteryService{status: dto.MasteryStatusResponse{CurrentLevel: "practicing", CleanPasses: 1, PassesNeeded: 2, CountsTowardMastery: true}}
	app := newAssessmentApp(&stubAssessmentService{}, mastery, 1, "student")

	resp, payload := doJSON(t, app, http.MethodGet, "/api/v1/assessments/mastery/1/7", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := payload["data"].(map[string]interface{})
	require.Equal(t, float64(7), data["objective_id"])
	require.Equal(t, float64(2), data["passes_needed"])

	denied := newAssessmentApp(&stubAssessmentService{}, &stubMasteryService{err: service.ErrStudentNotAccessible}, 2, "student")
	resp, _ = doJSON(t, denied, http.MethodGet, "/api/v1/assessments/mastery/1/7", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAssessmentHandlerListForStudent(t *testing.T) {
	app := newAssessmentApp(&stubAssessmentService{}, &stubMasteryService{}, 1, "student")

	resp, payload := doJSON(t, app, http.MethodGet, "/api/v1/assessments/student/1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, payload["data"], 1)
}
