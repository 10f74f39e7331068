package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-mastery-api/internal/dto"
	"github.com/noah-isme/gema-mastery-api/internal/grading"
	"github.com/noah-isme/gema-mastery-api/internal/models"
	"github.com/noah-isme/gema-mastery-api/internal/observability"
	"github.com/noah-isme/gema-mastery-api/internal/repository"
	"github.com/noah-isme/gema-mastery-api/pkg/ai"
)

const (
	assessmentQuestionCount = 4
	cleanPassScore          = 0.80
)

var (
	// ErrAssessmentNotFound indicates the assessment is missing or not accessible to the caller.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrQuestionNotFound indicates the question does not belong to the assessment.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrObjectiveNotFound indicates the learning objective does not exist.
	ErrObjectiveNotFound = errors.New("objective not found")
	// ErrContentParse indicates the content generator returned malformed questions.
	ErrContentParse = errors.New("generated content could not be parsed")
	// ErrGeneratorUnavailable indicates no content generator could serve the request.
	ErrGeneratorUnavailable = errors.New("content generator unavailable")
	// ErrAssessmentNotCompleted indicates the assessment cannot be reviewed yet.
	ErrAssessmentNotCompleted = errors.New("assessment not completed")
	// ErrReviewForbidden indicates the caller may not see canonical answers.
	ErrReviewForbidden = errors.New("review not permitted")
)

// AssessmentService runs the lifecycle of assessments: generation, submissions and completion.
type AssessmentService interface {
	Generate(ctx context.Context, actor Actor, req dto.GenerateAssessmentRequest) (dto.AssessmentResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.AssessmentResponse, error)
	Review(ctx context.Context, actor Actor, id uint) (dto.AssessmentReviewResponse, error)
	Submit(ctx context.Context, actor Actor, id uint, req dto.SubmitAnswerRequest) (dto.SubmissionResult, error)
	Complete(ctx context.Context, actor Actor, id uint) (dto.CompletionResult, error)
	ListForStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.AssessmentSummaryResponse, error)
}

// AssessmentDependencies groups the collaborators of the assessment service.
type AssessmentDependencies struct {
	Assessments repository.AssessmentRepository
	Objectives  repository.ObjectiveRepository
	UnitOfWork  repository.UnitOfWork
	Mastery     MasteryService
	Generator   ai.ContentGenerator
	Grader      *grading.Grader
	Events      MasteryEventPublisher
	Validator   *validator.Validate
	Logger      zerolog.Logger
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	objectives  repository.ObjectiveRepository
	uow         repository.UnitOfWork
	mastery     MasteryService
	generator   ai.ContentGenerator
	grader      *grading.Grader
	events      MasteryEventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewRequestValidator returns a validator that reports fields by their JSON names.
func NewRequestValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// NewAssessmentService constructs the assessment runner.
func NewAssessmentService(deps AssessmentDependencies) AssessmentService {
	validate := deps.Validator
	if validate == nil {
		validate = NewRequestValidator()
	}
	grader := deps.Grader
	if grader == nil {
		grader = grading.NewGrader(nil, deps.Logger)
	}

	return &assessmentService{
		assessments: deps.Assessments,
		objectives:  deps.Objectives,
		uow:         deps.UnitOfWork,
		mastery:     deps.Mastery,
		generator:   deps.Generator,
		grader:      grader,
		events:      deps.Events,
		validator:   validate,
		logger:      deps.Logger.With().Str("component", "assessment_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-mastery-api/internal/service/assessment"),
		now:         time.Now,
	}
}

// QuestionMixFor returns the question-type mix used for a curriculum subject.
func QuestionMixFor(subject string) []ai.QuestionMix {
	if models.IsQuantitativeSubject(subject) {
		return []ai.QuestionMix{
			{Type: string(models.QuestionTypeMultipleChoice), Count: 2},
			{Type: string(models.QuestionTypeNumeric), Count: 1},
			{Type: string(models.QuestionTypeEquation), Count: 1},
		}
	}
	return []ai.QuestionMix{
		{Type: string(models.QuestionTypeMultipleChoice), Count: 2},
		{Type: string(models.QuestionTypeShortAnswer), Count: 2},
	}
}

func (s *assessmentService) Generate(ctx context.Context, actor Actor, req dto.GenerateAssessmentRequest) (dto.AssessmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssessmentResponse{}, err
	}
	if !actor.CanAccessStudent(req.StudentID) {
		return dto.AssessmentResponse{}, ErrStudentNotAccessible
	}

	spanCtx, span := s.tracer.Start(ctx, "assessments.generate", trace.WithAttributes(
		attribute.Int64("assessment.objective_id", int64(req.ObjectiveID)),
		attribute.Int64("assessment.student_id", int64(req.StudentID)),
	))
	defer span.End()

	objective, err := s.objectives.GetWithCurriculum(spanCtx, req.ObjectiveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrObjectiveNotFound
		}
		span.RecordError(err)
		return dto.AssessmentResponse{}, err
	}

	if s.generator == nil {
		return dto.AssessmentResponse{}, ErrGeneratorUnavailable
	}

	curriculum := objective.Unit.Curriculum
	generated, err := s.generator.GenerateQuestions(spanCtx, ai.QuestionRequest{
		ObjectiveTitle:       objective.Title,
		ObjectiveDescription: objective.Description,
		Subject:              curriculum.Subject,
		GradeLevel:           curriculum.GradeLevel,
		StandardCodes:        objective.StandardCodes,
		Mix:                  QuestionMixFor(curriculum.Subject),
		Count:                assessmentQuestionCount,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ai.ErrMalformedContent) {
			s.logger.Warn().Err(err).Uint("objective_id", objective.ID).Msg("generated questions were malformed")
			return dto.AssessmentResponse{}, fmt.Errorf("%w: %v", ErrContentParse, err)
		}
		s.logger.Error().Err(err).Uint("objective_id", objective.ID).Msg("content generator failed")
		return dto.AssessmentResponse{}, fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}

	questions, err := s.buildQuestions(generated)
	if err != nil {
		span.RecordError(err)
		return dto.AssessmentResponse{}, err
	}

	assessment := models.Assessment{
		ObjectiveID: objective.ID,
		StudentID:   req.StudentID,
		Status:      models.AssessmentStatusNotStarted,
		Questions:   questions,
	}
	if err := s.assessments.Create(spanCtx, &assessment); err != nil {
		span.RecordError(err)
		return dto.AssessmentResponse{}, err
	}

	s.logger.Info().
		Uint("assessment_id", assessment.ID).
		Uint("objective_id", objective.ID).
		Int("questions", len(questions)).
		Msg("assessment generated")

	return dto.NewAssessmentResponse(assessment), nil
}

// buildQuestions keeps the generator's order and assigns 1-based positions.
func (s *assessmentService) buildQuestions(generated []ai.GeneratedQuestion) ([]models.Question, error) {
	if len(generated) == 0 {
		return nil, fmt.Errorf("%w: no questions returned", ErrContentParse)
	}

	questions := make([]models.Question, 0, len(generated))
	for i, item := range generated {
		questionType := models.QuestionType(item.Type)
		if _, err := grading.KindOf(questionType); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContentParse, err)
		}

		text := grading.PlainText(item.Text)
		answer := grading.PlainText(item.CorrectAnswer)
		if text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrContentParse, i+1)
		}
		if err := grading.ValidateCanonicalAnswer(questionType, answer); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrContentParse, i+1, err)
		}

		question := models.Question{
			Type:          questionType,
			Text:          text,
			CorrectAnswer: answer,
			Hint1:         grading.PlainText(item.Hint1),
			Hint2:         grading.PlainText(item.Hint2),
			Order:         i + 1,
		}
		if questionType == models.QuestionTypeMultipleChoice {
			options := make([]string, 0, len(item.Options))
			for _, option := range item.Options {
				options = append(options, grading.PlainText(option))
			}
			question.Options = options
		}
		questions = append(questions, question)
	}
	return questions, nil
}

func (s *assessmentService) Get(ctx context.Context, actor Actor, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.loadAccessible(ctx, actor, id, true)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}
	return dto.NewAssessmentResponse(*assessment), nil
}

func (s *assessmentService) Review(ctx context.Context, actor Actor, id uint) (dto.AssessmentReviewResponse, error) {
	if !actor.IsReviewer() {
		return dto.AssessmentReviewResponse{}, ErrReviewForbidden
	}
	assessment, err := s.loadAccessible(ctx, actor, id, true)
	if err != nil {
		return dto.AssessmentReviewResponse{}, err
	}
	if !assessment.IsCompleted() {
		return dto.AssessmentReviewResponse{}, ErrAssessmentNotCompleted
	}
	return dto.NewAssessmentReviewResponse(*assessment), nil
}

func (s *assessmentService) ListForStudent(ctx context.Context, actor Actor, studentID uint) ([]dto.AssessmentSummaryResponse, error) {
	if !actor.CanAccessStudent(studentID) {
		return nil, ErrStudentNotAccessible
	}

	assessments, err := s.assessments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.AssessmentSummaryResponse, 0, len(assessments))
	for _, assessment := range assessments {
		items = append(items, dto.NewAssessmentSummaryResponse(assessment))
	}
	return items, nil
}

// Submit grades one answer. Grading may call the judge, so no transaction is held across it.
func (s *assessmentService) Submit(ctx context.Context, actor Actor, id uint, req dto.SubmitAnswerRequest) (dto.SubmissionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmissionResult{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "assessments.submit", trace.WithAttributes(
		attribute.Int64("assessment.id", int64(id)),
		attribute.Int64("assessment.question_id", int64(req.QuestionID)),
	))
	defer span.End()

	assessment, err := s.loadAccessible(spanCtx, actor, id, false)
	if err != nil {
		return dto.SubmissionResult{}, err
	}

	question, err := s.assessments.GetQuestion(spanCtx, assessment.ID, req.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResult{}, ErrQuestionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResult{}, err
	}

	prior, err := s.assessments.CountResponses(spanCtx, question.ID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResult{}, err
	}
	priorAttempts := int(prior)

	verdict, err := s.grader.Grade(spanCtx, *question, req.Answer)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResult{}, err
	}

	response := models.Response{
		QuestionID:    question.ID,
		StudentAnswer: strings.TrimSpace(req.Answer),
		IsCorrect:     verdict.Correct,
		HintsUsed:     priorAttempts,
		AIFeedback:    verdict.Feedback,
	}
	if err := s.assessments.CreateResponse(spanCtx, &response); err != nil {
		span.RecordError(err)
		return dto.SubmissionResult{}, err
	}

	if assessment.Status == models.AssessmentStatusNotStarted {
		if err := s.assessments.MarkInProgress(spanCtx, assessment.ID); err != nil {
			span.RecordError(err)
			return dto.SubmissionResult{}, err
		}
	}

	disclosure := grading.NextDisclosure(*question, priorAttempts, verdict.Correct)
	result := dto.SubmissionResult{
		IsCorrect:  verdict.Correct,
		HintsUsed:  priorAttempts + 1,
		ShowAnswer: disclosure.RevealAnswer,
	}
	if disclosure.Hint != "" {
		hint := disclosure.Hint
		result.Hint = &hint
	}
	if verdict.Feedback != "" {
		feedback := verdict.Feedback
		result.Feedback = &feedback
	}
	if disclosure.RevealAnswer {
		answer := question.CorrectAnswer
		result.CorrectAnswer = &answer
	}

	span.SetAttributes(attribute.Bool("assessment.correct", verdict.Correct))
	return result, nil
}

// Complete aggregates the latest response of every question, records the attempt and evaluates
// mastery in one transaction. Completing an already completed assessment is a no-op.
func (s *assessmentService) Complete(ctx context.Context, actor Actor, id uint) (dto.CompletionResult, error) {
	spanCtx, span := s.tracer.Start(ctx, "assessments.complete", trace.WithAttributes(
		attribute.Int64("assessment.id", int64(id)),
	))
	defer span.End()

	assessment, err := s.loadAccessible(spanCtx, actor, id, false)
	if err != nil {
		return dto.CompletionResult{}, err
	}
	if assessment.IsCompleted() {
		return storedCompletion(*assessment), nil
	}

	today := s.mastery.Today()

	var (
		outcome            MasteryOutcome
		score              float64
		passedWithoutHints bool
	)
	alreadyCompleted := false
	err = s.uow.Atomic(spanCtx, func(repos repository.Repositories) error {
		// Score from the transaction's view so answers submitted after the first read count.
		current, err := repos.Assessments.GetByID(spanCtx, assessment.ID)
		if err != nil {
			return err
		}
		score, passedWithoutHints = ScoreAssessment(current.Questions)

		updated, err := repos.Assessments.MarkCompleted(spanCtx, assessment.ID, score, passedWithoutHints, today)
		if err != nil {
			return err
		}
		if !updated {
			alreadyCompleted = true
			return nil
		}

		attempt := models.MasteryAttempt{
			StudentID:    assessment.StudentID,
			ObjectiveID:  assessment.ObjectiveID,
			AssessmentID: assessment.ID,
			PassedClean:  passedWithoutHints,
			AttemptDate:  today,
		}
		if err := repos.Mastery.CreateAttempt(spanCtx, &attempt); err != nil {
			return err
		}

		outcome, err = s.mastery.Evaluate(spanCtx, repos.Mastery, MasteryInput{
			StudentID:    assessment.StudentID,
			ObjectiveID:  assessment.ObjectiveID,
			AssessmentID: assessment.ID,
			CleanPass:    passedWithoutHints,
			Today:        today,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to complete assessment")
		return dto.CompletionResult{}, err
	}

	if alreadyCompleted {
		reloaded, err := s.assessments.Find(spanCtx, assessment.ID)
		if err != nil {
			return dto.CompletionResult{}, err
		}
		return storedCompletion(*reloaded), nil
	}

	s.mastery.InvalidateStatus(spanCtx, assessment.StudentID, assessment.ObjectiveID)
	observability.AssessmentsCompleted().WithLabelValues(fmt.Sprintf("%t", passedWithoutHints)).Inc()

	result := dto.CompletionResult{
		AssessmentID:       assessment.ID,
		Score:              score,
		PassedWithoutHints: passedWithoutHints,
		MasteryUpdated:     outcome.MasteryUpdated,
	}
	if outcome.NewLevel != nil {
		level := string(*outcome.NewLevel)
		result.NewLevel = &level
	}

	if s.events != nil {
		s.events.Publish(spanCtx, MasteryEvent{
			AssessmentID:       assessment.ID,
			StudentID:          assessment.StudentID,
			ObjectiveID:        assessment.ObjectiveID,
			Score:              score,
			PassedWithoutHints: passedWithoutHints,
			MasteryUpdated:     outcome.MasteryUpdated,
			NewLevel:           result.NewLevel,
			OccurredAt:         s.now().UTC(),
		})
	}

	s.logger.Info().
		Uint("assessment_id", assessment.ID).
		Float64("score", score).
		Bool("passed_without_hints", passedWithoutHints).
		Bool("mastery_updated", outcome.MasteryUpdated).
		Msg("assessment completed")

	return result, nil
}

// ScoreAssessment computes the fraction of questions whose latest response is correct and whether
// the assessment is a clean pass. Unanswered questions count as incorrect without hints.
func ScoreAssessment(questions []models.Question) (float64, bool) {
	if len(questions) == 0 {
		return 0, false
	}

	correct := 0
	hintsUsed := false
	for _, question := range questions {
		latest, ok := question.LatestResponse()
		if !ok {
			continue
		}
		if latest.IsCorrect {
			correct++
		}
		if latest.HintsUsed > 0 {
			hintsUsed = true
		}
	}

	score := float64(correct) / float64(len(questions))
	return score, score >= cleanPassScore && !hintsUsed
}

func storedCompletion(assessment models.Assessment) dto.CompletionResult {
	result := dto.CompletionResult{
		AssessmentID:       assessment.ID,
		PassedWithoutHints: assessment.PassedWithoutHints,
		AlreadyCompleted:   true,
	}
	if assessment.Score != nil {
		result.Score = *assessment.Score
	}
	return result
}

func (s *assessmentService) loadAccessible(ctx context.Context, actor Actor, id uint, withQuestions bool) (*models.Assessment, error) {
	var (
		assessment *models.Assessment
		err        error
	)
	if withQuestions {
		assessment, err = s.assessments.GetByID(ctx, id)
	} else {
		assessment, err = s.assessments.Find(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}
	if !actor.CanAccessStudent(assessment.StudentID) {
		return nil, ErrAssessmentNotFound
	}
	return assessment, nil
}
