package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-mastery-api/internal/dto"
	"github.com/noah-isme/gema-mastery-api/internal/middleware"
	"github.com/noah-isme/gema-mastery-api/internal/service"
	"github.com/noah-isme/gema-mastery-api/internal/utils"
)

// AssessmentHandler exposes assessment generation, answering, completion and mastery status.
type AssessmentHandler struct {
	assessments       service.AssessmentService
	mastery           service.MasteryService
	generatePerMinute int
	logger            zerolog.Logger
}

// NewAssessmentHandler constructs the handler.
func NewAssessmentHandler(assessments service.AssessmentService, mastery service.MasteryService, generatePerMinute int, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments:       assessments,
		mastery:           mastery,
		generatePerMinute: generatePerMinute,
		logger:            logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register attaches assessment routes to the router.
func (h *AssessmentHandler) Register(router fiber.Router) {
	group := router.Group("/assessments")
	group.Post("/generate", middleware.RateLimit("assessment_generate", h.generatePerMinute, time.Minute), h.generate)
	group.Get("/student/:studentId", h.listForStudent)
	group.Get("/mastery/:studentId/:objectiveId", h.masteryStatus)
	group.Get("/:id", h.get)
	group.Get("/:id/review", middleware.RequireReviewer(), h.review)
	group.Post("/:id/submit", h.submit)
	group.Post("/:id/complete", h.complete)
}

func (h *AssessmentHandler) generate(c *fiber.Ctx) error {
	var req dto.GenerateAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.assessments.Generate(c.UserContext(), middleware.ActorFromContext(c), req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assessment generated", response)
}

func (h *AssessmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.assessments.Get(c.UserContext(), middleware.ActorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment retrieved", response)
}

func (h *AssessmentHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	response, err := h.assessments.Review(c.UserContext(), middleware.ActorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessment review retrieved", response)
}

func (h *AssessmentHandler) listForStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	items, err := h.assessments.ListForStudent(c.UserContext(), middleware.ActorFromContext(c), studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assessments retrieved", items)
}

func (h *AssessmentHandler) submit(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.assessments.Submit(c.UserContext(), middleware.ActorFromContext(c), id, req)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "answer graded", result)
}

func (h *AssessmentHandler) complete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.assessments.Complete(c.UserContext(), middleware.ActorFromContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}

	middleware.RequestLogger(h.logger, c).Info().
		Uint("assessment_id", id).
		Bool("mastery_updated", result.MasteryUpdated).
		Msg("assessment completion handled")

	return utils.SendSuccess(c, "assessment completed", result)
}

func (h *AssessmentHandler) masteryStatus(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	objectiveID, err := parseUintParam(c, "objectiveId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.mastery.Status(c.UserContext(), middleware.ActorFromContext(c), studentID, objectiveID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "mastery status retrieved", status)
}

func (h *AssessmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendValidationError(c, validationErrors)
	case errors.Is(err, service.ErrAssessmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assessment not found")
	case errors.Is(err, service.ErrQuestionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "question not found")
	case errors.Is(err, service.ErrObjectiveNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "objective not found")
	case errors.Is(err, service.ErrStudentNotAccessible), errors.Is(err, service.ErrReviewForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrAssessmentNotCompleted):
		return utils.SendError(c, fiber.StatusConflict, "assessment must be completed before review")
	case errors.Is(err, service.ErrContentParse):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "failed to generate questions, please try again")
	case errors.Is(err, service.ErrGeneratorUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "question generation is currently unavailable")
	default:
		middleware.RequestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
