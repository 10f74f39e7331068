package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-mastery-api/internal/dto"
	"github.com/noah-isme/gema-mastery-api/internal/models"
	"github.com/noah-isme/gema-mastery-api/internal/observability"
	"github.com/noah-isme/gema-mastery-api/internal/repository"
)

// MasteryPassesNeeded is the number of distinct calendar days with a clean pass required for mastery.
const MasteryPassesNeeded = 2

var (
	// ErrStudentNotAccessible indicates the caller may not read the student's records.
	ErrStudentNotAccessible = errors.New("student not accessible")
)

// MasteryInput describes one just-completed assessment.
type MasteryInput struct {
	StudentID    uint
	ObjectiveID  uint
	AssessmentID uint
	CleanPass    bool
	Today        time.Time
}

// MasteryOutcome reports what mastery evaluation changed.
type MasteryOutcome struct {
	MasteryUpdated bool
	NewLevel       *models.MasteryLevel
}

// MasteryService applies the mastery promotion rule and projects mastery status.
type MasteryService interface {
	Evaluate(ctx context.Context, repo repository.MasteryRepository, input MasteryInput) (MasteryOutcome, error)
	Status(ctx context.Context, actor Actor, studentID, objectiveID uint) (dto.MasteryStatusResponse, error)
	InvalidateStatus(ctx context.Context, studentID, objectiveID uint)
	Today() time.Time
}

type masteryService struct {
	repo     repository.MasteryRepository
	cache    *redis.Client
	cacheTTL time.Duration
	location *time.Location
	logger   zerolog.Logger
	now      func() time.Time
}

// NewMasteryService constructs the mastery tracker. cache may be nil.
func NewMasteryService(repo repository.MasteryRepository, cache *redis.Client, ttl time.Duration, location *time.Location, logger zerolog.Logger) MasteryService {
	if location == nil {
		location = time.UTC
	}
	return &masteryService{
		repo:     repo,
		cache:    cache,
		cacheTTL: ttl,
		location: location,
		logger:   logger.With().Str("component", "mastery_service").Logger(),
		now:      time.Now,
	}
}

// Today returns the current calendar date in the configured timezone.
func (s *masteryService) Today() time.Time {
	return models.CalendarDate(s.now(), s.location)
}

// Evaluate runs against repo so callers can bind it to their transaction. Only a clean pass can
// promote; a failed attempt moves progress to practicing unless it is already mastered.
func (s *masteryService) Evaluate(ctx context.Context, repo repository.MasteryRepository, input MasteryInput) (MasteryOutcome, error) {
	if repo == nil {
		repo = s.repo
	}
	today := input.Today
	if today.IsZero() {
		today = s.Today()
	}

	progress, err := repo.GetProgress(ctx, input.StudentID, input.ObjectiveID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return MasteryOutcome{}, err
		}
	}

	if input.CleanPass {
		attempts, err := repo.ListCleanAttempts(ctx, input.StudentID, input.ObjectiveID)
		if err != nil {
			return MasteryOutcome{}, err
		}
		dates := cleanPassDates(attempts)
		dates[models.DateKey(today)] = struct{}{}

		if len(dates) < MasteryPassesNeeded {
			return MasteryOutcome{}, nil
		}

		if progress == nil {
			progress = &models.Progress{StudentID: input.StudentID, ObjectiveID: input.ObjectiveID}
		}
		previous := progress.MasteryLevel
		progress.MasteryLevel = models.MasteryLevelMastered
		progress.AppendAssessment(input.AssessmentID)
		if err := repo.SaveProgress(ctx, progress); err != nil {
			return MasteryOutcome{}, err
		}

		if previous != models.MasteryLevelMastered {
			observability.MasteryTransitions().WithLabelValues(string(models.MasteryLevelMastered)).Inc()
		}
		level := models.MasteryLevelMastered
		return MasteryOutcome{MasteryUpdated: true, NewLevel: &level}, nil
	}

	if progress != nil && progress.IsMastered() {
		return MasteryOutcome{}, nil
	}
	if progress == nil {
		progress = &models.Progress{StudentID: input.StudentID, ObjectiveID: input.ObjectiveID}
	}

	previous := progress.MasteryLevel
	progress.MasteryLevel = models.MasteryLevelPracticing
	progress.AppendAssessment(input.AssessmentID)
	if err := repo.SaveProgress(ctx, progress); err != nil {
		return MasteryOutcome{}, err
	}

	if previous == models.MasteryLevelPracticing {
		return MasteryOutcome{}, nil
	}
	observability.MasteryTransitions().WithLabelValues(string(models.MasteryLevelPracticing)).Inc()
	level := models.MasteryLevelPracticing
	return MasteryOutcome{NewLevel: &level}, nil
}

func (s *masteryService) Status(ctx context.Context, actor Actor, studentID, objectiveID uint) (dto.MasteryStatusResponse, error) {
	if !actor.CanAccessStudent(studentID) {
		return dto.MasteryStatusResponse{}, ErrStudentNotAccessible
	}

	today := s.Today()
	cacheKey := s.cacheKey(studentID, objectiveID, today)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.MasteryStatusResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatusCacheLookups().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read mastery status cache")
		}
		observability.StatusCacheLookups().WithLabelValues("miss").Inc()
	}

	attempts, err := s.repo.ListAttempts(ctx, studentID, objectiveID)
	if err != nil {
		return dto.MasteryStatusResponse{}, err
	}

	level := models.MasteryLevelNotStarted
	progress, err := s.repo.GetProgress(ctx, studentID, objectiveID)
	switch {
	case err == nil:
		level = progress.MasteryLevel
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.MasteryStatusResponse{}, err
	}

	response := buildMasteryStatus(studentID, objectiveID, level, attempts, today)

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store mastery status cache")
			}
		}
	}

	return response, nil
}

func (s *masteryService) InvalidateStatus(ctx context.Context, studentID, objectiveID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(studentID, objectiveID, s.Today())).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Uint("objective_id", objectiveID).Msg("failed to invalidate mastery status cache")
	}
}

func (s *masteryService) cacheKey(studentID, objectiveID uint, today time.Time) string {
	return fmt.Sprintf("mastery:status:%d:%d:%s", studentID, objectiveID, models.DateKey(today))
}

func buildMasteryStatus(studentID, objectiveID uint, level models.MasteryLevel, attempts []models.MasteryAttempt, today time.Time) dto.MasteryStatusResponse {
	clean := make([]models.MasteryAttempt, 0, len(attempts))
	history := make([]dto.MasteryAttemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		history = append(history, dto.NewMasteryAttemptResponse(attempt))
		if attempt.PassedClean {
			clean = append(clean, attempt)
		}
	}

	dates := cleanPassDates(clean)
	_, passedToday := dates[models.DateKey(today)]

	return dto.MasteryStatusResponse{
		StudentID:           studentID,
		ObjectiveID:         objectiveID,
		CurrentLevel:        string(level),
		CleanPasses:         len(dates),
		PassesNeeded:        MasteryPassesNeeded,
		CountsTowardMastery: !passedToday,
		CanAchieveMastery:   len(dates) >= 1 && !passedToday,
		Attempts:            history,
	}
}

func cleanPassDates(attempts []models.MasteryAttempt) map[string]struct{} {
	dates := make(map[string]struct{}, len(attempts))
	for _, attempt := range attempts {
		if attempt.PassedClean {
			dates[models.DateKey(attempt.AttemptDate)] = struct{}{}
		}
	}
	return dates
}
