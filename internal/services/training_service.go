package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

type TrainingService struct {
	userRepo       *repository.UserRepository
	scheduleRepo   *repository.ScheduleRepository
	sessionRepo    *repository.TrainingSessionRepository
	exerciseRepo   *repository.ExerciseRepository
	storageService StorageService
}

func NewTrainingService(db Database, storageService StorageService) *TrainingService {
	return &TrainingService{
		userRepo:       repository.NewUserRepository(db),
		scheduleRepo:   repository.NewScheduleRepository(db),
		sessionRepo:    repository.NewTrainingSessionRepository(db),
		exerciseRepo:   repository.NewExerciseRepository(db),
		storageService: storageService,
	}
}

type ScheduleInput struct {
	Date *string
	Time *string
}

type CreateTrainingSessionInput struct {
	ScheduleID         int64
	ExerciseID         *int64
	CustomExerciseName *string
	Repetitions        *int
	Duration           *int
	Image              *ImageUpload
}

type UpdateTrainingSessionInput struct {
	ExerciseID         *int64
	CustomExerciseName *string
	Repetitions        *int
	Duration           *int
	Feedback           *string
	Image              *ImageUpload
}

func (s *TrainingService) ListSchedules(
	ctx context.Context,
	requester access.Requester,
	target *int64,
) ([]models.TrainingSchedule, error) {
	userID, err := resolveClient(ctx, s.userRepo, requester, target)
	if err != nil {
		return nil, err
	}
	return s.scheduleRepo.ListByUser(ctx, userID)
}

func (s *TrainingService) CreateSchedule(
	ctx context.Context,
	requester access.Requester,
	input ScheduleInput,
) (*models.TrainingSchedule, error) {
	verr := newValidationError()
	if input.Date == nil {
		verr.add("date", "This field is required.")
	}
	if input.Time == nil {
		verr.add("time", "This field is required.")
	}
	date, clock := normalizeScheduleInput(verr, input)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	return s.scheduleRepo.Create(ctx, requester.ID, *date, *clock)
}

func (s *TrainingService) GetSchedule(ctx context.Context, requester access.Requester, id int64) (*models.TrainingSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, schedule.UserID, access.Read); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *TrainingService) UpdateSchedule(
	ctx context.Context,
	requester access.Requester,
	id int64,
	input ScheduleInput,
) (*models.TrainingSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, schedule.UserID, access.Write); err != nil {
		return nil, err
	}

	verr := newValidationError()
	date, clock := normalizeScheduleInput(verr, input)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	return s.scheduleRepo.Update(ctx, id, date, clock)
}

func (s *TrainingService) DeleteSchedule(ctx context.Context, requester access.Requester, id int64) error {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwned(ctx, s.userRepo, requester, schedule.UserID, access.Write); err != nil {
		return err
	}
	return s.scheduleRepo.Delete(ctx, id)
}

func (s *TrainingService) ListSessions(
	ctx context.Context,
	requester access.Requester,
	target *int64,
	scheduleID *int64,
) ([]models.TrainingSession, error) {
	userID, err := resolveClient(ctx, s.userRepo, requester, target)
	if err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByUser(ctx, userID, scheduleID)
}

// CreateSession attaches a session to one of the requester's schedules.
func (s *TrainingService) CreateSession(
	ctx context.Context,
	requester access.Requester,
	input CreateTrainingSessionInput,
) (*models.TrainingSession, error) {
	verr := newValidationError()
	if input.ScheduleID <= 0 {
		verr.add("schedule", "This field is required.")
	}
	input.CustomExerciseName = trimmedOrNil(input.CustomExerciseName)
	if input.ExerciseID == nil && input.CustomExerciseName == nil {
		verr.add("exercise", "Either exercise or custom_exercise_name is required.")
	}
	validateSessionNumbers(verr, input.Repetitions, input.Duration)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	schedule, err := s.scheduleRepo.GetByID(ctx, input.ScheduleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ValidationError{Fields: map[string]string{"schedule": "Schedule does not exist."}}
		}
		return nil, err
	}
	if schedule.UserID != requester.ID {
		return nil, ErrForbidden
	}
	if err := s.ensureExerciseUsable(ctx, requester, input.ExerciseID); err != nil {
		return nil, err
	}

	imageURL, err := uploadImage(ctx, s.storageService, input.Image, folderTrainingSessions)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.Create(ctx, repository.CreateTrainingSessionInput{
		ScheduleID:         input.ScheduleID,
		ExerciseID:         input.ExerciseID,
		CustomExerciseName: input.CustomExerciseName,
		Repetitions:        input.Repetitions,
		Duration:           input.Duration,
		ImageURL:           imageURL,
	})
	if err != nil {
		return nil, discardImage(ctx, s.storageService, imageURL, err)
	}
	return session, nil
}

func (s *TrainingService) GetSession(ctx context.Context, requester access.Requester, id int64) (*models.TrainingSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, session.OwnerID, access.Read); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *TrainingService) UpdateSession(
	ctx context.Context,
	requester access.Requester,
	id int64,
	input UpdateTrainingSessionInput,
) (*models.TrainingSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, session.OwnerID, access.Write); err != nil {
		return nil, err
	}

	verr := newValidationError()
	validateSessionNumbers(verr, input.Repetitions, input.Duration)
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	if err := s.ensureExerciseUsable(ctx, requester, input.ExerciseID); err != nil {
		return nil, err
	}

	imageURL, err := uploadImage(ctx, s.storageService, input.Image, folderTrainingSessions)
	if err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.Update(ctx, id, repository.UpdateTrainingSessionInput{
		ExerciseID:         input.ExerciseID,
		CustomExerciseName: trimmedOrNil(input.CustomExerciseName),
		Repetitions:        input.Repetitions,
		Duration:           input.Duration,
		Feedback:           input.Feedback,
		ImageURL:           imageURL,
	})
	if err != nil {
		return nil, discardImage(ctx, s.storageService, imageURL, err)
	}

	replaceImage(ctx, s.storageService, session.ImageURL, imageURL)
	return updated, nil
}

func (s *TrainingService) AddFeedback(
	ctx context.Context,
	requester access.Requester,
	id int64,
	feedback string,
) (*models.TrainingSession, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, &ValidationError{Fields: map[string]string{"feedback": "This field is required."}}
	}

	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, session.OwnerID, access.Write); err != nil {
		return nil, err
	}

	return s.sessionRepo.Update(ctx, id, repository.UpdateTrainingSessionInput{Feedback: &feedback})
}

func (s *TrainingService) DeleteSession(ctx context.Context, requester access.Requester, id int64) error {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwned(ctx, s.userRepo, requester, session.OwnerID, access.Write); err != nil {
		return err
	}
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		return err
	}

	removeImage(ctx, s.storageService, session.ImageURL)
	return nil
}

func (s *TrainingService) ensureExerciseUsable(ctx context.Context, requester access.Requester, exerciseID *int64) error {
	if exerciseID == nil {
		return nil
	}

	exercise, err := s.exerciseRepo.GetByID(ctx, *exerciseID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if exercise == nil || !exerciseVisibleTo(exercise, requester) {
		return &ValidationError{Fields: map[string]string{"exercise": "Exercise does not exist."}}
	}
	return nil
}

func normalizeScheduleInput(verr *ValidationError, input ScheduleInput) (*string, *string) {
	var date, clock *string
	if input.Date != nil {
		if normalized, ok := normalizeDate(*input.Date); ok {
			date = &normalized
		} else {
			verr.add("date", "Date has wrong format. Use YYYY-MM-DD.")
		}
	}
	if input.Time != nil {
		if normalized, ok := normalizeClock(*input.Time); ok {
			clock = &normalized
		} else {
			verr.add("time", "Time has wrong format. Use hh:mm[:ss].")
		}
	}
	return date, clock
}

func validateSessionNumbers(verr *ValidationError, repetitions, duration *int) {
	if repetitions != nil && *repetitions < 0 {
		verr.add("repetitions", "Ensure this value is greater than or equal to 0.")
	}
	if duration != nil && *duration < 0 {
		verr.add("duration", "Ensure this value is greater than or equal to 0.")
	}
}
