package services

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/metrics"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

type WorkoutService struct {
	db          Database
	userRepo    *repository.UserRepository
	workoutRepo *repository.WorkoutRepository
	metrics     *metrics.Manager
	clock       Clock
}

func NewWorkoutService(db Database, metricsManager *metrics.Manager, clock Clock) *WorkoutService {
	return &WorkoutService{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		workoutRepo: repository.NewWorkoutRepository(db),
		metrics:     metricsManager,
		clock:       clock,
	}
}

type CompleteExerciseInput struct {
	ExerciseID int64
	Duration   int
}

func (s *WorkoutService) Start(ctx context.Context, requester access.Requester) (*models.WorkoutSession, error) {
	return s.workoutRepo.Create(ctx, requester.ID, s.clock.now())
}

func (s *WorkoutService) List(ctx context.Context, requester access.Requester) ([]models.WorkoutSession, error) {
	sessions, err := s.workoutRepo.ListByUser(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	return sessions, s.attachExercises(ctx, sessions)
}

func (s *WorkoutService) Get(ctx context.Context, requester access.Requester, id int64) (*models.WorkoutSession, error) {
	session, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, session.UserID, access.Read); err != nil {
		return nil, err
	}

	sessions := []models.WorkoutSession{*session}
	if err := s.attachExercises(ctx, sessions); err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

func (s *WorkoutService) Delete(ctx context.Context, requester access.Requester, id int64) error {
	session, err := s.workoutRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwned(ctx, s.userRepo, requester, session.UserID, access.Write); err != nil {
		return err
	}
	return s.workoutRepo.Delete(ctx, id)
}

// CompleteExercise appends an exercise to an open session and adds its
// calories to the running total.
func (s *WorkoutService) CompleteExercise(
	ctx context.Context,
	requester access.Requester,
	sessionID int64,
	input CompleteExerciseInput,
) (*models.WorkoutExercise, error) {
	verr := newValidationError()
	if input.ExerciseID <= 0 {
		verr.add("exercise_id", "This field is required.")
	}
	if input.Duration < 1 {
		verr.add("duration", "Ensure this value is greater than or equal to 1.")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	var item *models.WorkoutExercise
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		txWorkoutRepo := repository.NewWorkoutRepository(tx)
		txExerciseRepo := repository.NewExerciseRepository(tx)

		session, err := txWorkoutRepo.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.UserID != requester.ID {
			return ErrForbidden
		}
		if session.IsCompleted {
			return ErrInvalidStateTransition
		}

		exercise, err := txExerciseRepo.GetByID(ctx, input.ExerciseID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		if exercise == nil || !exerciseVisibleTo(exercise, requester) {
			return &ValidationError{Fields: map[string]string{"exercise_id": "Exercise does not exist."}}
		}

		calories := workoutCalories(input.Duration, exercise.Duration, exercise.CaloriesBurned)
		item, err = txWorkoutRepo.AddExercise(ctx, repository.CreateWorkoutExerciseInput{
			WorkoutSessionID: sessionID,
			ExerciseID:       exercise.ID,
			Duration:         input.Duration,
			CaloriesBurned:   calories,
		})
		if err != nil {
			return err
		}

		if _, err := txWorkoutRepo.AddCalories(ctx, sessionID, calories); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidStateTransition
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// CompleteWorkout is terminal; completing twice is a state transition error.
func (s *WorkoutService) CompleteWorkout(
	ctx context.Context,
	requester access.Requester,
	sessionID int64,
) (*models.WorkoutSession, error) {
	session, err := s.workoutRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != requester.ID {
		return nil, ErrForbidden
	}
	if session.IsCompleted {
		return nil, ErrInvalidStateTransition
	}

	completed, err := s.workoutRepo.Complete(ctx, sessionID, s.clock.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.metrics.IncWorkoutCompleted()
	log.WithFields(log.Fields{
		"workout_id":     completed.ID,
		"total_calories": completed.TotalCalories,
	}).Debug("workout completed")

	sessions := []models.WorkoutSession{*completed}
	if err := s.attachExercises(ctx, sessions); err != nil {
		return nil, err
	}
	return &sessions[0], nil
}

// History lists completed sessions newest first, page is 1-based.
func (s *WorkoutService) History(
	ctx context.Context,
	requester access.Requester,
	target *int64,
	page int,
	limit int,
) ([]models.WorkoutSession, int, error) {
	if page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	userID, err := resolveClient(ctx, s.userRepo, requester, target)
	if err != nil {
		return nil, 0, err
	}

	sessions, total, err := s.workoutRepo.ListCompleted(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, s.attachExercises(ctx, sessions)
}

func (s *WorkoutService) attachExercises(ctx context.Context, sessions []models.WorkoutSession) error {
	if len(sessions) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}

	exercises, err := s.workoutRepo.ListExercises(ctx, ids)
	if err != nil {
		return err
	}
	for i := range sessions {
		if items, ok := exercises[sessions[i].ID]; ok {
			sessions[i].Exercises = items
		}
	}
	return nil
}

// workoutCalories prorates an exercise's calories by the seconds performed
// against its nominal duration in minutes.
func workoutCalories(durationSeconds, exerciseMinutes, exerciseCalories int) int {
	if exerciseMinutes <= 0 {
		return exerciseCalories
	}
	ratio := float64(durationSeconds) / float64(exerciseMinutes*60)
	return int(math.Round(ratio * float64(exerciseCalories)))
}
