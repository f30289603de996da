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

type JournalService struct {
	userRepo    *repository.UserRepository
	journalRepo *repository.JournalRepository
	workoutRepo *repository.WorkoutRepository
	clock       Clock
}

func NewJournalService(db Database, clock Clock) *JournalService {
	return &JournalService{
		userRepo:    repository.NewUserRepository(db),
		journalRepo: repository.NewJournalRepository(db),
		workoutRepo: repository.NewWorkoutRepository(db),
		clock:       clock,
	}
}

type JournalInput struct {
	Content          string
	WorkoutSessionID *int64
}

func (s *JournalService) List(ctx context.Context, requester access.Requester) ([]models.HealthJournal, error) {
	return s.journalRepo.ListByUser(ctx, requester.ID)
}

func (s *JournalService) ListForUser(ctx context.Context, requester access.Requester, userID int64) ([]models.HealthJournal, error) {
	clientID, err := resolveClient(ctx, s.userRepo, requester, &userID)
	if err != nil {
		return nil, err
	}
	return s.journalRepo.ListByUser(ctx, clientID)
}

func (s *JournalService) Create(ctx context.Context, requester access.Requester, input JournalInput) (*models.HealthJournal, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "This field is required."}}
	}

	if input.WorkoutSessionID != nil {
		workout, err := s.workoutRepo.GetByID(ctx, *input.WorkoutSessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, &ValidationError{Fields: map[string]string{"workout_session_id": "Workout session does not exist."}}
			}
			return nil, err
		}
		if workout.UserID != requester.ID {
			return nil, ErrForbidden
		}
	}

	return s.journalRepo.Create(ctx, requester.ID, input.WorkoutSessionID, s.clock.today(), content)
}

func (s *JournalService) Get(ctx context.Context, requester access.Requester, id int64) (*models.HealthJournal, error) {
	journal, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, journal.UserID, access.Read); err != nil {
		return nil, err
	}
	return journal, nil
}

func (s *JournalService) Update(ctx context.Context, requester access.Requester, id int64, content string) (*models.HealthJournal, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "This field is required."}}
	}

	journal, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, journal.UserID, access.Write); err != nil {
		return nil, err
	}
	return s.journalRepo.UpdateContent(ctx, id, content)
}

func (s *JournalService) Delete(ctx context.Context, requester access.Requester, id int64) error {
	journal, err := s.journalRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwned(ctx, s.userRepo, requester, journal.UserID, access.Write); err != nil {
		return err
	}
	return s.journalRepo.Delete(ctx, id)
}
