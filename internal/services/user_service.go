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

type UserService struct {
	userRepo     *repository.UserRepository
	healthRepo   *repository.HealthRepository
	sessionRepo  *repository.TrainingSessionRepository
	reminderRepo *repository.ReminderRepository
	messageRepo  *repository.MessageRepository
	clock        Clock
}

func NewUserService(db Database, clock Clock) *UserService {
	return &UserService{
		userRepo:     repository.NewUserRepository(db),
		healthRepo:   repository.NewHealthRepository(db),
		sessionRepo:  repository.NewTrainingSessionRepository(db),
		reminderRepo: repository.NewReminderRepository(db),
		messageRepo:  repository.NewMessageRepository(db),
		clock:        clock,
	}
}

type UpdateUserInput struct {
	Username   *string
	Height     *float64
	Weight     *float64
	Age        *int
	HealthGoal *string
}

func (s *UserService) GetProfile(ctx context.Context, requester access.Requester) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: user}

	metrics, err := s.healthRepo.GetByDate(ctx, user.ID, s.clock.today())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	profile.HealthMetrics = metrics

	weekly, err := s.sessionRepo.SummarySince(ctx, user.ID, periodStart(s.clock.now(), 7))
	if err != nil {
		return nil, err
	}
	profile.Statistics.WeeklySessions = weekly.TotalSessions

	if profile.Statistics.TotalReminders, err = s.reminderRepo.CountByUser(ctx, user.ID); err != nil {
		return nil, err
	}
	if profile.Statistics.UnreadMessages, err = s.messageRepo.CountUnread(ctx, user.ID); err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *UserService) UpdateProfile(
	ctx context.Context,
	requester access.Requester,
	input UpdateUserInput,
) (*models.User, error) {
	return s.UpdateUser(ctx, requester, requester.ID, input)
}

func (s *UserService) ListUsers(ctx context.Context, requester access.Requester) ([]models.User, error) {
	if requester.IsExpert() {
		return s.userRepo.ListClients(ctx, requester.ID)
	}

	user, err := s.userRepo.GetByID(ctx, requester.ID)
	if err != nil {
		return nil, err
	}
	return []models.User{*user}, nil
}

func (s *UserService) GetUser(ctx context.Context, requester access.Requester, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(requester, selfResource(user), access.Read); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateUser(
	ctx context.Context,
	requester access.Requester,
	userID int64,
	input UpdateUserInput,
) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(requester, selfResource(user), access.Write); err != nil {
		return nil, err
	}

	verr := newValidationError()
	if input.Username != nil {
		trimmed := strings.TrimSpace(*input.Username)
		if trimmed == "" {
			verr.add("username", "This field may not be blank.")
		}
		input.Username = &trimmed
	}
	if input.Height != nil && *input.Height <= 0 {
		verr.add("height", "Height must be positive.")
	}
	if input.Weight != nil && *input.Weight <= 0 {
		verr.add("weight", "Weight must be positive.")
	}
	if input.Age != nil && *input.Age <= 0 {
		verr.add("age", "Age must be positive.")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.Update(ctx, userID, repository.UpdateUserInput{
		Username:   input.Username,
		Height:     input.Height,
		Weight:     input.Weight,
		Age:        input.Age,
		HealthGoal: input.HealthGoal,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicateUserError(err)
		}
		return nil, err
	}
	return updated, nil
}

func (s *UserService) DeleteUser(ctx context.Context, requester access.Requester, userID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := access.Check(requester, selfResource(user), access.Write); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, userID)
}

func (s *UserService) ListExperts(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, access.RoleExpert)
}

// LinkExpert lets a regular user pick the expert who may read their data.
func (s *UserService) LinkExpert(ctx context.Context, requester access.Requester, expertID int64) (*models.User, error) {
	if requester.Role != access.RoleUser {
		return nil, ErrForbidden
	}
	if expertID <= 0 || expertID == requester.ID {
		return nil, ErrInvalidInput
	}

	expert, err := s.userRepo.GetByID(ctx, expertID)
	if err != nil {
		return nil, err
	}
	if expert.Role != access.RoleExpert {
		return nil, ErrInvalidInput
	}

	return s.userRepo.SetExpert(ctx, requester.ID, &expert.ID)
}

func (s *UserService) UnlinkExpert(ctx context.Context, requester access.Requester) (*models.User, error) {
	if requester.Role != access.RoleUser {
		return nil, ErrForbidden
	}
	return s.userRepo.SetExpert(ctx, requester.ID, nil)
}

func (s *UserService) ListClients(ctx context.Context, requester access.Requester) ([]models.User, error) {
	if err := access.RequireExpert(requester); err != nil {
		return nil, err
	}
	return s.userRepo.ListClients(ctx, requester.ID)
}

func selfResource(user *models.User) access.SelfResource {
	return access.SelfResource{UserID: user.ID, ExpertID: user.ExpertID}
}
