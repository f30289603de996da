package services

import (
	"context"
	"strings"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

var (
	reminderTypes = map[string]struct{}{"water": {}, "exercise": {}, "rest": {}}
	weekDays      = map[string]int{"mon": 0, "tue": 1, "wed": 2, "thu": 3, "fri": 4, "sat": 5, "sun": 6}
)

type ReminderService struct {
	userRepo     *repository.UserRepository
	reminderRepo *repository.ReminderRepository
}

func NewReminderService(db Database) *ReminderService {
	return &ReminderService{
		userRepo:     repository.NewUserRepository(db),
		reminderRepo: repository.NewReminderRepository(db),
	}
}

type ReminderInput struct {
	ReminderType *string
	Date         *string
	Time         *string
	Message      *string
	RepeatDays   []string
	Enabled      *bool
}

func (s *ReminderService) List(ctx context.Context, requester access.Requester) ([]models.Reminder, error) {
	return s.reminderRepo.ListByUser(ctx, requester.ID)
}

func (s *ReminderService) Create(ctx context.Context, requester access.Requester, input ReminderInput) (*models.Reminder, error) {
	verr := newValidationError()
	if input.ReminderType == nil {
		verr.add("reminder_type", "This field is required.")
	}
	if input.Time == nil {
		verr.add("time", "This field is required.")
	}
	normalized := normalizeReminderInput(verr, input)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	enabled := true
	if normalized.Enabled != nil {
		enabled = *normalized.Enabled
	}
	message := ""
	if normalized.Message != nil {
		message = *normalized.Message
	}
	repeatDays := normalized.RepeatDays
	if repeatDays == nil {
		repeatDays = []string{}
	}

	return s.reminderRepo.Create(ctx, repository.CreateReminderInput{
		UserID:       requester.ID,
		ReminderType: *normalized.ReminderType,
		Date:         normalized.Date,
		Time:         *normalized.Time,
		Message:      message,
		RepeatDays:   repeatDays,
		Enabled:      enabled,
	})
}

// CreateFlexible is the quick-add form: type, time and message are mandatory.
func (s *ReminderService) CreateFlexible(ctx context.Context, requester access.Requester, input ReminderInput) (*models.Reminder, error) {
	if input.ReminderType == nil || input.Time == nil || input.Message == nil ||
		strings.TrimSpace(*input.ReminderType) == "" || strings.TrimSpace(*input.Time) == "" ||
		strings.TrimSpace(*input.Message) == "" {
		return nil, ErrInvalidInput
	}
	return s.Create(ctx, requester, ReminderInput{
		ReminderType: input.ReminderType,
		Date:         input.Date,
		Time:         input.Time,
		Message:      input.Message,
	})
}

func (s *ReminderService) Get(ctx context.Context, requester access.Requester, id int64) (*models.Reminder, error) {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, reminder.UserID, access.Read); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) Update(
	ctx context.Context,
	requester access.Requester,
	id int64,
	input ReminderInput,
) (*models.Reminder, error) {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, reminder.UserID, access.Write); err != nil {
		return nil, err
	}

	verr := newValidationError()
	normalized := normalizeReminderInput(verr, input)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	return s.reminderRepo.Update(ctx, id, repository.UpdateReminderInput{
		ReminderType: normalized.ReminderType,
		Date:         normalized.Date,
		Time:         normalized.Time,
		Message:      normalized.Message,
		RepeatDays:   normalized.RepeatDays,
		Enabled:      normalized.Enabled,
	})
}

func (s *ReminderService) Delete(ctx context.Context, requester access.Requester, id int64) error {
	reminder, err := s.reminderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwned(ctx, s.userRepo, requester, reminder.UserID, access.Write); err != nil {
		return err
	}
	return s.reminderRepo.Delete(ctx, id)
}

func normalizeReminderInput(verr *ValidationError, input ReminderInput) ReminderInput {
	out := ReminderInput{Enabled: input.Enabled}

	if input.ReminderType != nil {
		kind := strings.ToLower(strings.TrimSpace(*input.ReminderType))
		if _, ok := reminderTypes[kind]; !ok {
			verr.add("reminder_type", "Reminder type must be water, exercise or rest.")
		}
		out.ReminderType = &kind
	}
	if input.Time != nil {
		if clock, ok := normalizeClock(*input.Time); ok {
			out.Time = &clock
		} else {
			verr.add("time", "Time has wrong format. Use hh:mm[:ss].")
		}
	}
	if input.Date != nil && strings.TrimSpace(*input.Date) != "" {
		if date, ok := normalizeDate(*input.Date); ok {
			out.Date = &date
		} else {
			verr.add("date", "Date has wrong format. Use YYYY-MM-DD.")
		}
	}
	if input.Message != nil {
		message := strings.TrimSpace(*input.Message)
		out.Message = &message
	}
	if input.RepeatDays != nil {
		days, ok := normalizeRepeatDays(input.RepeatDays)
		if !ok {
			verr.add("repeat_days", "Repeat days must be among mon, tue, wed, thu, fri, sat, sun.")
		}
		out.RepeatDays = days
	}

	return out
}

// normalizeRepeatDays lowercases, dedupes and orders days from monday.
func normalizeRepeatDays(days []string) ([]string, bool) {
	seen := make([]bool, len(weekDays))
	for _, day := range days {
		index, ok := weekDays[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return nil, false
		}
		seen[index] = true
	}

	ordered := []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	out := make([]string, 0, len(days))
	for i, present := range seen {
		if present {
			out = append(out, ordered[i])
		}
	}
	return out, true
}
