package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type trainingApplicationService interface {
	ListSchedules(ctx context.Context, requester access.Requester, target *int64) ([]models.TrainingSchedule, error)
	CreateSchedule(ctx context.Context, requester access.Requester, input services.ScheduleInput) (*models.TrainingSchedule, error)
	GetSchedule(ctx context.Context, requester access.Requester, id int64) (*models.TrainingSchedule, error)
	UpdateSchedule(ctx context.Context, requester access.Requester, id int64, input services.ScheduleInput) (*models.TrainingSchedule, error)
	DeleteSchedule(ctx context.Context, requester access.Requester, id int64) error

	ListSessions(ctx context.Context, requester access.Requester, target *int64, scheduleID *int64) ([]models.TrainingSession, error)
	CreateSession(ctx context.Context, requester access.Requester, input services.CreateTrainingSessionInput) (*models.TrainingSession, error)
	GetSession(ctx context.Context, requester access.Requester, id int64) (*models.TrainingSession, error)
	UpdateSession(ctx context.Context, requester access.Requester, id int64, input services.UpdateTrainingSessionInput) (*models.TrainingSession, error)
	AddFeedback(ctx context.Context, requester access.Requester, id int64, feedback string) (*models.TrainingSession, error)
	DeleteSession(ctx context.Context, requester access.Requester, id int64) error
}

type TrainingHandler struct {
	service trainingApplicationService
}

func NewTrainingHandler(service trainingApplicationService) *TrainingHandler {
	return &TrainingHandler{service: service}
}

type scheduleRequest struct {
	Date *string `json:"date"`
	Time *string `json:"time"`
}

type trainingSessionRequest struct {
	ScheduleID         *int64  `json:"schedule_id" form:"schedule_id"`
	ExerciseID         *int64  `json:"exercise_id" form:"exercise_id"`
	CustomExerciseName *string `json:"custom_exercise_name" form:"custom_exercise_name"`
	Repetitions        *int    `json:"repetitions" form:"repetitions"`
	Duration           *int    `json:"duration" form:"duration"`
	Feedback           *string `json:"feedback" form:"feedback"`
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (h *TrainingHandler) ListSchedules(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	target, ok := parseOptionalIDQuery(c, "user_id")
	if !ok {
		return invalidID(c, "user")
	}

	schedules, err := h.service.ListSchedules(c.UserContext(), requester, target)
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.JSON(schedules)
}

func (h *TrainingHandler) CreateSchedule(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	schedule, err := h.service.CreateSchedule(c.UserContext(), requester, services.ScheduleInput{Date: req.Date, Time: req.Time})
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(schedule)
}

func (h *TrainingHandler) GetSchedule(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "schedule")
	}

	schedule, err := h.service.GetSchedule(c.UserContext(), requester, id)
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.JSON(schedule)
}

func (h *TrainingHandler) UpdateSchedule(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "schedule")
	}

	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	schedule, err := h.service.UpdateSchedule(c.UserContext(), requester, id, services.ScheduleInput{Date: req.Date, Time: req.Time})
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.JSON(schedule)
}

func (h *TrainingHandler) DeleteSchedule(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "schedule")
	}

	if err := h.service.DeleteSchedule(c.UserContext(), requester, id); err != nil {
		return mapTrainingError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TrainingHandler) ListSessions(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	target, ok := parseOptionalIDQuery(c, "user_id")
	if !ok {
		return invalidID(c, "user")
	}
	scheduleID, ok := parseOptionalIDQuery(c, "schedule_id")
	if !ok {
		return invalidID(c, "schedule")
	}

	sessions, err := h.service.ListSessions(c.UserContext(), requester, target, scheduleID)
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.JSON(sessions)
}

func (h *TrainingHandler) CreateSession(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req trainingSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	image, msg := optionalImage(c, "image")
	if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	defer closeImage(image)

	input := services.CreateTrainingSessionInput{
		ExerciseID:         req.ExerciseID,
		CustomExerciseName: req.CustomExerciseName,
		Repetitions:        req.Repetitions,
		Duration:           req.Duration,
		Image:              image,
	}
	if req.ScheduleID != nil {
		input.ScheduleID = *req.ScheduleID
	}

	session, err := h.service.CreateSession(c.UserContext(), requester, input)
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *TrainingHandler) GetSession(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "session")
	}

	session, err := h.service.GetSession(c.UserContext(), requester, id)
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.JSON(session)
}

func (h *TrainingHandler) UpdateSession(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "session")
	}

	var req trainingSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	image, msg := optionalImage(c, "image")
	if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	defer closeImage(image)

	session, err := h.service.UpdateSession(c.UserContext(), requester, id, services.UpdateTrainingSessionInput{
		ExerciseID:         req.ExerciseID,
		CustomExerciseName: req.CustomExerciseName,
		Repetitions:        req.Repetitions,
		Duration:           req.Duration,
		Feedback:           req.Feedback,
		Image:              image,
	})
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.JSON(session)
}

func (h *TrainingHandler) AddFeedback(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "session")
	}

	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	session, err := h.service.AddFeedback(c.UserContext(), requester, id, req.Feedback)
	if err != nil {
		return mapTrainingError(c, err)
	}
	return c.JSON(session)
}

func (h *TrainingHandler) DeleteSession(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "session")
	}

	if err := h.service.DeleteSession(c.UserContext(), requester, id); err != nil {
		return mapTrainingError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapTrainingError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Image storage is not configured"})
	default:
		log.WithError(err).Error("training request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process training request"})
	}
}
