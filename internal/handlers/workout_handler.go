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

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
)

type workoutApplicationService interface {
	Start(ctx context.Context, requester access.Requester) (*models.WorkoutSession, error)
	List(ctx context.Context, requester access.Requester) ([]models.WorkoutSession, error)
	Get(ctx context.Context, requester access.Requester, id int64) (*models.WorkoutSession, error)
	Delete(ctx context.Context, requester access.Requester, id int64) error
	CompleteExercise(ctx context.Context, requester access.Requester, sessionID int64, input services.CompleteExerciseInput) (*models.WorkoutExercise, error)
	CompleteWorkout(ctx context.Context, requester access.Requester, sessionID int64) (*models.WorkoutSession, error)
	History(ctx context.Context, requester access.Requester, target *int64, page int, limit int) ([]models.WorkoutSession, int, error)
}

type WorkoutHandler struct {
	service workoutApplicationService
}

func NewWorkoutHandler(service workoutApplicationService) *WorkoutHandler {
	return &WorkoutHandler{service: service}
}

type completeExerciseRequest struct {
	ExerciseID int64 `json:"exercise_id"`
	Duration   int   `json:"duration"`
}

func (h *WorkoutHandler) Start(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	session, err := h.service.Start(c.UserContext(), requester)
	if err != nil {
		return mapWorkoutError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *WorkoutHandler) List(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	sessions, err := h.service.List(c.UserContext(), requester)
	if err != nil {
		return mapWorkoutError(c, err)
	}
	return c.JSON(sessions)
}

func (h *WorkoutHandler) Get(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "workout session")
	}

	session, err := h.service.Get(c.UserContext(), requester, id)
	if err != nil {
		return mapWorkoutError(c, err)
	}
	return c.JSON(session)
}

func (h *WorkoutHandler) Delete(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "workout session")
	}

	if err := h.service.Delete(c.UserContext(), requester, id); err != nil {
		return mapWorkoutError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *WorkoutHandler) CompleteExercise(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "workout session")
	}

	var req completeExerciseRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	item, err := h.service.CompleteExercise(c.UserContext(), requester, id, services.CompleteExerciseInput{
		ExerciseID: req.ExerciseID,
		Duration:   req.Duration,
	})
	if err != nil {
		return mapWorkoutError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *WorkoutHandler) CompleteWorkout(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "workout session")
	}

	session, err := h.service.CompleteWorkout(c.UserContext(), requester, id)
	if err != nil {
		return mapWorkoutError(c, err)
	}
	return c.JSON(session)
}

func (h *WorkoutHandler) History(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	target, ok := parseOptionalIDQuery(c, "user_id")
	if !ok {
		return invalidID(c, "user")
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), defaultPageLimit)
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	sessions, total, err := h.service.History(c.UserContext(), requester, target, page, limit)
	if err != nil {
		return mapWorkoutError(c, err)
	}

	return c.JSON(fiber.Map{
		"results":    sessions,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func buildPaginationMeta(page, limit, total int) models.PaginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

func mapWorkoutError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Workout session is already completed"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Workout session not found"})
	default:
		log.WithError(err).Error("workout request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process workout request"})
	}
}
