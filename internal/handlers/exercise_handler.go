package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type exerciseApplicationService interface {
	List(ctx context.Context, requester access.Requester, customOnly bool) ([]models.Exercise, error)
	Get(ctx context.Context, requester access.Requester, id int64) (*models.Exercise, error)
	Create(ctx context.Context, requester access.Requester, input services.CreateExerciseInput) (*models.Exercise, error)
	Update(ctx context.Context, requester access.Requester, id int64, input services.UpdateExerciseInput) (*models.Exercise, error)
	Delete(ctx context.Context, requester access.Requester, id int64) error
}

type ExerciseHandler struct {
	service exerciseApplicationService
}

func NewExerciseHandler(service exerciseApplicationService) *ExerciseHandler {
	return &ExerciseHandler{service: service}
}

type exerciseRequest struct {
	Name           *string `json:"name" form:"name"`
	Description    *string `json:"description" form:"description"`
	Duration       *int    `json:"duration" form:"duration"`
	CaloriesBurned *int    `json:"calories_burned" form:"calories_burned"`
	Repetitions    *int    `json:"repetitions" form:"repetitions"`
	IsCustom       *bool   `json:"is_custom" form:"is_custom"`
}

func (h *ExerciseHandler) List(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	customOnly := strings.EqualFold(strings.TrimSpace(c.Query("custom")), "true")
	exercises, err := h.service.List(c.UserContext(), requester, customOnly)
	if err != nil {
		return mapExerciseError(c, err)
	}
	return c.JSON(exercises)
}

func (h *ExerciseHandler) Get(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "exercise")
	}

	exercise, err := h.service.Get(c.UserContext(), requester, id)
	if err != nil {
		return mapExerciseError(c, err)
	}
	return c.JSON(exercise)
}

func (h *ExerciseHandler) Create(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req exerciseRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	image, msg := optionalImage(c, "image")
	if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	defer closeImage(image)

	input := services.CreateExerciseInput{
		Repetitions: req.Repetitions,
		IsCustom:    req.IsCustom,
		Image:       image,
	}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.Duration != nil {
		input.Duration = *req.Duration
	}
	if req.CaloriesBurned != nil {
		input.CaloriesBurned = *req.CaloriesBurned
	}

	exercise, err := h.service.Create(c.UserContext(), requester, input)
	if err != nil {
		return mapExerciseError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(exercise)
}

// Update serves both PUT and PATCH; absent fields are left unchanged.
func (h *ExerciseHandler) Update(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "exercise")
	}

	var req exerciseRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	image, msg := optionalImage(c, "image")
	if msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	defer closeImage(image)

	exercise, err := h.service.Update(c.UserContext(), requester, id, services.UpdateExerciseInput{
		Name:           req.Name,
		Description:    req.Description,
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
		Repetitions:    req.Repetitions,
		Image:          image,
	})
	if err != nil {
		return mapExerciseError(c, err)
	}
	return c.JSON(exercise)
}

func (h *ExerciseHandler) Delete(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "exercise")
	}

	if err := h.service.Delete(c.UserContext(), requester, id); err != nil {
		return mapExerciseError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapExerciseError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You do not have permission to modify this exercise"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exercise not found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Image storage is not configured"})
	default:
		log.WithError(err).Error("exercise request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process exercise request"})
	}
}
