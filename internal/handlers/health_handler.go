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

type healthApplicationService interface {
	Today(ctx context.Context, requester access.Requester) (*models.HealthMetrics, error)
	RecordWater(ctx context.Context, requester access.Requester, amount float64) (*models.WaterSession, *models.HealthMetrics, error)
	SetSteps(ctx context.Context, requester access.Requester, steps int) (*models.HealthMetrics, error)
	SetHeartRate(ctx context.Context, requester access.Requester, heartRate int) (*models.HealthMetrics, error)
	UpdateBMI(ctx context.Context, requester access.Requester, input services.BMIInput) (*models.User, error)
	History(ctx context.Context, requester access.Requester, target *int64) ([]models.HealthMetrics, error)
	ListWater(ctx context.Context, requester access.Requester, date *string) ([]models.WaterSession, error)
}

type HealthHandler struct {
	service healthApplicationService
}

func NewHealthHandler(service healthApplicationService) *HealthHandler {
	return &HealthHandler{service: service}
}

type waterRequest struct {
	Amount *float64 `json:"amount"`
}

type stepsRequest struct {
	Steps *int `json:"steps"`
}

type heartRateRequest struct {
	HeartRate *int `json:"heart_rate"`
}

type bmiRequest struct {
	Height *float64 `json:"height"`
	Weight *float64 `json:"weight"`
}

func (h *HealthHandler) Today(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	metrics, err := h.service.Today(c.UserContext(), requester)
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.JSON(metrics)
}

// AddWater records a water session and returns the updated day totals.
func (h *HealthHandler) AddWater(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	amount, ok := parseWaterAmount(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"amount": "Amount must be greater than 0."}})
	}

	_, metrics, err := h.service.RecordWater(c.UserContext(), requester, amount)
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.JSON(metrics)
}

func (h *HealthHandler) SetSteps(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req stepsRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.Steps == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"steps": "This field is required."}})
	}

	metrics, err := h.service.SetSteps(c.UserContext(), requester, *req.Steps)
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.JSON(metrics)
}

func (h *HealthHandler) SetHeartRate(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req heartRateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.HeartRate == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"heart_rate": "This field is required."}})
	}

	metrics, err := h.service.SetHeartRate(c.UserContext(), requester, *req.HeartRate)
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.JSON(metrics)
}

func (h *HealthHandler) UpdateBMI(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req bmiRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	user, err := h.service.UpdateBMI(c.UserContext(), requester, services.BMIInput{Height: req.Height, Weight: req.Weight})
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.JSON(fiber.Map{
		"bmi":    user.BMI,
		"height": user.Height,
		"weight": user.Weight,
	})
}

func (h *HealthHandler) History(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	target, ok := parseOptionalIDQuery(c, "user_id")
	if !ok {
		return invalidID(c, "user")
	}

	history, err := h.service.History(c.UserContext(), requester, target)
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.JSON(history)
}

func (h *HealthHandler) ListWater(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var date *string
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		date = &raw
	}

	sessions, err := h.service.ListWater(c.UserContext(), requester, date)
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.JSON(sessions)
}

func (h *HealthHandler) CreateWater(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	amount, ok := parseWaterAmount(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"amount": "Amount must be greater than 0."}})
	}

	session, _, err := h.service.RecordWater(c.UserContext(), requester, amount)
	if err != nil {
		return mapHealthError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func parseWaterAmount(c *fiber.Ctx) (float64, bool) {
	var req waterRequest
	if err := c.BodyParser(&req); err != nil || req.Amount == nil || *req.Amount <= 0 {
		return 0, false
	}
	return *req.Amount, true
}

func mapHealthError(c *fiber.Ctx, err error) error {
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
	default:
		log.WithError(err).Error("health request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process health request"})
	}
}
