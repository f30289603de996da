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

type statisticsApplicationService interface {
	TrainingStatistics(ctx context.Context, requester access.Requester, mode string, target *int64) (*models.TrainingStatistics, error)
	UserStatistics(ctx context.Context, requester access.Requester, userID int64) (*models.UserStatistics, error)
}

type StatisticsHandler struct {
	service statisticsApplicationService
}

func NewStatisticsHandler(service statisticsApplicationService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

func (h *StatisticsHandler) TrainingStatistics(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	target, ok := parseOptionalIDQuery(c, "user_id")
	if !ok {
		return invalidID(c, "user")
	}

	mode := strings.ToLower(strings.TrimSpace(c.Query("mode", services.StatisticsWeek)))
	stats, err := h.service.TrainingStatistics(c.UserContext(), requester, mode, target)
	if err != nil {
		return mapStatisticsError(c, err)
	}
	return c.JSON(stats)
}

func (h *StatisticsHandler) UserStatistics(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "user")
	}

	stats, err := h.service.UserStatistics(c.UserContext(), requester, userID)
	if err != nil {
		return mapStatisticsError(c, err)
	}
	return c.JSON(stats)
}

func mapStatisticsError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	default:
		log.WithError(err).Error("statistics request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute statistics"})
	}
}
