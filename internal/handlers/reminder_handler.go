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

type reminderApplicationService interface {
	List(ctx context.Context, requester access.Requester) ([]models.Reminder, error)
	Create(ctx context.Context, requester access.Requester, input services.ReminderInput) (*models.Reminder, error)
	CreateFlexible(ctx context.Context, requester access.Requester, input services.ReminderInput) (*models.Reminder, error)
	Get(ctx context.Context, requester access.Requester, id int64) (*models.Reminder, error)
	Update(ctx context.Context, requester access.Requester, id int64, input services.ReminderInput) (*models.Reminder, error)
	Delete(ctx context.Context, requester access.Requester, id int64) error
}

type ReminderHandler struct {
	service reminderApplicationService
}

func NewReminderHandler(service reminderApplicationService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

type reminderRequest struct {
	ReminderType *string  `json:"reminder_type"`
	Date         *string  `json:"date"`
	Time         *string  `json:"time"`
	Message      *string  `json:"message"`
	RepeatDays   []string `json:"repeat_days"`
	Enabled      *bool    `json:"enabled"`
}

func (r reminderRequest) input() services.ReminderInput {
	return services.ReminderInput{
		ReminderType: r.ReminderType,
		Date:         r.Date,
		Time:         r.Time,
		Message:      r.Message,
		RepeatDays:   r.RepeatDays,
		Enabled:      r.Enabled,
	}
}

func (h *ReminderHandler) List(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	reminders, err := h.service.List(c.UserContext(), requester)
	if err != nil {
		return mapReminderError(c, err)
	}
	return c.JSON(reminders)
}

func (h *ReminderHandler) Create(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	reminder, err := h.service.Create(c.UserContext(), requester, req.input())
	if err != nil {
		return mapReminderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reminder)
}

func (h *ReminderHandler) CreateFlexible(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	reminder, err := h.service.CreateFlexible(c.UserContext(), requester, req.input())
	if err != nil {
		var verr *services.ValidationError
		if errors.Is(err, services.ErrInvalidInput) && !errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Missing required fields."})
		}
		return mapReminderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"detail":      "Reminder created.",
		"reminder_id": reminder.ID,
	})
}

func (h *ReminderHandler) Get(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "reminder")
	}

	reminder, err := h.service.Get(c.UserContext(), requester, id)
	if err != nil {
		return mapReminderError(c, err)
	}
	return c.JSON(reminder)
}

func (h *ReminderHandler) Update(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "reminder")
	}

	var req reminderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	reminder, err := h.service.Update(c.UserContext(), requester, id, req.input())
	if err != nil {
		return mapReminderError(c, err)
	}
	return c.JSON(reminder)
}

func (h *ReminderHandler) Delete(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "reminder")
	}

	if err := h.service.Delete(c.UserContext(), requester, id); err != nil {
		return mapReminderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapReminderError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reminder not found"})
	default:
		log.WithError(err).Error("reminder request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process reminder request"})
	}
}
