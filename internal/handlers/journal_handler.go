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

type journalApplicationService interface {
	List(ctx context.Context, requester access.Requester) ([]models.HealthJournal, error)
	ListForUser(ctx context.Context, requester access.Requester, userID int64) ([]models.HealthJournal, error)
	Create(ctx context.Context, requester access.Requester, input services.JournalInput) (*models.HealthJournal, error)
	Get(ctx context.Context, requester access.Requester, id int64) (*models.HealthJournal, error)
	Update(ctx context.Context, requester access.Requester, id int64, content string) (*models.HealthJournal, error)
	Delete(ctx context.Context, requester access.Requester, id int64) error
}

type JournalHandler struct {
	service journalApplicationService
}

func NewJournalHandler(service journalApplicationService) *JournalHandler {
	return &JournalHandler{service: service}
}

type journalRequest struct {
	Content          string `json:"content"`
	WorkoutSessionID *int64 `json:"workout_session_id"`
}

func (h *JournalHandler) List(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	journals, err := h.service.List(c.UserContext(), requester)
	if err != nil {
		return mapJournalError(c, err)
	}
	return c.JSON(journals)
}

func (h *JournalHandler) ListForUser(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "user")
	}

	journals, err := h.service.ListForUser(c.UserContext(), requester, userID)
	if err != nil {
		return mapJournalError(c, err)
	}
	return c.JSON(journals)
}

func (h *JournalHandler) Create(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req journalRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	journal, err := h.service.Create(c.UserContext(), requester, services.JournalInput{
		Content:          req.Content,
		WorkoutSessionID: req.WorkoutSessionID,
	})
	if err != nil {
		return mapJournalError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(journal)
}

func (h *JournalHandler) Get(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "journal")
	}

	journal, err := h.service.Get(c.UserContext(), requester, id)
	if err != nil {
		return mapJournalError(c, err)
	}
	return c.JSON(journal)
}

func (h *JournalHandler) Update(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "journal")
	}

	var req journalRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	journal, err := h.service.Update(c.UserContext(), requester, id, req.Content)
	if err != nil {
		return mapJournalError(c, err)
	}
	return c.JSON(journal)
}

func (h *JournalHandler) Delete(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "journal")
	}

	if err := h.service.Delete(c.UserContext(), requester, id); err != nil {
		return mapJournalError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func mapJournalError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Journal not found"})
	default:
		log.WithError(err).Error("journal request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process journal request"})
	}
}
