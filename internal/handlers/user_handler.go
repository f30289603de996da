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

type userApplicationService interface {
	GetProfile(ctx context.Context, requester access.Requester) (*models.Profile, error)
	UpdateProfile(ctx context.Context, requester access.Requester, input services.UpdateUserInput) (*models.User, error)
	ListUsers(ctx context.Context, requester access.Requester) ([]models.User, error)
	GetUser(ctx context.Context, requester access.Requester, userID int64) (*models.User, error)
	UpdateUser(ctx context.Context, requester access.Requester, userID int64, input services.UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, requester access.Requester, userID int64) error
	ListExperts(ctx context.Context) ([]models.User, error)
	LinkExpert(ctx context.Context, requester access.Requester, expertID int64) (*models.User, error)
	UnlinkExpert(ctx context.Context, requester access.Requester) (*models.User, error)
	ListClients(ctx context.Context, requester access.Requester) ([]models.User, error)
}

type UserHandler struct {
	service userApplicationService
}

func NewUserHandler(service userApplicationService) *UserHandler {
	return &UserHandler{service: service}
}

type updateUserRequest struct {
	Username   *string  `json:"username"`
	Height     *float64 `json:"height"`
	Weight     *float64 `json:"weight"`
	Age        *int     `json:"age"`
	HealthGoal *string  `json:"health_goal"`
}

func (r updateUserRequest) input() services.UpdateUserInput {
	return services.UpdateUserInput{
		Username:   r.Username,
		Height:     r.Height,
		Weight:     r.Weight,
		Age:        r.Age,
		HealthGoal: r.HealthGoal,
	}
}

type linkExpertRequest struct {
	ExpertID int64 `json:"expert_id"`
}

func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	profile, err := h.service.GetProfile(c.UserContext(), requester)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(profile)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.service.UpdateProfile(c.UserContext(), requester, req.input())
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	users, err := h.service.ListUsers(c.UserContext(), requester)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "user")
	}

	user, err := h.service.GetUser(c.UserContext(), requester, userID)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "user")
	}

	var req updateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.service.UpdateUser(c.UserContext(), requester, userID, req.input())
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(user)
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "user")
	}

	if err := h.service.DeleteUser(c.UserContext(), requester, userID); err != nil {
		return mapUserError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) ListExperts(c *fiber.Ctx) error {
	experts, err := h.service.ListExperts(c.UserContext())
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(experts)
}

func (h *UserHandler) LinkExpert(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req linkExpertRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	if req.ExpertID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"expert_id": "This field is required."}})
	}

	user, err := h.service.LinkExpert(c.UserContext(), requester, req.ExpertID)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) UnlinkExpert(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	user, err := h.service.UnlinkExpert(c.UserContext(), requester)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *UserHandler) ListClients(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	clients, err := h.service.ListClients(c.UserContext(), requester)
	if err != nil {
		return mapUserError(c, err)
	}
	return c.JSON(clients)
}

func mapUserError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	default:
		log.WithError(err).Error("user request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process user request"})
	}
}
