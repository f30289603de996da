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

type dietApplicationService interface {
	CreateGoal(ctx context.Context, requester access.Requester, input services.DietGoalInput) (*models.DietGoal, error)
	ListGoals(ctx context.Context, requester access.Requester) ([]models.DietGoal, error)
	GetGoal(ctx context.Context, requester access.Requester, id int64) (*models.DietGoal, error)
	DeleteGoal(ctx context.Context, requester access.Requester, id int64) error
	GeneratePlan(ctx context.Context, requester access.Requester, goalID *int64) (*models.MealPlan, error)
	ListPlans(ctx context.Context, requester access.Requester) ([]models.MealPlan, error)
	ListUserPlans(ctx context.Context, requester access.Requester, userID int64) ([]models.MealPlan, error)
	GetPlan(ctx context.Context, requester access.Requester, id int64) (*models.MealPlan, error)
	DeletePlan(ctx context.Context, requester access.Requester, id int64) error
	NutritionSuggestion(ctx context.Context, requester access.Requester, userID int64) (*models.NutritionSuggestion, error)
}

type DietHandler struct {
	service dietApplicationService
}

func NewDietHandler(service dietApplicationService) *DietHandler {
	return &DietHandler{service: service}
}

type dietGoalRequest struct {
	GoalType     string   `json:"goal_type"`
	TargetWeight *float64 `json:"target_weight"`
	TargetDate   *string  `json:"target_date"`
}

type generatePlanRequest struct {
	DietGoalID *int64 `json:"diet_goal_id"`
}

func (h *DietHandler) CreateGoal(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req dietGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	goal, err := h.service.CreateGoal(c.UserContext(), requester, services.DietGoalInput{
		GoalType:     req.GoalType,
		TargetWeight: req.TargetWeight,
		TargetDate:   req.TargetDate,
	})
	if err != nil {
		return mapDietError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(goal)
}

func (h *DietHandler) ListGoals(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	goals, err := h.service.ListGoals(c.UserContext(), requester)
	if err != nil {
		return mapDietError(c, err)
	}
	return c.JSON(goals)
}

func (h *DietHandler) GetGoal(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "diet goal")
	}

	goal, err := h.service.GetGoal(c.UserContext(), requester, id)
	if err != nil {
		return mapDietError(c, err)
	}
	return c.JSON(goal)
}

func (h *DietHandler) DeleteGoal(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "diet goal")
	}

	if err := h.service.DeleteGoal(c.UserContext(), requester, id); err != nil {
		return mapDietError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DietHandler) GeneratePlan(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req generatePlanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
	}

	plan, err := h.service.GeneratePlan(c.UserContext(), requester, req.DietGoalID)
	if err != nil {
		return mapDietError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

func (h *DietHandler) ListPlans(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	plans, err := h.service.ListPlans(c.UserContext(), requester)
	if err != nil {
		return mapDietError(c, err)
	}
	return c.JSON(plans)
}

func (h *DietHandler) ListUserPlans(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "user")
	}

	plans, err := h.service.ListUserPlans(c.UserContext(), requester, userID)
	if err != nil {
		return mapDietError(c, err)
	}
	return c.JSON(plans)
}

func (h *DietHandler) GetPlan(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "meal plan")
	}

	plan, err := h.service.GetPlan(c.UserContext(), requester, id)
	if err != nil {
		return mapDietError(c, err)
	}
	return c.JSON(plan)
}

func (h *DietHandler) DeletePlan(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "meal plan")
	}

	if err := h.service.DeletePlan(c.UserContext(), requester, id); err != nil {
		return mapDietError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DietHandler) NutritionSuggestion(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidID(c, "user")
	}

	suggestion, err := h.service.NutritionSuggestion(c.UserContext(), requester, userID)
	if err != nil {
		return mapDietError(c, err)
	}
	return c.JSON(suggestion)
}

func mapDietError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrNoDietGoal):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Create a diet goal first"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrUpstream):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate meal plan"})
	default:
		log.WithError(err).Error("diet request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process diet request"})
	}
}
