package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type stubDietService struct {
	createGoalResult *models.DietGoal
	createGoalErr    error
	lastGoalInput    services.DietGoalInput

	generateResult *models.MealPlan
	generateErr    error
	generateCalls  int
	lastGoalID     *int64

	suggestionErr error
	lastUserID    int64
}

func (s *stubDietService) CreateGoal(_ context.Context, _ access.Requester, input services.DietGoalInput) (*models.DietGoal, error) {
	s.lastGoalInput = input
	return s.createGoalResult, s.createGoalErr
}

func (s *stubDietService) ListGoals(context.Context, access.Requester) ([]models.DietGoal, error) {
	return []models.DietGoal{}, nil
}

func (s *stubDietService) GetGoal(context.Context, access.Requester, int64) (*models.DietGoal, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubDietService) DeleteGoal(context.Context, access.Requester, int64) error {
	return nil
}

func (s *stubDietService) GeneratePlan(_ context.Context, _ access.Requester, goalID *int64) (*models.MealPlan, error) {
	s.generateCalls++
	s.lastGoalID = goalID
	return s.generateResult, s.generateErr
}

func (s *stubDietService) ListPlans(context.Context, access.Requester) ([]models.MealPlan, error) {
	return []models.MealPlan{}, nil
}

func (s *stubDietService) ListUserPlans(_ context.Context, _ access.Requester, userID int64) ([]models.MealPlan, error) {
	s.lastUserID = userID
	return []models.MealPlan{}, nil
}

func (s *stubDietService) GetPlan(context.Context, access.Requester, int64) (*models.MealPlan, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubDietService) DeletePlan(context.Context, access.Requester, int64) error {
	return services.ErrForbidden
}

func (s *stubDietService) NutritionSuggestion(_ context.Context, _ access.Requester, userID int64) (*models.NutritionSuggestion, error) {
	s.lastUserID = userID
	if s.suggestionErr != nil {
		return nil, s.suggestionErr
	}
	return &models.NutritionSuggestion{UserID: userID, Goal: "giảm cân", Suggestion: "Eat fewer calories"}, nil
}

func TestCreateDietGoalForwardsInput(t *testing.T) {
	service := &stubDietService{createGoalResult: &models.DietGoal{ID: 4, UserID: 9, GoalType: "weight_loss"}}
	handler := NewDietHandler(service)

	app := newRequesterApp(access.RoleUser, 9)
	app.Post("/api/diet-goals", handler.CreateGoal)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/diet-goals", `{"goal_type":"weight_loss","target_weight":58.5}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastGoalInput.GoalType != "weight_loss" {
		t.Fatalf("unexpected goal type %q", service.lastGoalInput.GoalType)
	}
	if service.lastGoalInput.TargetWeight == nil || *service.lastGoalInput.TargetWeight != 58.5 {
		t.Fatalf("expected target weight 58.5, got %v", service.lastGoalInput.TargetWeight)
	}
}

func TestGeneratePlanAcceptsEmptyBody(t *testing.T) {
	service := &stubDietService{generateResult: &models.MealPlan{
		ID:         2,
		Title:      "Balanced day",
		IsFallback: true,
		Meals:      []models.Meal{{MealType: "breakfast", Name: "Oatmeal"}},
	}}
	handler := NewDietHandler(service)

	app := newRequesterApp(access.RoleUser, 9)
	app.Post("/api/meal-plans/generate", handler.GeneratePlan)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/meal-plans/generate", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastGoalID != nil {
		t.Fatalf("expected latest goal to be used, got %d", *service.lastGoalID)
	}

	var body models.MealPlan
	decodeBody(t, resp, &body)
	if !body.IsFallback || len(body.Meals) != 1 {
		t.Fatalf("unexpected plan %+v", body)
	}
}

func TestGeneratePlanUsesRequestedGoal(t *testing.T) {
	service := &stubDietService{generateResult: &models.MealPlan{ID: 2}}
	handler := NewDietHandler(service)

	app := newRequesterApp(access.RoleUser, 9)
	app.Post("/api/meal-plans/generate", handler.GeneratePlan)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/meal-plans/generate", `{"diet_goal_id":12}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if service.lastGoalID == nil || *service.lastGoalID != 12 {
		t.Fatalf("expected goal 12, got %v", service.lastGoalID)
	}
}

func TestGeneratePlanMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "no goal", err: services.ErrNoDietGoal, wantStatus: http.StatusBadRequest, wantError: "Create a diet goal first"},
		{name: "upstream", err: services.ErrUpstream, wantStatus: http.StatusInternalServerError, wantError: "Failed to generate meal plan"},
		{name: "foreign goal", err: services.ErrForbidden, wantStatus: http.StatusForbidden, wantError: "Forbidden"},
		{name: "missing goal", err: pgx.ErrNoRows, wantStatus: http.StatusNotFound, wantError: "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewDietHandler(&stubDietService{generateErr: tt.err})

			app := newRequesterApp(access.RoleUser, 9)
			app.Post("/api/meal-plans/generate", handler.GeneratePlan)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/meal-plans/generate", "{}"))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			var body map[string]string
			decodeBody(t, resp, &body)
			if body["error"] != tt.wantError {
				t.Fatalf("expected error %q, got %q", tt.wantError, body["error"])
			}
		})
	}
}

func TestGeneratePlanRejectsMalformedBody(t *testing.T) {
	service := &stubDietService{}
	handler := NewDietHandler(service)

	app := newRequesterApp(access.RoleUser, 9)
	app.Post("/api/meal-plans/generate", handler.GeneratePlan)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/meal-plans/generate", `{"diet_goal_id":`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if service.generateCalls != 0 {
		t.Fatalf("service should not be called")
	}
}

func TestNutritionSuggestionForClient(t *testing.T) {
	service := &stubDietService{}
	handler := NewDietHandler(service)

	app := newRequesterApp(access.RoleExpert, 2)
	app.Get("/api/users/:id/nutrition-suggestion", handler.NutritionSuggestion)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/users/15/nutrition-suggestion", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 15 {
		t.Fatalf("expected user 15, got %d", service.lastUserID)
	}

	var body models.NutritionSuggestion
	decodeBody(t, resp, &body)
	if body.Suggestion == "" {
		t.Fatalf("expected a suggestion")
	}
}

func TestNutritionSuggestionUnknownUser(t *testing.T) {
	handler := NewDietHandler(&stubDietService{suggestionErr: pgx.ErrNoRows})

	app := newRequesterApp(access.RoleExpert, 2)
	app.Get("/api/users/:id/nutrition-suggestion", handler.NutritionSuggestion)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/users/99/nutrition-suggestion", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeletePlanForbidden(t *testing.T) {
	handler := NewDietHandler(&stubDietService{})

	app := newRequesterApp(access.RoleUser, 9)
	app.Delete("/api/meal-plans/:id", handler.DeletePlan)

	resp, err := app.Test(jsonRequest(http.MethodDelete, "/api/meal-plans/3", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
