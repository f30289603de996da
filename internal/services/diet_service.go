package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/mealplan"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/metrics"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

var dietGoalTypes = map[string]string{
	"muscle_gain": "build muscle",
	"weight_loss": "lose weight",
	"maintenance": "maintain current weight",
}

type DietService struct {
	db        Database
	userRepo  *repository.UserRepository
	dietRepo  *repository.DietRepository
	generator TextGenerator
	metrics   *metrics.Manager
}

func NewDietService(db Database, generator TextGenerator, metricsManager *metrics.Manager) *DietService {
	return &DietService{
		db:        db,
		userRepo:  repository.NewUserRepository(db),
		dietRepo:  repository.NewDietRepository(db),
		generator: generator,
		metrics:   metricsManager,
	}
}

type DietGoalInput struct {
	GoalType     string
	TargetWeight *float64
	TargetDate   *string
}

func (s *DietService) CreateGoal(ctx context.Context, requester access.Requester, input DietGoalInput) (*models.DietGoal, error) {
	goalType := strings.ToLower(strings.TrimSpace(input.GoalType))

	verr := newValidationError()
	if _, ok := dietGoalTypes[goalType]; !ok {
		verr.add("goal_type", "Goal type must be muscle_gain, weight_loss or maintenance.")
	}
	if input.TargetWeight != nil && *input.TargetWeight <= 0 {
		verr.add("target_weight", "Target weight must be positive.")
	}
	var targetDate *string
	if input.TargetDate != nil && strings.TrimSpace(*input.TargetDate) != "" {
		if normalized, ok := normalizeDate(*input.TargetDate); ok {
			targetDate = &normalized
		} else {
			verr.add("target_date", "Date has wrong format. Use YYYY-MM-DD.")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	return s.dietRepo.CreateGoal(ctx, repository.CreateDietGoalInput{
		UserID:       requester.ID,
		GoalType:     goalType,
		TargetWeight: input.TargetWeight,
		TargetDate:   targetDate,
	})
}

func (s *DietService) ListGoals(ctx context.Context, requester access.Requester) ([]models.DietGoal, error) {
	return s.dietRepo.ListGoals(ctx, requester.ID)
}

func (s *DietService) GetGoal(ctx context.Context, requester access.Requester, id int64) (*models.DietGoal, error) {
	goal, err := s.dietRepo.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, goal.UserID, access.Read); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *DietService) DeleteGoal(ctx context.Context, requester access.Requester, id int64) error {
	goal, err := s.dietRepo.GetGoal(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwned(ctx, s.userRepo, requester, goal.UserID, access.Write); err != nil {
		return err
	}
	return s.dietRepo.DeleteGoal(ctx, id)
}

// GeneratePlan asks the text generator for a plan for the given goal, or the
// latest goal when goalID is nil, and stores the parsed result.
func (s *DietService) GeneratePlan(ctx context.Context, requester access.Requester, goalID *int64) (*models.MealPlan, error) {
	user, err := s.userRepo.GetByID(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	var goal *models.DietGoal
	if goalID != nil {
		goal, err = s.dietRepo.GetGoal(ctx, *goalID)
		if err == nil && goal.UserID != requester.ID {
			return nil, ErrForbidden
		}
	} else {
		goal, err = s.dietRepo.LatestGoal(ctx, requester.ID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoDietGoal
		}
		return nil, err
	}

	if s.generator == nil {
		return nil, fmt.Errorf("%w: text generation is not configured", ErrUpstream)
	}
	text, err := s.generator.Generate(ctx, buildMealPlanPrompt(user, goal))
	if err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("meal plan generation failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	result := mealplan.Parse(text)
	if result.Fallback {
		log.WithField("user_id", user.ID).Warn("meal plan text unusable, storing fallback plan")
	}

	plan := toMealPlanModel(result, user.ID, goal.ID, text)
	err = withTx(ctx, s.db, func(tx pgx.Tx) error {
		txDietRepo := repository.NewDietRepository(tx)
		if err := txDietRepo.CreatePlan(ctx, plan); err != nil {
			return err
		}
		for i := range plan.Meals {
			plan.Meals[i].MealPlanID = plan.ID
			if err := txDietRepo.CreateMeal(ctx, &plan.Meals[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncMealPlan(result.Fallback)
	return plan, nil
}

func (s *DietService) ListPlans(ctx context.Context, requester access.Requester) ([]models.MealPlan, error) {
	return s.listPlansFor(ctx, requester.ID)
}

// ListUserPlans lists a client's plans for the client or their expert.
func (s *DietService) ListUserPlans(ctx context.Context, requester access.Requester, userID int64) ([]models.MealPlan, error) {
	clientID, err := resolveClient(ctx, s.userRepo, requester, &userID)
	if err != nil {
		return nil, err
	}
	return s.listPlansFor(ctx, clientID)
}

func (s *DietService) GetPlan(ctx context.Context, requester access.Requester, id int64) (*models.MealPlan, error) {
	plan, err := s.dietRepo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(ctx, s.userRepo, requester, plan.UserID, access.Read); err != nil {
		return nil, err
	}

	plans := []models.MealPlan{*plan}
	if err := s.attachMeals(ctx, plans); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

func (s *DietService) DeletePlan(ctx context.Context, requester access.Requester, id int64) error {
	plan, err := s.dietRepo.GetPlan(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwned(ctx, s.userRepo, requester, plan.UserID, access.Write); err != nil {
		return err
	}
	return s.dietRepo.DeletePlan(ctx, id)
}

func (s *DietService) NutritionSuggestion(
	ctx context.Context,
	requester access.Requester,
	userID int64,
) (*models.NutritionSuggestion, error) {
	clientID, err := resolveClient(ctx, s.userRepo, requester, &userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	goal := ""
	if user.HealthGoal != nil {
		goal = *user.HealthGoal
	}
	return &models.NutritionSuggestion{
		UserID:     user.ID,
		Goal:       goal,
		Suggestion: SuggestNutrition(goal),
	}, nil
}

func (s *DietService) listPlansFor(ctx context.Context, userID int64) ([]models.MealPlan, error) {
	plans, err := s.dietRepo.ListPlans(ctx, userID)
	if err != nil {
		return nil, err
	}
	return plans, s.attachMeals(ctx, plans)
}

func (s *DietService) attachMeals(ctx context.Context, plans []models.MealPlan) error {
	ids := make([]int64, 0, len(plans))
	for _, plan := range plans {
		ids = append(ids, plan.ID)
	}

	meals, err := s.dietRepo.ListMeals(ctx, ids)
	if err != nil {
		return err
	}
	for i := range plans {
		plans[i].Meals = meals[plans[i].ID]
		if plans[i].Meals == nil {
			plans[i].Meals = []models.Meal{}
		}
	}
	return nil
}

var nutritionRules = []struct {
	keywords   []string
	suggestion string
}{
	{
		keywords:   []string{"tăng cơ", "muscle gain", "gain muscle", "build muscle"},
		suggestion: "Eat plenty of protein (meat, fish, eggs, dairy) and green vegetables, and limit refined carbs.",
	},
	{
		keywords:   []string{"giảm cân", "weight loss", "lose weight", "lose"},
		suggestion: "Eat more green vegetables, limit starch, prefer low-calorie foods and drink enough water.",
	},
	{
		keywords:   []string{"duy trì", "sức khỏe", "maintain", "health"},
		suggestion: "Eat a varied diet that balances all food groups and keep healthy eating habits.",
	},
}

const defaultNutritionSuggestion = "Set a health goal to receive a suitable nutrition suggestion."

// SuggestNutrition matches the first rule whose keyword appears in goal.
func SuggestNutrition(goal string) string {
	lower := strings.ToLower(goal)
	for _, rule := range nutritionRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.suggestion
			}
		}
	}
	return defaultNutritionSuggestion
}

func buildMealPlanPrompt(user *models.User, goal *models.DietGoal) string {
	var b strings.Builder
	b.WriteString("Create a one-day meal plan.\n")
	fmt.Fprintf(&b, "Goal: %s.\n", dietGoalTypes[goal.GoalType])
	if goal.TargetWeight != nil {
		fmt.Fprintf(&b, "Target weight: %.1f kg.\n", *goal.TargetWeight)
	}
	if goal.TargetDate != nil {
		fmt.Fprintf(&b, "Target date: %s.\n", *goal.TargetDate)
	}
	if user.Height != nil {
		fmt.Fprintf(&b, "Height: %.1f cm.\n", *user.Height)
	}
	if user.Weight != nil {
		fmt.Fprintf(&b, "Weight: %.1f kg.\n", *user.Weight)
	}
	if user.Age != nil {
		fmt.Fprintf(&b, "Age: %d.\n", *user.Age)
	}
	if user.HealthGoal != nil && *user.HealthGoal != "" {
		fmt.Fprintf(&b, "Health goal: %s.\n", *user.HealthGoal)
	}
	b.WriteString(`Answer in exactly this format:
Title: <plan title>
Description: <one line>
Total: <calories> kcal | Protein: <g> | Carbs: <g> | Fat: <g>
Breakfast: <dish name>
- Description: <text>
- Calories: <number>
- Protein: <number>
- Carbs: <number>
- Fat: <number>
- Ingredients: <text>
- Instructions: <text>
Repeat the meal block for Lunch, Dinner and Snack.`)
	return b.String()
}

func toMealPlanModel(result mealplan.Result, userID, goalID int64, rawText string) *models.MealPlan {
	parsed := result.Plan
	plan := &models.MealPlan{
		UserID:        userID,
		DietGoalID:    goalID,
		Title:         parsed.Title,
		Description:   parsed.Description,
		TotalCalories: parsed.TotalCalories,
		TotalProtein:  parsed.TotalProtein,
		TotalCarbs:    parsed.TotalCarbs,
		TotalFat:      parsed.TotalFat,
		RawText:       rawText,
		IsFallback:    result.Fallback,
		Meals:         make([]models.Meal, 0, len(parsed.Meals)),
	}
	for i, meal := range parsed.Meals {
		plan.Meals = append(plan.Meals, models.Meal{
			MealType:     meal.Type,
			Name:         meal.Name,
			Description:  meal.Description,
			Calories:     meal.Calories,
			Protein:      meal.Protein,
			Carbs:        meal.Carbs,
			Fat:          meal.Fat,
			Ingredients:  meal.Ingredients,
			Instructions: meal.Instructions,
			Position:     i,
		})
	}
	return plan
}
