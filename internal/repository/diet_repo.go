package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const dietGoalColumns = `id, user_id, goal_type, target_weight, to_char(target_date, 'YYYY-MM-DD'), created_at`

const mealPlanColumns = `id, user_id, diet_goal_id, title, description, total_calories, total_protein,
	total_carbs, total_fat, raw_text, is_fallback, created_at`

type DietRepository struct {
	db DBTX
}

func NewDietRepository(db DBTX) *DietRepository {
	return &DietRepository{db: db}
}

type CreateDietGoalInput struct {
	UserID       int64
	GoalType     string
	TargetWeight *float64
	TargetDate   *string
}

func scanDietGoal(row scanner) (*models.DietGoal, error) {
	var goal models.DietGoal
	if err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.GoalType,
		&goal.TargetWeight,
		&goal.TargetDate,
		&goal.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &goal, nil
}

func scanMealPlan(row scanner) (*models.MealPlan, error) {
	var plan models.MealPlan
	if err := row.Scan(
		&plan.ID,
		&plan.UserID,
		&plan.DietGoalID,
		&plan.Title,
		&plan.Description,
		&plan.TotalCalories,
		&plan.TotalProtein,
		&plan.TotalCarbs,
		&plan.TotalFat,
		&plan.RawText,
		&plan.IsFallback,
		&plan.CreatedAt,
	); err != nil {
		return nil, err
	}
	plan.Meals = []models.Meal{}
	return &plan, nil
}

func (r *DietRepository) CreateGoal(ctx context.Context, input CreateDietGoalInput) (*models.DietGoal, error) {
	query := `
		INSERT INTO diet_goals (user_id, goal_type, target_weight, target_date)
		VALUES ($1, $2, $3, $4::text::date)
		RETURNING ` + dietGoalColumns
	return scanDietGoal(r.db.QueryRow(ctx, query, input.UserID, input.GoalType, input.TargetWeight, input.TargetDate))
}

func (r *DietRepository) GetGoal(ctx context.Context, id int64) (*models.DietGoal, error) {
	return scanDietGoal(r.db.QueryRow(ctx, `SELECT `+dietGoalColumns+` FROM diet_goals WHERE id = $1`, id))
}

func (r *DietRepository) LatestGoal(ctx context.Context, userID int64) (*models.DietGoal, error) {
	query := `SELECT ` + dietGoalColumns + ` FROM diet_goals WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanDietGoal(r.db.QueryRow(ctx, query, userID))
}

func (r *DietRepository) ListGoals(ctx context.Context, userID int64) ([]models.DietGoal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+dietGoalColumns+`
		FROM diet_goals
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := make([]models.DietGoal, 0)
	for rows.Next() {
		goal, err := scanDietGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *DietRepository) DeleteGoal(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM diet_goals WHERE id = $1`, id)
}

func (r *DietRepository) CreatePlan(ctx context.Context, plan *models.MealPlan) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO meal_plans (user_id, diet_goal_id, title, description, total_calories, total_protein,
			total_carbs, total_fat, raw_text, is_fallback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`,
		plan.UserID,
		plan.DietGoalID,
		plan.Title,
		plan.Description,
		plan.TotalCalories,
		plan.TotalProtein,
		plan.TotalCarbs,
		plan.TotalFat,
		plan.RawText,
		plan.IsFallback,
	).Scan(&plan.ID, &plan.CreatedAt)
}

func (r *DietRepository) CreateMeal(ctx context.Context, meal *models.Meal) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO meals (meal_plan_id, meal_type, name, description, calories, protein, carbs, fat,
			ingredients, instructions, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		meal.MealPlanID,
		meal.MealType,
		meal.Name,
		meal.Description,
		meal.Calories,
		meal.Protein,
		meal.Carbs,
		meal.Fat,
		meal.Ingredients,
		meal.Instructions,
		meal.Position,
	).Scan(&meal.ID)
}

func (r *DietRepository) GetPlan(ctx context.Context, id int64) (*models.MealPlan, error) {
	return scanMealPlan(r.db.QueryRow(ctx, `SELECT `+mealPlanColumns+` FROM meal_plans WHERE id = $1`, id))
}

func (r *DietRepository) ListPlans(ctx context.Context, userID int64) ([]models.MealPlan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mealPlanColumns+`
		FROM meal_plans
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.MealPlan, 0)
	for rows.Next() {
		plan, err := scanMealPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// ListMeals returns meals grouped by plan id in their stored order.
func (r *DietRepository) ListMeals(ctx context.Context, planIDs []int64) (map[int64][]models.Meal, error) {
	result := make(map[int64][]models.Meal, len(planIDs))
	if len(planIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, meal_plan_id, meal_type, name, description, calories, protein, carbs, fat,
		       ingredients, instructions, position
		FROM meals
		WHERE meal_plan_id = ANY($1)
		ORDER BY meal_plan_id, position, id
	`, planIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var meal models.Meal
		if err := rows.Scan(
			&meal.ID,
			&meal.MealPlanID,
			&meal.MealType,
			&meal.Name,
			&meal.Description,
			&meal.Calories,
			&meal.Protein,
			&meal.Carbs,
			&meal.Fat,
			&meal.Ingredients,
			&meal.Instructions,
			&meal.Position,
		); err != nil {
			return nil, err
		}
		result[meal.MealPlanID] = append(result[meal.MealPlanID], meal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *DietRepository) DeletePlan(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM meal_plans WHERE id = $1`, id)
}
