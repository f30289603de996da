package models

import "time"

type DietGoal struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user"`
	GoalType     string    `json:"goal_type"`
	TargetWeight *float64  `json:"target_weight"`
	TargetDate   *string   `json:"target_date"`
	CreatedAt    time.Time `json:"created_at"`
}

type MealPlan struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user"`
	DietGoalID    int64     `json:"diet_goal"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	TotalCalories float64   `json:"total_calories"`
	TotalProtein  float64   `json:"total_protein"`
	TotalCarbs    float64   `json:"total_carbs"`
	TotalFat      float64   `json:"total_fat"`
	RawText       string    `json:"-"`
	IsFallback    bool      `json:"is_fallback"`
	CreatedAt     time.Time `json:"created_at"`
	Meals         []Meal    `json:"meals"`
}

type Meal struct {
	ID           int64   `json:"id"`
	MealPlanID   int64   `json:"meal_plan"`
	MealType     string  `json:"meal_type"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	Ingredients  string  `json:"ingredients"`
	Instructions string  `json:"instructions"`
	Position     int     `json:"position"`
}

type NutritionSuggestion struct {
	UserID     int64  `json:"user"`
	Goal       string `json:"goal"`
	Suggestion string `json:"suggestion"`
}
