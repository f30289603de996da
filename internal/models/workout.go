package models

import "time"

type WorkoutSession struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time"`
	TotalCalories int               `json:"total_calories"`
	IsCompleted   bool              `json:"is_completed"`
	Exercises     []WorkoutExercise `json:"exercises"`
}

type WorkoutExercise struct {
	ID               int64     `json:"id"`
	WorkoutSessionID int64     `json:"workout_session"`
	ExerciseID       *int64    `json:"exercise"`
	ExerciseName     string    `json:"exercise_name"`
	ExerciseImage    *string   `json:"exercise_image"`
	Duration         int       `json:"duration"`
	CaloriesBurned   int       `json:"calories_burned"`
	CompletedAt      time.Time `json:"completed_at"`
}
