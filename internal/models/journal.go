package models

import "time"

type HealthJournal struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user"`
	WorkoutSessionID *int64    `json:"workout_session"`
	Date             string    `json:"date"`
	Content          string    `json:"content"`
	CreatedAt        time.Time `json:"created_at"`
}
