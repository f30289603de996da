package models

import "time"

type Exercise struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Duration       int       `json:"duration"`
	CaloriesBurned int       `json:"calories_burned"`
	Repetitions    *int      `json:"repetitions"`
	ImageURL       *string   `json:"image"`
	IsCustom       bool      `json:"is_custom"`
	CreatedBy      *int64    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
