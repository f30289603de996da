package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Height       *float64  `json:"height"`
	Weight       *float64  `json:"weight"`
	Age          *int      `json:"age"`
	HealthGoal   *string   `json:"health_goal"`
	BMI          *float64  `json:"bmi"`
	ExpertID     *int64    `json:"expert"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ProfileStatistics struct {
	WeeklySessions int `json:"weekly_sessions"`
	TotalReminders int `json:"total_reminders"`
	UnreadMessages int `json:"unread_messages"`
}

type Profile struct {
	User          *User             `json:"user"`
	HealthMetrics *HealthMetrics    `json:"health_metrics"`
	Statistics    ProfileStatistics `json:"statistics"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
