package models

import "time"

type Reminder struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user"`
	ReminderType string    `json:"reminder_type"`
	Date         *string   `json:"date"`
	Time         string    `json:"time"`
	Message      string    `json:"message"`
	RepeatDays   []string  `json:"repeat_days"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
}
