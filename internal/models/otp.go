package models

import "time"

type PasswordResetOTP struct {
	ID        int64
	Email     string
	Code      string
	CreatedAt time.Time
	IsUsed    bool
}
