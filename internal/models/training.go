package models

import "time"

// Dates are YYYY-MM-DD and times HH:MM:SS, both in the configured timezone.
type TrainingSchedule struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

type TrainingSession struct {
	ID                 int64     `json:"id"`
	ScheduleID         int64     `json:"schedule"`
	ExerciseID         *int64    `json:"exercise"`
	ExerciseName       *string   `json:"exercise_name,omitempty"`
	CustomExerciseName *string   `json:"custom_exercise_name"`
	Repetitions        *int      `json:"repetitions"`
	Duration           *int      `json:"duration"`
	Feedback           *string   `json:"feedback"`
	ImageURL           *string   `json:"image"`
	CreatedAt          time.Time `json:"created_at"`

	// OwnerID is the schedule's user; it is not serialized.
	OwnerID int64 `json:"-"`
}
