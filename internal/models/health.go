package models

type HealthMetrics struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	WaterIntake float64 `json:"water_intake"`
	Steps       int     `json:"steps"`
	HeartRate   *int    `json:"heart_rate"`
}

type WaterSession struct {
	ID     int64   `json:"id"`
	UserID int64   `json:"user"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Time   string  `json:"time"`
}
