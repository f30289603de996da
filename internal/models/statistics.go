package models

// StatisticsBucket is one period of the training statistics series.
type StatisticsBucket struct {
	Label         string `json:"label"`
	Date          string `json:"date,omitempty"`
	SessionCount  int    `json:"session_count"`
	TotalCalories int    `json:"total_calories"`
}

type TrainingStatistics struct {
	UserID int64              `json:"user"`
	Mode   string             `json:"mode"`
	Series []StatisticsBucket `json:"series"`
}

type PeriodSummary struct {
	TotalSessions int `json:"total_sessions"`
	TotalCalories int `json:"total_calories"`
}

type UserStatistics struct {
	Profile *HealthMetrics `json:"profile"`
	Week    PeriodSummary  `json:"week"`
	Month   PeriodSummary  `json:"month"`
	Year    PeriodSummary  `json:"year"`
}
