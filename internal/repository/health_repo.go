package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const metricsColumns = `id, user_id, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS'),
	water_intake, steps, heart_rate`

const waterColumns = `id, user_id, amount, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS')`

type HealthRepository struct {
	db DBTX
}

func NewHealthRepository(db DBTX) *HealthRepository {
	return &HealthRepository{db: db}
}

func scanMetrics(row scanner) (*models.HealthMetrics, error) {
	var metrics models.HealthMetrics
	if err := row.Scan(
		&metrics.ID,
		&metrics.UserID,
		&metrics.Date,
		&metrics.Time,
		&metrics.WaterIntake,
		&metrics.Steps,
		&metrics.HeartRate,
	); err != nil {
		return nil, err
	}
	return &metrics, nil
}

func scanWater(row scanner) (*models.WaterSession, error) {
	var session models.WaterSession
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Amount,
		&session.Date,
		&session.Time,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *HealthRepository) GetByDate(ctx context.Context, userID int64, date string) (*models.HealthMetrics, error) {
	query := `SELECT ` + metricsColumns + ` FROM health_metrics_history WHERE user_id = $1 AND date = $2::text::date`
	return scanMetrics(r.db.QueryRow(ctx, query, userID, date))
}

func (r *HealthRepository) Latest(ctx context.Context, userID int64) (*models.HealthMetrics, error) {
	query := `SELECT ` + metricsColumns + ` FROM health_metrics_history WHERE user_id = $1 ORDER BY date DESC LIMIT 1`
	return scanMetrics(r.db.QueryRow(ctx, query, userID))
}

func (r *HealthRepository) UpsertSteps(ctx context.Context, userID int64, date, clock string, steps int) (*models.HealthMetrics, error) {
	query := `
		INSERT INTO health_metrics_history (user_id, date, time, steps)
		VALUES ($1, $2::text::date, $3::text::time, $4)
		ON CONFLICT (user_id, date)
		DO UPDATE SET steps = EXCLUDED.steps, time = EXCLUDED.time
		RETURNING ` + metricsColumns
	return scanMetrics(r.db.QueryRow(ctx, query, userID, date, clock, steps))
}

func (r *HealthRepository) UpsertHeartRate(ctx context.Context, userID int64, date, clock string, heartRate int) (*models.HealthMetrics, error) {
	query := `
		INSERT INTO health_metrics_history (user_id, date, time, heart_rate)
		VALUES ($1, $2::text::date, $3::text::time, $4)
		ON CONFLICT (user_id, date)
		DO UPDATE SET heart_rate = EXCLUDED.heart_rate, time = EXCLUDED.time
		RETURNING ` + metricsColumns
	return scanMetrics(r.db.QueryRow(ctx, query, userID, date, clock, heartRate))
}

// SyncWaterIntake sets the day's water_intake to the sum of that day's water
// sessions in one statement.
func (r *HealthRepository) SyncWaterIntake(ctx context.Context, userID int64, date, clock string) (*models.HealthMetrics, error) {
	query := `
		INSERT INTO health_metrics_history (user_id, date, time, water_intake)
		VALUES (
			$1, $2::text::date, $3::text::time,
			(SELECT COALESCE(SUM(amount), 0) FROM water_sessions WHERE user_id = $1 AND date = $2::text::date)
		)
		ON CONFLICT (user_id, date)
		DO UPDATE SET water_intake = EXCLUDED.water_intake, time = EXCLUDED.time
		RETURNING ` + metricsColumns
	return scanMetrics(r.db.QueryRow(ctx, query, userID, date, clock))
}

func (r *HealthRepository) ListHistory(ctx context.Context, userID int64) ([]models.HealthMetrics, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+metricsColumns+`
		FROM health_metrics_history
		WHERE user_id = $1
		ORDER BY date DESC, time DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]models.HealthMetrics, 0)
	for rows.Next() {
		metrics, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, *metrics)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return history, nil
}

func (r *HealthRepository) CreateWaterSession(ctx context.Context, userID int64, amount float64, date, clock string) (*models.WaterSession, error) {
	query := `
		INSERT INTO water_sessions (user_id, amount, date, time)
		VALUES ($1, $2, $3::text::date, $4::text::time)
		RETURNING ` + waterColumns
	return scanWater(r.db.QueryRow(ctx, query, userID, amount, date, clock))
}

func (r *HealthRepository) ListWaterSessions(ctx context.Context, userID int64, date string) ([]models.WaterSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+waterColumns+`
		FROM water_sessions
		WHERE user_id = $1 AND date = $2::text::date
		ORDER BY time DESC, id DESC
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.WaterSession, 0)
	for rows.Next() {
		session, err := scanWater(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}
