package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const scheduleColumns = `id, user_id, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS'), created_at`

type ScheduleRepository struct {
	db DBTX
}

func NewScheduleRepository(db DBTX) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func scanSchedule(row scanner) (*models.TrainingSchedule, error) {
	var schedule models.TrainingSchedule
	if err := row.Scan(
		&schedule.ID,
		&schedule.UserID,
		&schedule.Date,
		&schedule.Time,
		&schedule.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *ScheduleRepository) Create(ctx context.Context, userID int64, date, clock string) (*models.TrainingSchedule, error) {
	query := `
		INSERT INTO training_schedules (user_id, date, time)
		VALUES ($1, $2::text::date, $3::text::time)
		RETURNING ` + scheduleColumns
	return scanSchedule(r.db.QueryRow(ctx, query, userID, date, clock))
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*models.TrainingSchedule, error) {
	return scanSchedule(r.db.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM training_schedules WHERE id = $1`, id))
}

func (r *ScheduleRepository) ListByUser(ctx context.Context, userID int64) ([]models.TrainingSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM training_schedules
		WHERE user_id = $1
		ORDER BY date DESC, time DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]models.TrainingSchedule, 0)
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// Update changes the date and/or time; nil keeps the current value.
func (r *ScheduleRepository) Update(ctx context.Context, id int64, date, clock *string) (*models.TrainingSchedule, error) {
	query := `
		UPDATE training_schedules
		SET date = COALESCE($2::text::date, date),
		    time = COALESCE($3::text::time, time)
		WHERE id = $1
		RETURNING ` + scheduleColumns
	return scanSchedule(r.db.QueryRow(ctx, query, id, date, clock))
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM training_schedules WHERE id = $1`, id)
}
