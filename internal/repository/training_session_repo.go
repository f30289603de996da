package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const trainingSessionSelect = `
	SELECT ts.id, ts.schedule_id, ts.exercise_id, e.name, ts.custom_exercise_name,
	       ts.repetitions, ts.duration, ts.feedback, ts.image_url, ts.created_at, s.user_id
	FROM training_sessions ts
	JOIN training_schedules s ON s.id = ts.schedule_id
	LEFT JOIN exercises e ON e.id = ts.exercise_id
`

type TrainingSessionRepository struct {
	db DBTX
}

func NewTrainingSessionRepository(db DBTX) *TrainingSessionRepository {
	return &TrainingSessionRepository{db: db}
}

type CreateTrainingSessionInput struct {
	ScheduleID         int64
	ExerciseID         *int64
	CustomExerciseName *string
	Repetitions        *int
	Duration           *int
	ImageURL           *string
}

type UpdateTrainingSessionInput struct {
	ExerciseID         *int64
	CustomExerciseName *string
	Repetitions        *int
	Duration           *int
	Feedback           *string
	ImageURL           *string
}

func scanTrainingSession(row scanner) (*models.TrainingSession, error) {
	var session models.TrainingSession
	if err := row.Scan(
		&session.ID,
		&session.ScheduleID,
		&session.ExerciseID,
		&session.ExerciseName,
		&session.CustomExerciseName,
		&session.Repetitions,
		&session.Duration,
		&session.Feedback,
		&session.ImageURL,
		&session.CreatedAt,
		&session.OwnerID,
	); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *TrainingSessionRepository) Create(ctx context.Context, input CreateTrainingSessionInput) (*models.TrainingSession, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO training_sessions (schedule_id, exercise_id, custom_exercise_name, repetitions, duration, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		input.ScheduleID,
		input.ExerciseID,
		input.CustomExerciseName,
		input.Repetitions,
		input.Duration,
		input.ImageURL,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *TrainingSessionRepository) GetByID(ctx context.Context, id int64) (*models.TrainingSession, error) {
	return scanTrainingSession(r.db.QueryRow(ctx, trainingSessionSelect+` WHERE ts.id = $1`, id))
}

func (r *TrainingSessionRepository) ListByUser(ctx context.Context, userID int64, scheduleID *int64) ([]models.TrainingSession, error) {
	query := trainingSessionSelect + `
		WHERE s.user_id = $1 AND ($2::bigint IS NULL OR ts.schedule_id = $2)
		ORDER BY s.date DESC, s.time DESC, ts.id DESC
	`
	rows, err := r.db.Query(ctx, query, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.TrainingSession, 0)
	for rows.Next() {
		session, err := scanTrainingSession(rows)
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

func (r *TrainingSessionRepository) Update(ctx context.Context, id int64, input UpdateTrainingSessionInput) (*models.TrainingSession, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE training_sessions
		SET exercise_id = COALESCE($2, exercise_id),
		    custom_exercise_name = COALESCE($3, custom_exercise_name),
		    repetitions = COALESCE($4, repetitions),
		    duration = COALESCE($5, duration),
		    feedback = COALESCE($6, feedback),
		    image_url = COALESCE($7, image_url)
		WHERE id = $1
	`,
		id,
		input.ExerciseID,
		input.CustomExerciseName,
		input.Repetitions,
		input.Duration,
		input.Feedback,
		input.ImageURL,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, errNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *TrainingSessionRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM training_sessions WHERE id = $1`, id)
}

// SummarySince counts sessions scheduled on or after since (YYYY-MM-DD) and
// sums the catalog calories of their exercises.
func (r *TrainingSessionRepository) SummarySince(ctx context.Context, userID int64, since string) (models.PeriodSummary, error) {
	var summary models.PeriodSummary
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(ts.id), COALESCE(SUM(e.calories_burned), 0)
		FROM training_sessions ts
		JOIN training_schedules s ON s.id = ts.schedule_id
		LEFT JOIN exercises e ON e.id = ts.exercise_id
		WHERE s.user_id = $1 AND s.date >= $2::text::date
	`, userID, since).Scan(&summary.TotalSessions, &summary.TotalCalories)
	return summary, err
}
