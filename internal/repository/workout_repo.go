package repository

import (
	"context"
	"time"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const workoutColumns = `id, user_id, start_time, end_time, total_calories, is_completed`

type WorkoutRepository struct {
	db DBTX
}

func NewWorkoutRepository(db DBTX) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

type CreateWorkoutExerciseInput struct {
	WorkoutSessionID int64
	ExerciseID       int64
	Duration         int
	CaloriesBurned   int
}

// CompletedWorkout is the slice of a finished session the statistics need.
type CompletedWorkout struct {
	StartTime     time.Time
	TotalCalories int
}

func scanWorkout(row scanner) (*models.WorkoutSession, error) {
	var session models.WorkoutSession
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.StartTime,
		&session.EndTime,
		&session.TotalCalories,
		&session.IsCompleted,
	); err != nil {
		return nil, err
	}
	session.Exercises = []models.WorkoutExercise{}
	return &session, nil
}

func (r *WorkoutRepository) Create(ctx context.Context, userID int64, startTime time.Time) (*models.WorkoutSession, error) {
	query := `
		INSERT INTO workout_sessions (user_id, start_time)
		VALUES ($1, $2)
		RETURNING ` + workoutColumns
	return scanWorkout(r.db.QueryRow(ctx, query, userID, startTime))
}

func (r *WorkoutRepository) GetByID(ctx context.Context, id int64) (*models.WorkoutSession, error) {
	return scanWorkout(r.db.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workout_sessions WHERE id = $1`, id))
}

// GetByIDForUpdate locks the session row for the rest of the transaction.
func (r *WorkoutRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.WorkoutSession, error) {
	return scanWorkout(r.db.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workout_sessions WHERE id = $1 FOR UPDATE`, id))
}

func (r *WorkoutRepository) ListByUser(ctx context.Context, userID int64) ([]models.WorkoutSession, error) {
	return r.list(ctx, `
		SELECT `+workoutColumns+`
		FROM workout_sessions
		WHERE user_id = $1
		ORDER BY start_time DESC, id DESC
	`, userID)
}

func (r *WorkoutRepository) ListCompleted(ctx context.Context, userID int64, limit, offset int) ([]models.WorkoutSession, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM workout_sessions WHERE user_id = $1 AND is_completed = TRUE
	`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	sessions, err := r.list(ctx, `
		SELECT `+workoutColumns+`
		FROM workout_sessions
		WHERE user_id = $1 AND is_completed = TRUE
		ORDER BY start_time DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

func (r *WorkoutRepository) ListCompletedForStatistics(ctx context.Context, userID int64) ([]CompletedWorkout, error) {
	rows, err := r.db.Query(ctx, `
		SELECT start_time, total_calories
		FROM workout_sessions
		WHERE user_id = $1 AND is_completed = TRUE
		ORDER BY start_time
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]CompletedWorkout, 0)
	for rows.Next() {
		var workout CompletedWorkout
		if err := rows.Scan(&workout.StartTime, &workout.TotalCalories); err != nil {
			return nil, err
		}
		workouts = append(workouts, workout)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *WorkoutRepository) AddExercise(ctx context.Context, input CreateWorkoutExerciseInput) (*models.WorkoutExercise, error) {
	var item models.WorkoutExercise
	err := r.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO workout_exercises (workout_session_id, exercise_id, duration, calories_burned)
			VALUES ($1, $2, $3, $4)
			RETURNING id, workout_session_id, exercise_id, duration, calories_burned, completed_at
		)
		SELECT i.id, i.workout_session_id, i.exercise_id, COALESCE(e.name, 'Unknown Exercise'), e.image_url,
		       i.duration, i.calories_burned, i.completed_at
		FROM inserted i
		LEFT JOIN exercises e ON e.id = i.exercise_id
	`,
		input.WorkoutSessionID,
		input.ExerciseID,
		input.Duration,
		input.CaloriesBurned,
	).Scan(
		&item.ID,
		&item.WorkoutSessionID,
		&item.ExerciseID,
		&item.ExerciseName,
		&item.ExerciseImage,
		&item.Duration,
		&item.CaloriesBurned,
		&item.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *WorkoutRepository) AddCalories(ctx context.Context, id int64, calories int) (*models.WorkoutSession, error) {
	query := `
		UPDATE workout_sessions
		SET total_calories = total_calories + $2
		WHERE id = $1 AND is_completed = FALSE
		RETURNING ` + workoutColumns
	return scanWorkout(r.db.QueryRow(ctx, query, id, calories))
}

// Complete marks an open session finished; a completed session yields no rows.
func (r *WorkoutRepository) Complete(ctx context.Context, id int64, endTime time.Time) (*models.WorkoutSession, error) {
	query := `
		UPDATE workout_sessions
		SET end_time = $2, is_completed = TRUE
		WHERE id = $1 AND is_completed = FALSE
		RETURNING ` + workoutColumns
	return scanWorkout(r.db.QueryRow(ctx, query, id, endTime))
}

func (r *WorkoutRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM workout_sessions WHERE id = $1`, id)
}

// ListExercises returns the completed exercises grouped by session id.
func (r *WorkoutRepository) ListExercises(ctx context.Context, sessionIDs []int64) (map[int64][]models.WorkoutExercise, error) {
	result := make(map[int64][]models.WorkoutExercise, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT we.id, we.workout_session_id, we.exercise_id, COALESCE(e.name, 'Unknown Exercise'), e.image_url,
		       we.duration, we.calories_burned, we.completed_at
		FROM workout_exercises we
		LEFT JOIN exercises e ON e.id = we.exercise_id
		WHERE we.workout_session_id = ANY($1)
		ORDER BY we.completed_at, we.id
	`, sessionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.WorkoutExercise
		if err := rows.Scan(
			&item.ID,
			&item.WorkoutSessionID,
			&item.ExerciseID,
			&item.ExerciseName,
			&item.ExerciseImage,
			&item.Duration,
			&item.CaloriesBurned,
			&item.CompletedAt,
		); err != nil {
			return nil, err
		}
		result[item.WorkoutSessionID] = append(result[item.WorkoutSessionID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *WorkoutRepository) list(ctx context.Context, query string, args ...any) ([]models.WorkoutSession, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.WorkoutSession, 0)
	for rows.Next() {
		session, err := scanWorkout(rows)
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
