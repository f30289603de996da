package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const exerciseColumns = `id, name, description, duration, calories_burned, repetitions,
	image_url, is_custom, created_by, created_at, updated_at`

type ExerciseRepository struct {
	db DBTX
}

func NewExerciseRepository(db DBTX) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

type CreateExerciseInput struct {
	Name           string
	Description    string
	Duration       int
	CaloriesBurned int
	Repetitions    *int
	ImageURL       *string
	IsCustom       bool
	CreatedBy      *int64
}

type UpdateExerciseInput struct {
	Name           *string
	Description    *string
	Duration       *int
	CaloriesBurned *int
	Repetitions    *int
	ImageURL       *string
}

func scanExercise(row scanner) (*models.Exercise, error) {
	var exercise models.Exercise
	if err := row.Scan(
		&exercise.ID,
		&exercise.Name,
		&exercise.Description,
		&exercise.Duration,
		&exercise.CaloriesBurned,
		&exercise.Repetitions,
		&exercise.ImageURL,
		&exercise.IsCustom,
		&exercise.CreatedBy,
		&exercise.CreatedAt,
		&exercise.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *ExerciseRepository) Create(ctx context.Context, input CreateExerciseInput) (*models.Exercise, error) {
	query := `
		INSERT INTO exercises (name, description, duration, calories_burned, repetitions, image_url, is_custom, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + exerciseColumns
	return scanExercise(r.db.QueryRow(
		ctx,
		query,
		input.Name,
		input.Description,
		input.Duration,
		input.CaloriesBurned,
		input.Repetitions,
		input.ImageURL,
		input.IsCustom,
		input.CreatedBy,
	))
}

func (r *ExerciseRepository) GetByID(ctx context.Context, id int64) (*models.Exercise, error) {
	return scanExercise(r.db.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
}

// ListVisible returns the catalog plus the viewer's own custom exercises.
func (r *ExerciseRepository) ListVisible(ctx context.Context, viewerID int64, customOnly bool) ([]models.Exercise, error) {
	query := `
		SELECT ` + exerciseColumns + `
		FROM exercises
		WHERE (is_custom = FALSE AND $2 = FALSE) OR (is_custom = TRUE AND created_by = $1)
		ORDER BY is_custom, name, id
	`
	return r.list(ctx, query, viewerID, customOnly)
}

func (r *ExerciseRepository) ListCatalog(ctx context.Context) ([]models.Exercise, error) {
	return r.list(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE is_custom = FALSE ORDER BY name, id`)
}

func (r *ExerciseRepository) Update(ctx context.Context, id int64, input UpdateExerciseInput) (*models.Exercise, error) {
	query := `
		UPDATE exercises
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    duration = COALESCE($4, duration),
		    calories_burned = COALESCE($5, calories_burned),
		    repetitions = COALESCE($6, repetitions),
		    image_url = COALESCE($7, image_url),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + exerciseColumns
	return scanExercise(r.db.QueryRow(
		ctx,
		query,
		id,
		input.Name,
		input.Description,
		input.Duration,
		input.CaloriesBurned,
		input.Repetitions,
		input.ImageURL,
	))
}

func (r *ExerciseRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM exercises WHERE id = $1`, id)
}

func (r *ExerciseRepository) list(ctx context.Context, query string, args ...any) ([]models.Exercise, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]models.Exercise, 0)
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *exercise)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}
