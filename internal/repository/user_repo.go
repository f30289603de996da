package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, role, height, weight, age,
	health_goal, bmi, expert_id, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

type UpdateUserInput struct {
	Username   *string
	Height     *float64
	Weight     *float64
	Age        *int
	HealthGoal *string
}

func scanUser(row scanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Height,
		&user.Weight,
		&user.Age,
		&user.HealthGoal,
		&user.BMI,
		&user.ExpertID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, height, weight, age, health_goal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Height,
		user.Weight,
		user.Age,
		user.HealthGoal,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByLogin matches either the username or the email.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = LOWER($1) LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, login))
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

func (r *UserRepository) Update(ctx context.Context, userID int64, input UpdateUserInput) (*models.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    height = COALESCE($3, height),
		    weight = COALESCE($4, weight),
		    age = COALESCE($5, age),
		    health_goal = COALESCE($6, health_goal),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(
		ctx,
		query,
		userID,
		input.Username,
		input.Height,
		input.Weight,
		input.Age,
		input.HealthGoal,
	))
}

func (r *UserRepository) UpdateBMI(ctx context.Context, userID int64, height, weight, bmi float64) (*models.User, error) {
	query := `
		UPDATE users
		SET height = $2, weight = $3, bmi = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, userID, height, weight, bmi))
}

func (r *UserRepository) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *UserRepository) SetRole(ctx context.Context, userID int64, role string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
	`, userID, role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetExpert links (or with nil unlinks) a client to an expert.
func (r *UserRepository) SetExpert(ctx context.Context, userID int64, expertID *int64) (*models.User, error) {
	query := `
		UPDATE users SET expert_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, userID, expertID))
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM users WHERE id = $1`, userID)
}

func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY username`, role)
}

func (r *UserRepository) ListClients(ctx context.Context, expertID int64) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE expert_id = $1 ORDER BY username`, expertID)
}

func (r *UserRepository) ListAll(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
