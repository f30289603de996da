package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const journalColumns = `id, user_id, workout_session_id, to_char(date, 'YYYY-MM-DD'), content, created_at`

type JournalRepository struct {
	db DBTX
}

func NewJournalRepository(db DBTX) *JournalRepository {
	return &JournalRepository{db: db}
}

func scanJournal(row scanner) (*models.HealthJournal, error) {
	var journal models.HealthJournal
	if err := row.Scan(
		&journal.ID,
		&journal.UserID,
		&journal.WorkoutSessionID,
		&journal.Date,
		&journal.Content,
		&journal.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &journal, nil
}

func (r *JournalRepository) Create(ctx context.Context, userID int64, workoutSessionID *int64, date, content string) (*models.HealthJournal, error) {
	query := `
		INSERT INTO health_journals (user_id, workout_session_id, date, content)
		VALUES ($1, $2, $3::text::date, $4)
		RETURNING ` + journalColumns
	return scanJournal(r.db.QueryRow(ctx, query, userID, workoutSessionID, date, content))
}

func (r *JournalRepository) GetByID(ctx context.Context, id int64) (*models.HealthJournal, error) {
	return scanJournal(r.db.QueryRow(ctx, `SELECT `+journalColumns+` FROM health_journals WHERE id = $1`, id))
}

func (r *JournalRepository) ListByUser(ctx context.Context, userID int64) ([]models.HealthJournal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+journalColumns+`
		FROM health_journals
		WHERE user_id = $1
		ORDER BY date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	journals := make([]models.HealthJournal, 0)
	for rows.Next() {
		journal, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, *journal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return journals, nil
}

func (r *JournalRepository) UpdateContent(ctx context.Context, id int64, content string) (*models.HealthJournal, error) {
	query := `UPDATE health_journals SET content = $2 WHERE id = $1 RETURNING ` + journalColumns
	return scanJournal(r.db.QueryRow(ctx, query, id, content))
}

func (r *JournalRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM health_journals WHERE id = $1`, id)
}
