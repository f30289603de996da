package repository

import (
	"context"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

const reminderColumns = `id, user_id, reminder_type, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI:SS'),
	message, repeat_days, enabled, created_at`

type ReminderRepository struct {
	db DBTX
}

func NewReminderRepository(db DBTX) *ReminderRepository {
	return &ReminderRepository{db: db}
}

type CreateReminderInput struct {
	UserID       int64
	ReminderType string
	Date         *string
	Time         string
	Message      string
	RepeatDays   []string
	Enabled      bool
}

type UpdateReminderInput struct {
	ReminderType *string
	Date         *string
	Time         *string
	Message      *string
	RepeatDays   []string
	Enabled      *bool
}

func scanReminder(row scanner) (*models.Reminder, error) {
	var reminder models.Reminder
	if err := row.Scan(
		&reminder.ID,
		&reminder.UserID,
		&reminder.ReminderType,
		&reminder.Date,
		&reminder.Time,
		&reminder.Message,
		&reminder.RepeatDays,
		&reminder.Enabled,
		&reminder.CreatedAt,
	); err != nil {
		return nil, err
	}
	if reminder.RepeatDays == nil {
		reminder.RepeatDays = []string{}
	}
	return &reminder, nil
}

func (r *ReminderRepository) Create(ctx context.Context, input CreateReminderInput) (*models.Reminder, error) {
	repeatDays := input.RepeatDays
	if repeatDays == nil {
		repeatDays = []string{}
	}
	query := `
		INSERT INTO reminders (user_id, reminder_type, date, time, message, repeat_days, enabled)
		VALUES ($1, $2, $3::text::date, $4::text::time, $5, $6, $7)
		RETURNING ` + reminderColumns
	return scanReminder(r.db.QueryRow(
		ctx,
		query,
		input.UserID,
		input.ReminderType,
		input.Date,
		input.Time,
		input.Message,
		repeatDays,
		input.Enabled,
	))
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	return scanReminder(r.db.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id))
}

func (r *ReminderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Reminder, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE user_id = $1
		ORDER BY time, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := make([]models.Reminder, 0)
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reminders, nil
}

func (r *ReminderRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reminders WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// Update applies a partial change. A nil RepeatDays keeps the stored list.
func (r *ReminderRepository) Update(ctx context.Context, id int64, input UpdateReminderInput) (*models.Reminder, error) {
	query := `
		UPDATE reminders
		SET reminder_type = COALESCE($2, reminder_type),
		    date = COALESCE($3::text::date, date),
		    time = COALESCE($4::text::time, time),
		    message = COALESCE($5, message),
		    repeat_days = COALESCE($6, repeat_days),
		    enabled = COALESCE($7, enabled)
		WHERE id = $1
		RETURNING ` + reminderColumns
	return scanReminder(r.db.QueryRow(
		ctx,
		query,
		id,
		input.ReminderType,
		input.Date,
		input.Time,
		input.Message,
		input.RepeatDays,
		input.Enabled,
	))
}

func (r *ReminderRepository) Delete(ctx context.Context, id int64) error {
	return deleteOne(ctx, r.db, `DELETE FROM reminders WHERE id = $1`, id)
}
