package repository

import (
	"context"
	"time"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

type OTPRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) *OTPRepository {
	return &OTPRepository{db: db}
}

func (r *OTPRepository) Create(ctx context.Context, email, code string, createdAt time.Time) (*models.PasswordResetOTP, error) {
	otp := models.PasswordResetOTP{Email: email, Code: code}
	err := r.db.QueryRow(ctx, `
		INSERT INTO password_reset_otps (email, code, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, is_used
	`, email, code, createdAt).Scan(&otp.ID, &otp.CreatedAt, &otp.IsUsed)
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// LatestUnused locks the newest unused row matching email and code.
func (r *OTPRepository) LatestUnused(ctx context.Context, email, code string) (*models.PasswordResetOTP, error) {
	var otp models.PasswordResetOTP
	err := r.db.QueryRow(ctx, `
		SELECT id, email, code, created_at, is_used
		FROM password_reset_otps
		WHERE email = $1 AND code = $2 AND is_used = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`, email, code).Scan(&otp.ID, &otp.Email, &otp.Code, &otp.CreatedAt, &otp.IsUsed)
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *OTPRepository) MarkUsed(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE password_reset_otps SET is_used = TRUE WHERE id = $1 AND is_used = FALSE
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNoRows
	}
	return nil
}

// InvalidateOutstanding marks every unused code for the email as used.
func (r *OTPRepository) InvalidateOutstanding(ctx context.Context, email string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE password_reset_otps SET is_used = TRUE WHERE email = $1 AND is_used = FALSE
	`, email)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *OTPRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM password_reset_otps WHERE created_at < $1 OR is_used = TRUE
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
