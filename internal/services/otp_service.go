package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/metrics"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/pkg/utils"
)

const OTPValidity = 10 * time.Minute

type OTPService struct {
	db                 Database
	mailer             Mailer
	metrics            *metrics.Manager
	invalidatePrevious bool
	now                func() time.Time
	generate           func() (string, error)
}

func NewOTPService(db Database, mailer Mailer, metricsManager *metrics.Manager, invalidatePrevious bool) *OTPService {
	return &OTPService{
		db:                 db,
		mailer:             mailer,
		metrics:            metricsManager,
		invalidatePrevious: invalidatePrevious,
		now:                time.Now,
		generate:           utils.GenerateOTPCode,
	}
}

// SendOTP issues a new code for email and mails it. Earlier unused codes stay
// valid until they expire unless the service was built to supersede them.
func (s *OTPService) SendOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrInvalidInput
	}

	code, err := s.generate()
	if err != nil {
		return err
	}

	err = withTx(ctx, s.db, func(tx pgx.Tx) error {
		otpRepo := repository.NewOTPRepository(tx)
		if s.invalidatePrevious {
			superseded, err := otpRepo.InvalidateOutstanding(ctx, email)
			if err != nil {
				return err
			}
			if superseded > 0 {
				log.WithField("superseded", superseded).Debug("invalidated previous otp codes")
			}
		}
		_, err := otpRepo.Create(ctx, email, code, s.now())
		return err
	})
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Your password reset code is: %s\nIt expires in %d minutes.", code, int(OTPValidity.Minutes()))
	if err := s.mailer.Send(ctx, email, "Password reset code", body); err != nil {
		log.WithError(err).Error("failed to send otp email")
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.metrics.IncOTPSent()
	return nil
}

func (s *OTPService) ConfirmOTP(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" || newPassword == "" {
		return ErrInvalidInput
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		otpRepo := repository.NewOTPRepository(tx)
		userRepo := repository.NewUserRepository(tx)

		otp, err := otpRepo.LatestUnused(ctx, email, code)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidCode
			}
			return err
		}
		if s.now().Sub(otp.CreatedAt) > OTPValidity {
			return ErrCodeExpired
		}

		user, err := userRepo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if err := userRepo.SetPassword(ctx, user.ID, hash); err != nil {
			return err
		}
		if err := otpRepo.MarkUsed(ctx, otp.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInvalidCode
			}
			return err
		}
		return nil
	})
}

// PurgeExpired deletes used codes and codes older than the validity window.
func (s *OTPService) PurgeExpired(ctx context.Context) (int64, error) {
	return repository.NewOTPRepository(s.db).PurgeBefore(ctx, s.now().Add(-OTPValidity))
}
