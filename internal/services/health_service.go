package services

import (
	"context"
	"errors"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

const (
	minHeartRate = 20
	maxHeartRate = 250
)

type HealthService struct {
	db         Database
	userRepo   *repository.UserRepository
	healthRepo *repository.HealthRepository
	clock      Clock
}

func NewHealthService(db Database, clock Clock) *HealthService {
	return &HealthService{
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		healthRepo: repository.NewHealthRepository(db),
		clock:      clock,
	}
}

type BMIInput struct {
	Height *float64
	Weight *float64
}

// Today returns the requester's row for the current local day, or an unsaved
// zero row when nothing was recorded yet.
func (s *HealthService) Today(ctx context.Context, requester access.Requester) (*models.HealthMetrics, error) {
	today := s.clock.today()
	metrics, err := s.healthRepo.GetByDate(ctx, requester.ID, today)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.HealthMetrics{UserID: requester.ID, Date: today, Time: s.clock.clock()}, nil
		}
		return nil, err
	}
	return metrics, nil
}

// RecordWater stores a water session for today and re-sums the day into the
// history row within one transaction.
func (s *HealthService) RecordWater(
	ctx context.Context,
	requester access.Requester,
	amount float64,
) (*models.WaterSession, *models.HealthMetrics, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, nil, &ValidationError{Fields: map[string]string{"amount": "Amount must be greater than 0."}}
	}

	date, clock := s.clock.today(), s.clock.clock()

	var session *models.WaterSession
	var metrics *models.HealthMetrics
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		txHealthRepo := repository.NewHealthRepository(tx)

		var err error
		session, err = txHealthRepo.CreateWaterSession(ctx, requester.ID, amount, date, clock)
		if err != nil {
			return err
		}
		metrics, err = txHealthRepo.SyncWaterIntake(ctx, requester.ID, date, clock)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return session, metrics, nil
}

func (s *HealthService) SetSteps(ctx context.Context, requester access.Requester, steps int) (*models.HealthMetrics, error) {
	if steps < 0 {
		return nil, &ValidationError{Fields: map[string]string{"steps": "Ensure this value is greater than or equal to 0."}}
	}
	return s.healthRepo.UpsertSteps(ctx, requester.ID, s.clock.today(), s.clock.clock(), steps)
}

func (s *HealthService) SetHeartRate(ctx context.Context, requester access.Requester, heartRate int) (*models.HealthMetrics, error) {
	if heartRate < minHeartRate || heartRate > maxHeartRate {
		return nil, &ValidationError{Fields: map[string]string{"heart_rate": "Heart rate must be between 20 and 250."}}
	}
	return s.healthRepo.UpsertHeartRate(ctx, requester.ID, s.clock.today(), s.clock.clock(), heartRate)
}

// UpdateBMI optionally stores new measurements, then recomputes the BMI from
// whatever height and weight the user has.
func (s *HealthService) UpdateBMI(ctx context.Context, requester access.Requester, input BMIInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, requester.ID)
	if err != nil {
		return nil, err
	}

	height, weight := user.Height, user.Weight
	if input.Height != nil {
		height = input.Height
	}
	if input.Weight != nil {
		weight = input.Weight
	}

	bmi, ok := computeBMI(height, weight)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"bmi": "Height and weight are required to compute BMI."}}
	}

	return s.userRepo.UpdateBMI(ctx, user.ID, *height, *weight, bmi)
}

func (s *HealthService) History(
	ctx context.Context,
	requester access.Requester,
	target *int64,
) ([]models.HealthMetrics, error) {
	userID, err := resolveClient(ctx, s.userRepo, requester, target)
	if err != nil {
		return nil, err
	}
	return s.healthRepo.ListHistory(ctx, userID)
}

func (s *HealthService) ListWater(
	ctx context.Context,
	requester access.Requester,
	date *string,
) ([]models.WaterSession, error) {
	day := s.clock.today()
	if date != nil {
		normalized, ok := normalizeDate(*date)
		if !ok {
			return nil, &ValidationError{Fields: map[string]string{"date": "Date has wrong format. Use YYYY-MM-DD."}}
		}
		day = normalized
	}
	return s.healthRepo.ListWaterSessions(ctx, requester.ID, day)
}

// computeBMI returns weight / (height in meters)^2 rounded to two decimals.
func computeBMI(heightCM, weightKG *float64) (float64, bool) {
	if heightCM == nil || weightKG == nil || *heightCM <= 0 || *weightKG <= 0 {
		return 0, false
	}
	meters := *heightCM / 100
	return math.Round(*weightKG/(meters*meters)*100) / 100, true
}
