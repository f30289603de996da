package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

const (
	StatisticsWeek  = "week"
	StatisticsMonth = "month"
	StatisticsYear  = "year"
)

type StatisticsService struct {
	userRepo         *repository.UserRepository
	workoutRepo      *repository.WorkoutRepository
	sessionRepo      *repository.TrainingSessionRepository
	healthRepo       *repository.HealthRepository
	clock            Clock
	weekStartsSunday bool
}

func NewStatisticsService(db Database, clock Clock, weekStartsSunday bool) *StatisticsService {
	return &StatisticsService{
		userRepo:         repository.NewUserRepository(db),
		workoutRepo:      repository.NewWorkoutRepository(db),
		sessionRepo:      repository.NewTrainingSessionRepository(db),
		healthRepo:       repository.NewHealthRepository(db),
		clock:            clock,
		weekStartsSunday: weekStartsSunday,
	}
}

func (s *StatisticsService) TrainingStatistics(
	ctx context.Context,
	requester access.Requester,
	mode string,
	target *int64,
) (*models.TrainingStatistics, error) {
	if !validStatisticsMode(mode) {
		return nil, &ValidationError{Fields: map[string]string{"mode": "Mode must be week, month or year."}}
	}

	userID, err := resolveClient(ctx, s.userRepo, requester, target)
	if err != nil {
		return nil, err
	}

	workouts, err := s.workoutRepo.ListCompletedForStatistics(ctx, userID)
	if err != nil {
		return nil, err
	}

	series, err := BuildStatisticsSeries(mode, s.clock.now(), s.weekStartsSunday, workouts)
	if err != nil {
		return nil, err
	}

	return &models.TrainingStatistics{UserID: userID, Mode: mode, Series: series}, nil
}

// UserStatistics summarizes training sessions scheduled in the last 7, 30
// and 365 days alongside the latest metrics row.
func (s *StatisticsService) UserStatistics(
	ctx context.Context,
	requester access.Requester,
	userID int64,
) (*models.UserStatistics, error) {
	clientID, err := resolveClient(ctx, s.userRepo, requester, &userID)
	if err != nil {
		return nil, err
	}

	stats := &models.UserStatistics{}

	latest, err := s.healthRepo.Latest(ctx, clientID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	stats.Profile = latest

	now := s.clock.now()
	periods := []struct {
		days   int
		target *models.PeriodSummary
	}{
		{7, &stats.Week},
		{30, &stats.Month},
		{365, &stats.Year},
	}
	for _, period := range periods {
		summary, err := s.sessionRepo.SummarySince(ctx, clientID, periodStart(now, period.days))
		if err != nil {
			return nil, err
		}
		*period.target = summary
	}

	return stats, nil
}

func validStatisticsMode(mode string) bool {
	return mode == StatisticsWeek || mode == StatisticsMonth || mode == StatisticsYear
}

// BuildStatisticsSeries buckets completed workouts by the local date of their
// start time. now carries the location used for bucketing. It does not
// mutate its input.
func BuildStatisticsSeries(
	mode string,
	now time.Time,
	weekStartsSunday bool,
	workouts []repository.CompletedWorkout,
) ([]models.StatisticsBucket, error) {
	loc := now.Location()

	switch mode {
	case StatisticsWeek:
		start := startOfWeek(now, weekStartsSunday)
		buckets := make([]models.StatisticsBucket, 7)
		for i := range buckets {
			day := start.AddDate(0, 0, i)
			buckets[i] = models.StatisticsBucket{
				Label: day.Weekday().String()[:3],
				Date:  day.Format("02/01"),
			}
		}
		for _, workout := range workouts {
			local := workout.StartTime.In(loc)
			day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
			index := daysBetween(start, day)
			if index >= 0 && index < 7 {
				addToBucket(&buckets[index], workout)
			}
		}
		return buckets, nil

	case StatisticsMonth:
		buckets := make([]models.StatisticsBucket, 12)
		for i := range buckets {
			buckets[i] = models.StatisticsBucket{Label: fmt.Sprintf("%02d/%d", i+1, now.Year())}
		}
		for _, workout := range workouts {
			local := workout.StartTime.In(loc)
			if local.Year() == now.Year() {
				addToBucket(&buckets[int(local.Month())-1], workout)
			}
		}
		return buckets, nil

	case StatisticsYear:
		byYear := make(map[int]*models.StatisticsBucket)
		for _, workout := range workouts {
			year := workout.StartTime.In(loc).Year()
			bucket, ok := byYear[year]
			if !ok {
				bucket = &models.StatisticsBucket{Label: fmt.Sprintf("%d", year)}
				byYear[year] = bucket
			}
			addToBucket(bucket, workout)
		}

		years := make([]int, 0, len(byYear))
		for year := range byYear {
			years = append(years, year)
		}
		sort.Ints(years)

		buckets := make([]models.StatisticsBucket, 0, len(years))
		for _, year := range years {
			buckets = append(buckets, *byYear[year])
		}
		return buckets, nil

	default:
		return nil, ErrInvalidInput
	}
}

func startOfWeek(now time.Time, weekStartsSunday bool) time.Time {
	offset := int(now.Weekday())
	if !weekStartsSunday {
		offset = (offset + 6) % 7
	}
	day := now.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}

// daysBetween counts calendar days, so DST shifts do not skew the index.
func daysBetween(from, to time.Time) int {
	fromUTC := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toUTC := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toUTC.Sub(fromUTC).Hours() / 24)
}

func addToBucket(bucket *models.StatisticsBucket, workout repository.CompletedWorkout) {
	bucket.SessionCount++
	bucket.TotalCalories += workout.TotalCalories
}

// periodStart is the first schedule date counted for a trailing window of
// days. The window includes both that date and today.
func periodStart(now time.Time, days int) string {
	return now.AddDate(0, 0, -days).Format(dateLayout)
}
