package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/pkg/utils"
)

var (
	seedUsers    int
	seedPassword string
	seedValue    int64
)

var seedGoals = []string{
	"muscle gain",
	"weight loss",
	"maintain health",
	"tăng cơ",
	"giảm cân",
}

var seedCatalog = []repository.CreateExerciseInput{
	{Name: "Push-ups", Description: "Bodyweight chest press", Duration: 10, CaloriesBurned: 70},
	{Name: "Squats", Description: "Bodyweight squats", Duration: 10, CaloriesBurned: 80},
	{Name: "Plank", Description: "Core hold", Duration: 5, CaloriesBurned: 30},
	{Name: "Jogging", Description: "Easy outdoor run", Duration: 30, CaloriesBurned: 300},
	{Name: "Cycling", Description: "Stationary bike", Duration: 45, CaloriesBurned: 400},
}

type seedProfile struct {
	Username string
	Email    string
	Height   float64
	Weight   float64
	Age      int
	Goal     string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo accounts and activity",
	Long: `seed creates one expert and --users regular accounts linked to it.
Each account gets water sessions for today and one completed workout.
The catalog is filled with a few exercises when it is empty.
All accounts share --password.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedUsers <= 0 {
			return fmt.Errorf("--users must be positive")
		}
		if seedValue == 0 {
			seedValue = time.Now().UnixNano()
		}
		return runSeed(cmd.Context(), gofakeit.New(seedValue))
	},
}

func init() {
	seedCmd.Flags().IntVarP(&seedUsers, "users", "n", 10, "number of regular users to create")
	seedCmd.Flags().StringVar(&seedPassword, "password", "Password123!", "password for every seeded account")
	seedCmd.Flags().Int64Var(&seedValue, "seed", 0, "random seed (defaults to the current time)")
}

func runSeed(ctx context.Context, faker *gofakeit.Faker) error {
	hash, err := utils.HashPassword(seedPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userRepo := repository.NewUserRepository(pool)
	exerciseRepo := repository.NewExerciseRepository(pool)

	catalog, err := exerciseRepo.ListCatalog(ctx)
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	if len(catalog) == 0 {
		for _, input := range seedCatalog {
			exercise, err := exerciseRepo.Create(ctx, input)
			if err != nil {
				return fmt.Errorf("seed exercise %s: %w", input.Name, err)
			}
			catalog = append(catalog, *exercise)
		}
	}

	expert := newSeedUser(fakeProfile(faker), access.RoleExpert, hash)
	if err := userRepo.CreateUser(ctx, expert); err != nil {
		return fmt.Errorf("create expert: %w", err)
	}
	color.Cyan("expert %d %s", expert.ID, expert.Email)

	clock := services.NewClock(time.Local)
	health := services.NewHealthService(pool, clock)
	workouts := services.NewWorkoutService(pool, nil, clock)

	for i := 0; i < seedUsers; i++ {
		user := newSeedUser(fakeProfile(faker), access.RoleUser, hash)
		if err := userRepo.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := userRepo.SetExpert(ctx, user.ID, &expert.ID); err != nil {
			return fmt.Errorf("link user %d: %w", user.ID, err)
		}

		requester := access.Requester{ID: user.ID, Role: access.RoleUser}
		for j := 0; j < faker.IntRange(1, 4); j++ {
			amount := float64(faker.IntRange(1, 4)) * 0.25
			if _, _, err := health.RecordWater(ctx, requester, amount); err != nil {
				return fmt.Errorf("record water for %d: %w", user.ID, err)
			}
		}

		session, err := workouts.Start(ctx, requester)
		if err != nil {
			return fmt.Errorf("start workout for %d: %w", user.ID, err)
		}
		exercise := catalog[faker.IntRange(0, len(catalog)-1)]
		if _, err := workouts.CompleteExercise(ctx, requester, session.ID, services.CompleteExerciseInput{
			ExerciseID: exercise.ID,
			Duration:   faker.IntRange(60, 1800),
		}); err != nil {
			return fmt.Errorf("complete exercise for %d: %w", user.ID, err)
		}
		if _, err := workouts.CompleteWorkout(ctx, requester, session.ID); err != nil {
			return fmt.Errorf("complete workout for %d: %w", user.ID, err)
		}

		fmt.Println(formatUserRow(*user))
	}

	color.Green("seeded %d users linked to expert %d", seedUsers, expert.ID)
	return nil
}

// fakeProfile draws a plausible adult profile. Usernames carry a numeric
// suffix so repeated runs rarely collide.
func fakeProfile(faker *gofakeit.Faker) seedProfile {
	username := strings.ToLower(faker.Username()) + fmt.Sprint(faker.IntRange(100, 9999))
	return seedProfile{
		Username: username,
		Email:    username + "@example.com",
		Height:   float64(faker.IntRange(150, 195)),
		Weight:   float64(faker.IntRange(45, 110)),
		Age:      faker.IntRange(18, 70),
		Goal:     seedGoals[faker.IntRange(0, len(seedGoals)-1)],
	}
}

func newSeedUser(profile seedProfile, role, passwordHash string) *models.User {
	return &models.User{
		Username:     profile.Username,
		Email:        profile.Email,
		PasswordHash: passwordHash,
		Role:         role,
		Height:       &profile.Height,
		Weight:       &profile.Weight,
		Age:          &profile.Age,
		HealthGoal:   &profile.Goal,
	}
}
