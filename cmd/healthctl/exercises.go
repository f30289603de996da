package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

var (
	exerciseName        string
	exerciseDescription string
	exerciseDuration    int
	exerciseCalories    int
	exerciseReps        int
)

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "Manage the shared exercise catalog",
}

var exercisesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List catalog exercises",
	RunE: func(cmd *cobra.Command, args []string) error {
		exercises, err := repository.NewExerciseRepository(pool).ListCatalog(cmd.Context())
		if err != nil {
			return fmt.Errorf("list exercises: %w", err)
		}
		if len(exercises) == 0 {
			fmt.Println("Catalog is empty.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, exercise := range exercises {
			fmt.Printf("%s %s %3d min %4d kcal\n",
				faint.Sprintf("%6d", exercise.ID),
				padRight(exercise.Name, 28),
				exercise.Duration,
				exercise.CaloriesBurned,
			)
		}
		return nil
	},
}

var exercisesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a catalog exercise",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exerciseName == "" {
			return errors.New("--name is required")
		}
		if exerciseDuration < 0 || exerciseCalories < 0 {
			return errors.New("duration and calories must be >= 0")
		}

		input := repository.CreateExerciseInput{
			Name:           exerciseName,
			Description:    exerciseDescription,
			Duration:       exerciseDuration,
			CaloriesBurned: exerciseCalories,
		}
		if exerciseReps > 0 {
			input.Repetitions = &exerciseReps
		}

		exercise, err := repository.NewExerciseRepository(pool).Create(cmd.Context(), input)
		if err != nil {
			return fmt.Errorf("add exercise: %w", err)
		}
		color.Green("created exercise %d (%s)", exercise.ID, exercise.Name)
		return nil
	},
}

func init() {
	exercisesAddCmd.Flags().StringVar(&exerciseName, "name", "", "exercise name")
	exercisesAddCmd.Flags().StringVar(&exerciseDescription, "description", "", "short description")
	exercisesAddCmd.Flags().IntVar(&exerciseDuration, "duration", 0, "duration in minutes")
	exercisesAddCmd.Flags().IntVar(&exerciseCalories, "calories", 0, "calories burned over the full duration")
	exercisesAddCmd.Flags().IntVar(&exerciseReps, "reps", 0, "repetitions")

	exercisesCmd.AddCommand(exercisesListCmd, exercisesAddCmd)
}
