package services

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

type ExerciseService struct {
	exerciseRepo   *repository.ExerciseRepository
	storageService StorageService
}

func NewExerciseService(db Database, storageService StorageService) *ExerciseService {
	return &ExerciseService{
		exerciseRepo:   repository.NewExerciseRepository(db),
		storageService: storageService,
	}
}

type CreateExerciseInput struct {
	Name           string
	Description    string
	Duration       int
	CaloriesBurned int
	Repetitions    *int
	IsCustom       *bool
	Image          *ImageUpload
}

type UpdateExerciseInput struct {
	Name           *string
	Description    *string
	Duration       *int
	CaloriesBurned *int
	Repetitions    *int
	Image          *ImageUpload
}

func (s *ExerciseService) List(ctx context.Context, requester access.Requester, customOnly bool) ([]models.Exercise, error) {
	return s.exerciseRepo.ListVisible(ctx, requester.ID, customOnly)
}

func (s *ExerciseService) Get(ctx context.Context, requester access.Requester, id int64) (*models.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exerciseVisibleTo(exercise, requester) {
		return nil, pgx.ErrNoRows
	}
	return exercise, nil
}

// Create stores a custom entry for regular users. Experts may add catalog
// entries by passing is_custom=false.
func (s *ExerciseService) Create(
	ctx context.Context,
	requester access.Requester,
	input CreateExerciseInput,
) (*models.Exercise, error) {
	name := strings.TrimSpace(input.Name)

	verr := newValidationError()
	if name == "" {
		verr.add("name", "This field is required.")
	}
	validateExerciseNumbers(verr, &input.Duration, &input.CaloriesBurned, input.Repetitions)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	isCustom := true
	if requester.IsExpert() && input.IsCustom != nil {
		isCustom = *input.IsCustom
	}

	var createdBy *int64
	if isCustom {
		createdBy = &requester.ID
	}

	imageURL, err := uploadImage(ctx, s.storageService, input.Image, folderExercises)
	if err != nil {
		return nil, err
	}

	exercise, err := s.exerciseRepo.Create(ctx, repository.CreateExerciseInput{
		Name:           name,
		Description:    strings.TrimSpace(input.Description),
		Duration:       input.Duration,
		CaloriesBurned: input.CaloriesBurned,
		Repetitions:    input.Repetitions,
		ImageURL:       imageURL,
		IsCustom:       isCustom,
		CreatedBy:      createdBy,
	})
	if err != nil {
		return nil, discardImage(ctx, s.storageService, imageURL, err)
	}

	return exercise, nil
}

func (s *ExerciseService) Update(
	ctx context.Context,
	requester access.Requester,
	id int64,
	input UpdateExerciseInput,
) (*models.Exercise, error) {
	exercise, err := s.modifiable(ctx, requester, id)
	if err != nil {
		return nil, err
	}

	verr := newValidationError()
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			verr.add("name", "This field may not be blank.")
		}
		input.Name = &trimmed
	}
	validateExerciseNumbers(verr, input.Duration, input.CaloriesBurned, input.Repetitions)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	imageURL, err := uploadImage(ctx, s.storageService, input.Image, folderExercises)
	if err != nil {
		return nil, err
	}

	updated, err := s.exerciseRepo.Update(ctx, id, repository.UpdateExerciseInput{
		Name:           input.Name,
		Description:    input.Description,
		Duration:       input.Duration,
		CaloriesBurned: input.CaloriesBurned,
		Repetitions:    input.Repetitions,
		ImageURL:       imageURL,
	})
	if err != nil {
		return nil, discardImage(ctx, s.storageService, imageURL, err)
	}

	replaceImage(ctx, s.storageService, exercise.ImageURL, imageURL)
	return updated, nil
}

func (s *ExerciseService) Delete(ctx context.Context, requester access.Requester, id int64) error {
	exercise, err := s.modifiable(ctx, requester, id)
	if err != nil {
		return err
	}
	if err := s.exerciseRepo.Delete(ctx, id); err != nil {
		return err
	}

	removeImage(ctx, s.storageService, exercise.ImageURL)
	return nil
}

func (s *ExerciseService) modifiable(ctx context.Context, requester access.Requester, id int64) (*models.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModifyExercise(exercise, requester) {
		return nil, ErrForbidden
	}
	return exercise, nil
}

func exerciseVisibleTo(exercise *models.Exercise, requester access.Requester) bool {
	if !exercise.IsCustom {
		return true
	}
	return exercise.CreatedBy != nil && *exercise.CreatedBy == requester.ID
}

// canModifyExercise: a custom entry belongs to its creator, the catalog to experts.
func canModifyExercise(exercise *models.Exercise, requester access.Requester) bool {
	if exercise.IsCustom {
		return exercise.CreatedBy != nil && *exercise.CreatedBy == requester.ID
	}
	return requester.IsExpert()
}

func validateExerciseNumbers(verr *ValidationError, duration, calories, repetitions *int) {
	if duration != nil && *duration < 0 {
		verr.add("duration", "Ensure this value is greater than or equal to 0.")
	}
	if calories != nil && *calories < 0 {
		verr.add("calories_burned", "Ensure this value is greater than or equal to 0.")
	}
	if repetitions != nil && *repetitions < 0 {
		verr.add("repetitions", "Ensure this value is greater than or equal to 0.")
	}
}
