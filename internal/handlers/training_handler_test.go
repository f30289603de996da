package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type stubTrainingService struct {
	createErr      error
	lastCreate     services.CreateTrainingSessionInput
	feedbackErr    error
	lastFeedbackID int64
	lastFeedback   string
	lastTarget     *int64
}

func (s *stubTrainingService) ListSchedules(_ context.Context, _ access.Requester, target *int64) ([]models.TrainingSchedule, error) {
	s.lastTarget = target
	return []models.TrainingSchedule{{ID: 1, Date: "2026-10-12", Time: "07:30:00"}}, nil
}

func (s *stubTrainingService) CreateSchedule(_ context.Context, requester access.Requester, input services.ScheduleInput) (*models.TrainingSchedule, error) {
	return &models.TrainingSchedule{ID: 1, UserID: requester.ID}, nil
}

func (s *stubTrainingService) GetSchedule(context.Context, access.Requester, int64) (*models.TrainingSchedule, error) {
	return &models.TrainingSchedule{ID: 1}, nil
}

func (s *stubTrainingService) UpdateSchedule(context.Context, access.Requester, int64, services.ScheduleInput) (*models.TrainingSchedule, error) {
	return &models.TrainingSchedule{ID: 1}, nil
}

func (s *stubTrainingService) DeleteSchedule(context.Context, access.Requester, int64) error {
	return nil
}

func (s *stubTrainingService) ListSessions(context.Context, access.Requester, *int64, *int64) ([]models.TrainingSession, error) {
	return []models.TrainingSession{}, nil
}

func (s *stubTrainingService) CreateSession(_ context.Context, _ access.Requester, input services.CreateTrainingSessionInput) (*models.TrainingSession, error) {
	s.lastCreate = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.TrainingSession{ID: 30, ScheduleID: input.ScheduleID, CustomExerciseName: input.CustomExerciseName}, nil
}

func (s *stubTrainingService) GetSession(context.Context, access.Requester, int64) (*models.TrainingSession, error) {
	return &models.TrainingSession{ID: 30}, nil
}

func (s *stubTrainingService) UpdateSession(context.Context, access.Requester, int64, services.UpdateTrainingSessionInput) (*models.TrainingSession, error) {
	return &models.TrainingSession{ID: 30}, nil
}

func (s *stubTrainingService) AddFeedback(_ context.Context, _ access.Requester, id int64, feedback string) (*models.TrainingSession, error) {
	s.lastFeedbackID = id
	s.lastFeedback = feedback
	if s.feedbackErr != nil {
		return nil, s.feedbackErr
	}
	return &models.TrainingSession{ID: id, Feedback: &feedback}, nil
}

func (s *stubTrainingService) DeleteSession(context.Context, access.Requester, int64) error {
	return nil
}

func TestCreateTrainingSessionWithCustomName(t *testing.T) {
	service := &stubTrainingService{}
	handler := NewTrainingHandler(service)

	app := newRequesterApp(access.RoleUser, 4)
	app.Post("/api/training-sessions", handler.CreateSession)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/training-sessions", `{
		"schedule_id": 12,
		"custom_exercise_name": "Hill sprints",
		"repetitions": 8
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastCreate.ScheduleID != 12 {
		t.Fatalf("expected schedule 12, got %d", service.lastCreate.ScheduleID)
	}
	if service.lastCreate.CustomExerciseName == nil || *service.lastCreate.CustomExerciseName != "Hill sprints" {
		t.Fatalf("unexpected custom name %v", service.lastCreate.CustomExerciseName)
	}
	if service.lastCreate.Image != nil {
		t.Fatalf("expected no image for a JSON request")
	}
}

func TestCreateTrainingSessionErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "missing exercise", err: &services.ValidationError{Fields: map[string]string{"exercise": "Provide exercise_id or custom_exercise_name."}}, wantStatus: http.StatusBadRequest},
		{name: "foreign schedule", err: services.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "no storage", err: services.ErrStorageUnavailable, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTrainingHandler(&stubTrainingService{createErr: tt.err})

			app := newRequesterApp(access.RoleUser, 4)
			app.Post("/api/training-sessions", handler.CreateSession)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/training-sessions", `{"schedule_id": 99}`))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}

func TestAddFeedbackForwardsText(t *testing.T) {
	service := &stubTrainingService{}
	handler := NewTrainingHandler(service)

	app := newRequesterApp(access.RoleUser, 4)
	app.Post("/api/training-sessions/:id/add_feedback", handler.AddFeedback)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/training-sessions/30/add_feedback", `{"feedback":"Knees felt fine"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastFeedbackID != 30 || service.lastFeedback != "Knees felt fine" {
		t.Fatalf("unexpected forwarded feedback %d %q", service.lastFeedbackID, service.lastFeedback)
	}
}

func TestAddFeedbackOwnerOnly(t *testing.T) {
	handler := NewTrainingHandler(&stubTrainingService{feedbackErr: services.ErrForbidden})

	app := newRequesterApp(access.RoleExpert, 2)
	app.Post("/api/training-sessions/:id/add_feedback", handler.AddFeedback)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/training-sessions/30/add_feedback", `{"feedback":"Good form"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestListSchedulesForClient(t *testing.T) {
	service := &stubTrainingService{}
	handler := NewTrainingHandler(service)

	app := newRequesterApp(access.RoleExpert, 2)
	app.Get("/api/training-schedules", handler.ListSchedules)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/training-schedules?user_id=4", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastTarget == nil || *service.lastTarget != 4 {
		t.Fatalf("expected client 4, got %v", service.lastTarget)
	}

	var body []models.TrainingSchedule
	decodeBody(t, resp, &body)
	if len(body) != 1 || body[0].Time != "07:30:00" {
		t.Fatalf("unexpected schedules %+v", body)
	}
}
