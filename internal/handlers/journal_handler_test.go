package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type stubJournalService struct {
	createErr  error
	lastInput  services.JournalInput
	getErr     error
	lastUserID int64
}

func (s *stubJournalService) List(context.Context, access.Requester) ([]models.HealthJournal, error) {
	return []models.HealthJournal{}, nil
}

func (s *stubJournalService) ListForUser(_ context.Context, _ access.Requester, userID int64) ([]models.HealthJournal, error) {
	s.lastUserID = userID
	return []models.HealthJournal{{ID: 1, UserID: userID, Content: "Slept well"}}, nil
}

func (s *stubJournalService) Create(_ context.Context, requester access.Requester, input services.JournalInput) (*models.HealthJournal, error) {
	s.lastInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &models.HealthJournal{ID: 5, UserID: requester.ID, Content: input.Content, WorkoutSessionID: input.WorkoutSessionID}, nil
}

func (s *stubJournalService) Get(context.Context, access.Requester, int64) (*models.HealthJournal, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &models.HealthJournal{ID: 5}, nil
}

func (s *stubJournalService) Update(_ context.Context, _ access.Requester, id int64, content string) (*models.HealthJournal, error) {
	return &models.HealthJournal{ID: id, Content: content}, nil
}

func (s *stubJournalService) Delete(context.Context, access.Requester, int64) error {
	return nil
}

func TestCreateJournalLinksWorkout(t *testing.T) {
	service := &stubJournalService{}
	handler := NewJournalHandler(service)

	app := newRequesterApp(access.RoleUser, 3)
	app.Post("/api/journals", handler.Create)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/journals", `{"content":"Legs sore after squats","workout_session_id":21}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastInput.WorkoutSessionID == nil || *service.lastInput.WorkoutSessionID != 21 {
		t.Fatalf("expected workout 21, got %v", service.lastInput.WorkoutSessionID)
	}

	var body models.HealthJournal
	decodeBody(t, resp, &body)
	if body.Content != "Legs sore after squats" {
		t.Fatalf("unexpected content %q", body.Content)
	}
}

func TestCreateJournalForeignWorkout(t *testing.T) {
	handler := NewJournalHandler(&stubJournalService{createErr: services.ErrForbidden})

	app := newRequesterApp(access.RoleUser, 3)
	app.Post("/api/journals", handler.Create)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/journals", `{"content":"x","workout_session_id":99}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestListClientJournals(t *testing.T) {
	service := &stubJournalService{}
	handler := NewJournalHandler(service)

	app := newRequesterApp(access.RoleExpert, 2)
	app.Get("/api/users/:id/journals", handler.ListForUser)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/users/3/journals", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastUserID != 3 {
		t.Fatalf("expected user 3, got %d", service.lastUserID)
	}
}

func TestGetJournalNotFound(t *testing.T) {
	handler := NewJournalHandler(&stubJournalService{getErr: pgx.ErrNoRows})

	app := newRequesterApp(access.RoleUser, 3)
	app.Get("/api/journals/:id", handler.Get)

	resp, err := app.Test(jsonRequest(http.MethodGet, "/api/journals/77", ""))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
