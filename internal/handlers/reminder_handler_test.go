package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type stubReminderService struct {
	result    *models.Reminder
	err       error
	lastInput services.ReminderInput
}

func (s *stubReminderService) List(_ context.Context, _ access.Requester) ([]models.Reminder, error) {
	return nil, s.err
}

func (s *stubReminderService) Create(_ context.Context, _ access.Requester, input services.ReminderInput) (*models.Reminder, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubReminderService) CreateFlexible(_ context.Context, _ access.Requester, input services.ReminderInput) (*models.Reminder, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubReminderService) Get(_ context.Context, _ access.Requester, _ int64) (*models.Reminder, error) {
	return s.result, s.err
}

func (s *stubReminderService) Update(_ context.Context, _ access.Requester, _ int64, input services.ReminderInput) (*models.Reminder, error) {
	s.lastInput = input
	return s.result, s.err
}

func (s *stubReminderService) Delete(_ context.Context, _ access.Requester, _ int64) error {
	return s.err
}

func TestCreateFlexibleReminderReturnsID(t *testing.T) {
	service := &stubReminderService{result: &models.Reminder{ID: 12, ReminderType: "water", Time: "08:30:00"}}
	handler := NewReminderHandler(service)

	app := newRequesterApp("user", 42)
	app.Post("/api/reminders/flexible", handler.CreateFlexible)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/reminders/flexible", `{
		"reminder_type": "water",
		"time": "08:30",
		"message": "Drink",
		"repeat_days": ["Mon", "wed"]
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if len(service.lastInput.RepeatDays) != 2 || service.lastInput.Time == nil || *service.lastInput.Time != "08:30" {
		t.Fatalf("unexpected forwarded input %+v", service.lastInput)
	}

	var body struct {
		Detail     string `json:"detail"`
		ReminderID int64  `json:"reminder_id"`
	}
	decodeBody(t, resp, &body)
	if body.ReminderID != 12 || body.Detail != "Reminder created." {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCreateFlexibleReminderMissingFields(t *testing.T) {
	handler := NewReminderHandler(&stubReminderService{err: services.ErrInvalidInput})

	app := newRequesterApp("user", 42)
	app.Post("/api/reminders/flexible", handler.CreateFlexible)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/reminders/flexible", `{"message":"Drink"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["detail"] != "Missing required fields." {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCreateReminderReturnsFieldErrors(t *testing.T) {
	verr := &services.ValidationError{Fields: map[string]string{"repeat_days": "Invalid day: Funday."}}
	handler := NewReminderHandler(&stubReminderService{err: verr})

	app := newRequesterApp("user", 42)
	app.Post("/api/reminders", handler.Create)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/reminders", `{"reminder_type":"water","time":"08:30","message":"x","repeat_days":["Funday"]}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, resp, &body)
	if body.Errors["repeat_days"] == "" {
		t.Fatalf("expected repeat_days error, got %+v", body.Errors)
	}
}

func TestDeleteReminderMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusNoContent},
		{name: "not owner", err: services.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewReminderHandler(&stubReminderService{err: tt.err})

			app := newRequesterApp("user", 42)
			app.Delete("/api/reminders/:id", handler.Delete)

			resp, err := app.Test(jsonRequest(http.MethodDelete, "/api/reminders/3", ""))
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
