package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type stubHealthService struct {
	metrics     *models.HealthMetrics
	water       *models.WaterSession
	user        *models.User
	err         error
	lastAmount  float64
	lastSteps   int
	lastBMI     services.BMIInput
	lastDate    *string
	waterCalled bool
}

func (s *stubHealthService) Today(_ context.Context, _ access.Requester) (*models.HealthMetrics, error) {
	return s.metrics, s.err
}

func (s *stubHealthService) RecordWater(_ context.Context, _ access.Requester, amount float64) (*models.WaterSession, *models.HealthMetrics, error) {
	s.waterCalled = true
	s.lastAmount = amount
	return s.water, s.metrics, s.err
}

func (s *stubHealthService) SetSteps(_ context.Context, _ access.Requester, steps int) (*models.HealthMetrics, error) {
	s.lastSteps = steps
	return s.metrics, s.err
}

func (s *stubHealthService) SetHeartRate(_ context.Context, _ access.Requester, _ int) (*models.HealthMetrics, error) {
	return s.metrics, s.err
}

func (s *stubHealthService) UpdateBMI(_ context.Context, _ access.Requester, input services.BMIInput) (*models.User, error) {
	s.lastBMI = input
	return s.user, s.err
}

func (s *stubHealthService) History(_ context.Context, _ access.Requester, _ *int64) ([]models.HealthMetrics, error) {
	return nil, s.err
}

func (s *stubHealthService) ListWater(_ context.Context, _ access.Requester, date *string) ([]models.WaterSession, error) {
	s.lastDate = date
	return []models.WaterSession{}, s.err
}

func TestAddWaterReturnsDayTotals(t *testing.T) {
	service := &stubHealthService{
		water:   &models.WaterSession{ID: 5, Amount: 0.5},
		metrics: &models.HealthMetrics{ID: 1, UserID: 42, WaterIntake: 2.0},
	}
	handler := NewHealthHandler(service)

	app := newRequesterApp("user", 42)
	app.Post("/api/health-metrics/water", handler.AddWater)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/health-metrics/water", `{"amount": 0.5}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastAmount != 0.5 {
		t.Fatalf("expected amount 0.5, got %v", service.lastAmount)
	}

	var metrics models.HealthMetrics
	decodeBody(t, resp, &metrics)
	if metrics.WaterIntake != 2.0 {
		t.Fatalf("expected water intake 2.0, got %v", metrics.WaterIntake)
	}
}

func TestWaterRejectsNonPositiveAmount(t *testing.T) {
	for _, body := range []string{`{}`, `{"amount": 0}`, `{"amount": -1}`} {
		service := &stubHealthService{}
		handler := NewHealthHandler(service)

		app := newRequesterApp("user", 42)
		app.Post("/api/water-sessions", handler.CreateWater)

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/water-sessions", body))
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
		if service.waterCalled {
			t.Fatalf("body %s: service should not be called", body)
		}
	}
}

func TestCreateWaterReturnsSession(t *testing.T) {
	service := &stubHealthService{
		water:   &models.WaterSession{ID: 5, UserID: 42, Amount: 0.25},
		metrics: &models.HealthMetrics{ID: 1},
	}
	handler := NewHealthHandler(service)

	app := newRequesterApp("user", 42)
	app.Post("/api/water-sessions", handler.CreateWater)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/water-sessions", `{"amount": 0.25}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var session models.WaterSession
	decodeBody(t, resp, &session)
	if session.ID != 5 {
		t.Fatalf("expected session 5, got %+v", session)
	}
}

func TestSetStepsRequiresField(t *testing.T) {
	handler := NewHealthHandler(&stubHealthService{})

	app := newRequesterApp("user", 42)
	app.Post("/api/health-metrics/steps", handler.SetSteps)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/health-metrics/steps", `{}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateBMIWithoutBody(t *testing.T) {
	height, weight, bmi := 175.0, 70.0, 22.86
	service := &stubHealthService{user: &models.User{Height: &height, Weight: &weight, BMI: &bmi}}
	handler := NewHealthHandler(service)

	app := newRequesterApp("user", 42)
	app.Post("/api/health-metrics/bmi", handler.UpdateBMI)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/health-metrics/bmi", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastBMI.Height != nil || service.lastBMI.Weight != nil {
		t.Fatalf("expected stored values to be used, got %+v", service.lastBMI)
	}

	var body map[string]float64
	decodeBody(t, resp, &body)
	if body["bmi"] != 22.86 {
		t.Fatalf("expected bmi 22.86, got %v", body["bmi"])
	}
}

func TestListWaterForwardsDate(t *testing.T) {
	service := &stubHealthService{}
	handler := NewHealthHandler(service)

	app := newRequesterApp("user", 42)
	app.Get("/api/water-sessions", handler.ListWater)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/water-sessions?date=2024-05-01", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastDate == nil || *service.lastDate != "2024-05-01" {
		t.Fatalf("expected date filter, got %v", service.lastDate)
	}
}
