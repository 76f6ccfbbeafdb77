package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNewHealthHandler(t *testing.T) {
	handler := NewHealthHandler()

	if handler == nil {
		t.Fatal("NewHealthHandler() returned nil")
	}
}

func TestHealthHandler_LivenessProbe(t *testing.T) {
	handler := NewHealthHandler(Check{Name: "database", Ping: func(context.Context) error {
		return errors.New("down")
	}})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/health/live", nil)

	handler.LivenessProbe(c)

	if w.Code != http.StatusOK {
		t.Errorf("LivenessProbe() status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("LivenessProbe() returned invalid JSON: %v", err)
	}
	if body["status"] != "UP" {
		t.Errorf("LivenessProbe() status field = %v, want UP", body["status"])
	}
}

func TestHealthHandler_ReadinessProbe(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     []Check
		wantStatus int
		wantField  string
		wantValue  string
	}{
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantField:  "status",
			wantValue:  "UP",
		},
		{
			name:       "all healthy",
			checks:     []Check{{Name: "database", Ping: ok}, {Name: "redis", Ping: ok}},
			wantStatus: http.StatusOK,
			wantField:  "redis",
			wantValue:  "healthy",
		},
		{
			name:       "database down",
			checks:     []Check{{Name: "database", Ping: fail}, {Name: "redis", Ping: ok}},
			wantStatus: http.StatusServiceUnavailable,
			wantField:  "database",
			wantValue:  "unhealthy",
		},
		{
			name:       "rabbitmq down",
			checks:     []Check{{Name: "database", Ping: ok}, {Name: "rabbitmq", Ping: fail}},
			wantStatus: http.StatusServiceUnavailable,
			wantField:  "status",
			wantValue:  "DOWN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.checks...)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/health/ready", nil)

			handler.ReadinessProbe(c)

			if w.Code != tt.wantStatus {
				t.Errorf("ReadinessProbe() status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("ReadinessProbe() returned invalid JSON: %v", err)
			}
			if body[tt.wantField] != tt.wantValue {
				t.Errorf("ReadinessProbe() %s = %v, want %s", tt.wantField, body[tt.wantField], tt.wantValue)
			}
		})
	}
}

func TestHealthHandler_ReadinessStopsAtFirstFailure(t *testing.T) {
	called := false
	handler := NewHealthHandler(
		Check{Name: "database", Ping: func(context.Context) error { return errors.New("down") }},
		Check{Name: "redis", Ping: func(context.Context) error {
			called = true
			return nil
		}},
	)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/health/ready", nil)

	handler.ReadinessProbe(c)

	if called {
		t.Error("ReadinessProbe() ran checks after the first failure")
	}
}
