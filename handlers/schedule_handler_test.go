package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/wuwenbin0122/guild-recruit/db/models"
)

type fakeSchedule struct {
	nights []models.RaidNight
	err    error
}

func (f *fakeSchedule) List(context.Context) ([]models.RaidNight, error) {
	return f.nights, f.err
}

func setupScheduleRouter(fake *fakeSchedule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewScheduleHandler(fake, nil).RegisterRoutes(router)
	return router
}

func TestGetSchedule(t *testing.T) {
	router := setupScheduleRouter(&fakeSchedule{nights: []models.RaidNight{
		{ID: 1, Day: "Wednesday", TimeSlot: "7:30 PM - 10:30 PM", RaidType: "Main Raid", Note: "Progression"},
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	night := resp.Data[0]
	if night["day"] != "Wednesday" || night["time"] != "7:30 PM - 10:30 PM" || night["type"] != "Main Raid" || night["note"] != "Progression" {
		t.Fatalf("unexpected raid night: %v", night)
	}
}

func TestGetScheduleStorageError(t *testing.T) {
	router := setupScheduleRouter(&fakeSchedule{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}
