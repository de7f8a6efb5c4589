package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/Dragonxt022/Express-Services-sub000/internal/config"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

func TestSetupMetricsExposesSchedulingFamilies(t *testing.T) {
	handler, m := setupMetrics()
	if handler == nil || m == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	m.ObserveAvailability("ok", 0.01)
	m.ObserveWrite("create", "ok")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "express_schedule_availability_queries_total") {
		t.Fatalf("expected availability counter to be exported")
	}
	if !strings.Contains(body, "express_schedule_writes_total") {
		t.Fatalf("expected calendar write counter to be exported")
	}
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	if pool := connectPostgresPool(context.Background(), "", logger); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestConnectRedisEmptyAddrReturnsNil(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{}
	if client := connectRedis(context.Background(), cfg, logger); client != nil {
		t.Fatalf("expected nil client for empty addr")
	}
}

func TestSetupDirectoryFallsBackToMemory(t *testing.T) {
	logger := logging.New("error")
	if dir := setupDirectory(&appconfig.Config{}, http.DefaultClient, logger); dir == nil {
		t.Fatalf("expected in-memory directory")
	}
}
