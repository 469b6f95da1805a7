package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pokevault/auctioneer/internal/clock"
	"github.com/pokevault/auctioneer/internal/health"
)

func testClock() *clock.Mock {
	return clock.NewMock(time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC))
}

func TestLiveness(t *testing.T) {
	clk := testClock()
	h := health.NewHandler(clk)
	clk.Advance(90 * time.Second)

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	var rep health.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.Status != "ok" {
		t.Errorf("got status %q, want ok", rep.Status)
	}
	if rep.Uptime != "1m30s" {
		t.Errorf("got uptime %q, want 1m30s", rep.Uptime)
	}
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		checks     []health.Check
		wantCode   int
		wantStatus string
	}{
		{
			name:       "not ready",
			ready:      false,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
		},
		{
			name:       "ready without checks",
			ready:      true,
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:  "ready and ledger reachable",
			ready: true,
			checks: []health.Check{
				{Name: "ledger", Probe: func(ctx context.Context) error { return nil }},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:  "ready but ledger failing",
			ready: true,
			checks: []health.Check{
				{Name: "ledger", Probe: func(ctx context.Context) error { return errors.New("disk full") }},
				{Name: "discord", Probe: func(ctx context.Context) error { return nil }},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := health.NewHandler(testClock(), tt.checks...)
			h.SetReady(tt.ready)

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rec.Code, tt.wantCode)
			}
			var rep health.Report
			if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
				t.Fatal(err)
			}
			if rep.Status != tt.wantStatus {
				t.Errorf("got status %q, want %q", rep.Status, tt.wantStatus)
			}
		})
	}
}
