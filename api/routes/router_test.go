package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kaiub/surplus-backend/api/controllers"
	"github.com/kaiub/surplus-backend/internal/listings"
	"github.com/kaiub/surplus-backend/internal/matching"
	"github.com/kaiub/surplus-backend/internal/notify"
	"github.com/kaiub/surplus-backend/pkg/config"
	"github.com/kaiub/surplus-backend/pkg/db/models"
	"github.com/kaiub/surplus-backend/pkg/enums"
	"github.com/kaiub/surplus-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubListingsService struct{}

func (stubListingsService) Create(context.Context, listings.CreateInput) (*models.SurplusListing, error) {
	return &models.SurplusListing{}, nil
}

func (stubListingsService) Claim(context.Context, uuid.UUID, uuid.UUID) (*models.SurplusListing, error) {
	return &models.SurplusListing{}, nil
}

func (stubListingsService) List(context.Context, listings.ListParams) (*listings.ListResult, error) {
	return &listings.ListResult{}, nil
}

type stubMatchingService struct{}

func (stubMatchingService) GenerateMatches(context.Context, uuid.UUID) (*matching.Summary, error) {
	return &matching.Summary{}, nil
}

func (stubMatchingService) ListKitchenMatches(context.Context, matching.ListMatchesParams) (*matching.MatchList, error) {
	return &matching.MatchList{}, nil
}

type stubNotifyService struct{}

func (stubNotifyService) Notify(context.Context, uuid.UUID, uuid.UUID, enums.NotificationEvent) (*notify.Result, error) {
	return &notify.Result{Status: notify.StatusSent}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		nil,
		map[string]controllers.Pinger{"db": stubPinger{}},
		prometheus.NewRegistry(),
		stubListingsService{},
		stubMatchingService{},
		stubNotifyService{},
	)
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: unexpected status %d: %s", path, resp.Code, resp.Body.String())
		}
		if resp.Header().Get("X-Kaiub-Env") != "test" {
			t.Fatalf("%s: missing env header", path)
		}
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestRouterListMatchesWired(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matches?kitchen_id="+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}

	var envelope struct {
		Data matching.MatchList `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}
