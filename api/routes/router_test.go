package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/orderflow-backend/internal/notifications"
	"github.com/angelmondragon/orderflow-backend/pkg/auth"
	"github.com/angelmondragon/orderflow-backend/pkg/config"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubNotifications struct {
	lastUser uuid.UUID
}

func (s *stubNotifications) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	s.lastUser = params.UserID
	return &notifications.ListResult{}, nil
}

func (s *stubNotifications) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (s *stubNotifications) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0", LogLevel: "error"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "orderflow", ExpirationMinutes: 5},
		RateLimit: config.RateLimitConfig{
			CheckoutWindow: time.Minute,
			CheckoutLimit:  5,
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
}

func tokenFor(t *testing.T, cfg *config.Config, userID uuid.UUID, role enums.Role) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: userID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testLogger(), Deps{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testLogger(), Deps{DB: stubPinger{err: errors.New("down")}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "router_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	router := NewRouter(cfg, testLogger(), Deps{Gatherer: reg})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if body := resp.Body.String(); !containsLine(body, "router_test_total 1") {
		t.Fatalf("expected counter in metrics output, got %q", body)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testLogger(), Deps{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/user/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testLogger(), Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/stats", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, uuid.New(), enums.RoleUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestUserRoutesRejectAdmins(t *testing.T) {
	cfg := testConfig()
	router := NewRouter(cfg, testLogger(), Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/cart/count", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, uuid.New(), enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestNotificationsOpenToAnyRole(t *testing.T) {
	cfg := testConfig()
	svc := &stubNotifications{}
	router := NewRouter(cfg, testLogger(), Deps{Notifications: svc})

	adminID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, cfg, adminID, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastUser != adminID {
		t.Fatalf("expected list scoped to %s got %s", adminID, svc.lastUser)
	}

	var envelope map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := envelope["data"]; !ok {
		t.Fatalf("expected data envelope, got %v", envelope)
	}
}

func containsLine(body, want string) bool {
	for _, line := range strings.Split(body, "\n") {
		if line == want {
			return true
		}
	}
	return false
}
