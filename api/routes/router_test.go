package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/internal/auth"
	"github.com/ecomops/logiscan-backend/internal/manifests"
	"github.com/ecomops/logiscan-backend/internal/provisioning"
	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/internal/warehouses"
	pkgauth "github.com/ecomops/logiscan-backend/pkg/auth"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
}

func (stubAuthService) Logout(ctx context.Context, userID, tenantID uuid.UUID) error {
	return nil
}

type stubManifestService struct{}

func (stubManifestService) Start(ctx context.Context, input manifests.StartManifestInput) (*manifests.StartManifestResult, error) {
	panic("unimplemented")
}

func (stubManifestService) Close(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error) {
	panic("unimplemented")
}

func (stubManifestService) Get(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error) {
	panic("unimplemented")
}

func (stubManifestService) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters manifests.ManifestFilters) (*manifests.ManifestList, error) {
	return &manifests.ManifestList{}, nil
}

type stubScanService struct{}

func (stubScanService) BulkIngest(ctx context.Context, input scans.BulkIngestInput) (*scans.BulkIngestResult, error) {
	panic("unimplemented")
}

func (stubScanService) BatchScan(ctx context.Context, input scans.BatchScanInput) (*scans.BulkIngestResult, error) {
	panic("unimplemented")
}

func (stubScanService) BatchStatus(ctx context.Context, tenantID, batchID uuid.UUID) (*scans.BatchStatus, error) {
	panic("unimplemented")
}

func (stubScanService) ListByManifest(ctx context.Context, tenantID, manifestID uuid.UUID, params pagination.Params) (*scans.ScanEventList, error) {
	return &scans.ScanEventList{}, nil
}

func (stubScanService) ListByOperator(ctx context.Context, tenantID, operatorID uuid.UUID, params pagination.Params) (*scans.ScanEventList, error) {
	return &scans.ScanEventList{}, nil
}

func (stubScanService) Get(ctx context.Context, tenantID, eventID uuid.UUID) (*models.ScanEvent, error) {
	panic("unimplemented")
}

func (stubScanService) ExportByManifest(ctx context.Context, tenantID, manifestID uuid.UUID) ([]models.ScanEvent, error) {
	return nil, nil
}

type stubWarehouseService struct{}

func (stubWarehouseService) Create(ctx context.Context, input warehouses.CreateWarehouseInput) (*models.Warehouse, error) {
	panic("unimplemented")
}

func (stubWarehouseService) Get(ctx context.Context, tenantID, warehouseID uuid.UUID) (*models.Warehouse, error) {
	panic("unimplemented")
}

func (stubWarehouseService) List(ctx context.Context, tenantID uuid.UUID) ([]models.Warehouse, error) {
	return nil, nil
}

type stubProvisioningService struct{}

func (stubProvisioningService) Ensure(ctx context.Context, input provisioning.EnsureTenantInput) (*provisioning.EnsureTenantResult, error) {
	panic("unimplemented")
}

func testRouterConfig(env string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: env, Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "router-test-secret",
			Issuer:                 "logiscan-test",
			ExpirationMinutes:      15,
			RefreshTokenTTLMinutes: 60,
		},
	}
}

func testRouter(t *testing.T, env string) http.Handler {
	t.Helper()
	return NewRouter(RouterParams{
		Config:              testRouterConfig(env),
		Logger:              nil,
		DB:                  stubPinger{},
		Redis:               nil,
		AuthService:         stubAuthService{},
		ManifestService:     stubManifestService{},
		ScanService:         stubScanService{},
		WarehouseService:    stubWarehouseService{},
		ProvisioningService: stubProvisioningService{},
	})
}

func TestRouterHealthLive(t *testing.T) {
	resp := httptest.NewRecorder()
	testRouter(t, "dev").ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-LogiScan-Env"); got != "dev" {
		t.Fatalf("expected env header got %q", got)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["status"] != "live" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestRouterProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter(t, "dev")
	targets := []string{
		"/api/v1/manifests/",
		"/api/v1/scan-events/me",
		"/api/v1/warehouses/",
	}
	for _, target := range targets {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", target, resp.Code)
		}
	}
}

func TestRouterAcceptsValidToken(t *testing.T) {
	cfg := testRouterConfig("dev")
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Email:    "op@example.com",
		Role:     enums.RoleOperator,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scan-events/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	testRouter(t, "dev").ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRouterLoginReachable(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	resp := httptest.NewRecorder()
	testRouter(t, "dev").ServeHTTP(resp, req)

	// Empty body fails validation before the stub service is consulted.
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRouterProvisioningHiddenInProd(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/tenants", nil)
	resp := httptest.NewRecorder()
	testRouter(t, "prod").ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 in prod got %d", resp.Code)
	}
}
