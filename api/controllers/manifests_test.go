package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/api/middleware"
	"github.com/ecomops/logiscan-backend/internal/manifests"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

type fakeManifestService struct {
	startFn func(ctx context.Context, input manifests.StartManifestInput) (*manifests.StartManifestResult, error)
	closeFn func(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error)
	getFn   func(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error)
	listFn  func(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters manifests.ManifestFilters) (*manifests.ManifestList, error)
}

func (f *fakeManifestService) Start(ctx context.Context, input manifests.StartManifestInput) (*manifests.StartManifestResult, error) {
	return f.startFn(ctx, input)
}

func (f *fakeManifestService) Close(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error) {
	return f.closeFn(ctx, tenantID, manifestID)
}

func (f *fakeManifestService) Get(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error) {
	return f.getFn(ctx, tenantID, manifestID)
}

func (f *fakeManifestService) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters manifests.ManifestFilters) (*manifests.ManifestList, error) {
	return f.listFn(ctx, tenantID, params, filters)
}

func tenantRequest(method, target string, body []byte, tenantID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := middleware.WithTenantID(req.Context(), tenantID.String())
	ctx = middleware.WithUserID(ctx, uuid.NewString())
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, name, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func sampleManifest(tenantID uuid.UUID) *models.Manifest {
	return &models.Manifest{
		ID:           uuid.New(),
		TenantID:     tenantID,
		WarehouseID:  uuid.New(),
		ManifestDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Shift:        enums.ShiftMorning,
		Marketplace:  enums.MarketplaceAmazon,
		Carrier:      enums.CarrierDelhivery,
		FlowType:     enums.FlowDispatch,
		Status:       enums.ManifestOpen,
		CreatedAtUTC: time.Now().UTC(),
	}
}

func TestManifestStartCreated(t *testing.T) {
	tenantID := uuid.New()
	var captured manifests.StartManifestInput
	svc := &fakeManifestService{
		startFn: func(ctx context.Context, input manifests.StartManifestInput) (*manifests.StartManifestResult, error) {
			captured = input
			return &manifests.StartManifestResult{Manifest: sampleManifest(tenantID), Resumed: false}, nil
		},
	}

	body := []byte(`{"warehouse_id":"` + uuid.NewString() + `","manifest_date":"2026-03-14","shift":"MORNING","marketplace":"AMAZON","carrier":"DELHIVERY","flow_type":"DISPATCH"}`)
	resp := httptest.NewRecorder()
	ManifestStart(svc, nil).ServeHTTP(resp, tenantRequest(http.MethodPost, "/api/v1/manifests/start", body, tenantID))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.TenantID != tenantID {
		t.Fatalf("expected tenant scoping got %s", captured.TenantID)
	}
	if captured.Shift != enums.ShiftMorning || captured.FlowType != enums.FlowDispatch {
		t.Fatalf("expected enums mapped got %+v", captured)
	}
	if captured.CreatedBy == nil {
		t.Fatalf("expected created_by from auth context")
	}
}

func TestManifestStartResumedReturns200(t *testing.T) {
	tenantID := uuid.New()
	svc := &fakeManifestService{
		startFn: func(ctx context.Context, input manifests.StartManifestInput) (*manifests.StartManifestResult, error) {
			return &manifests.StartManifestResult{Manifest: sampleManifest(tenantID), Resumed: true}, nil
		},
	}

	body := []byte(`{"warehouse_id":"` + uuid.NewString() + `","shift":"MORNING","marketplace":"AMAZON","carrier":"DELHIVERY","flow_type":"DISPATCH"}`)
	resp := httptest.NewRecorder()
	ManifestStart(svc, nil).ServeHTTP(resp, tenantRequest(http.MethodPost, "/api/v1/manifests/start", body, tenantID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data manifestStartResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Resumed {
		t.Fatalf("expected resumed flag set")
	}
	if envelope.Data.Manifest.ManifestDate != "2026-03-14" {
		t.Fatalf("expected date-only manifest date got %s", envelope.Data.Manifest.ManifestDate)
	}
}

func TestManifestStartRejectsBadDate(t *testing.T) {
	body := []byte(`{"warehouse_id":"` + uuid.NewString() + `","manifest_date":"14-03-2026","shift":"MORNING","marketplace":"AMAZON","carrier":"DELHIVERY","flow_type":"DISPATCH"}`)
	resp := httptest.NewRecorder()
	ManifestStart(&fakeManifestService{}, nil).ServeHTTP(resp, tenantRequest(http.MethodPost, "/api/v1/manifests/start", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestManifestCloseConflictSurfaces409(t *testing.T) {
	tenantID := uuid.New()
	svc := &fakeManifestService{
		closeFn: func(ctx context.Context, gotTenant, manifestID uuid.UUID) (*models.Manifest, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "manifest already closed")
		},
	}

	req := tenantRequest(http.MethodPost, "/api/v1/manifests/"+uuid.NewString()+"/close", nil, tenantID)
	req = withURLParam(req, "manifestID", uuid.NewString())
	resp := httptest.NewRecorder()
	ManifestClose(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestManifestListMapsFilters(t *testing.T) {
	tenantID := uuid.New()
	var captured manifests.ManifestFilters
	var capturedParams pagination.Params
	svc := &fakeManifestService{
		listFn: func(ctx context.Context, gotTenant uuid.UUID, params pagination.Params, filters manifests.ManifestFilters) (*manifests.ManifestList, error) {
			captured = filters
			capturedParams = params
			return &manifests.ManifestList{Manifests: []models.Manifest{*sampleManifest(tenantID)}, NextCursor: "next"}, nil
		},
	}

	warehouseID := uuid.New()
	target := "/api/v1/manifests?warehouse_id=" + warehouseID.String() +
		"&status=OPEN&flow_type=DISPATCH&date_from=2026-03-01&date_to=2026-03-31&limit=10&cursor=abc"
	resp := httptest.NewRecorder()
	ManifestList(svc, nil).ServeHTTP(resp, tenantRequest(http.MethodGet, target, nil, tenantID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.WarehouseID == nil || *captured.WarehouseID != warehouseID {
		t.Fatalf("expected warehouse filter got %+v", captured)
	}
	if captured.Status == nil || *captured.Status != enums.ManifestOpen {
		t.Fatalf("expected status filter got %+v", captured)
	}
	if captured.DateFrom == nil || captured.DateTo == nil {
		t.Fatalf("expected date range filter got %+v", captured)
	}
	if capturedParams.Limit != 10 || capturedParams.Cursor != "abc" {
		t.Fatalf("expected pagination params got %+v", capturedParams)
	}

	var envelope struct {
		Data manifestListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Manifests) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("expected one manifest and cursor got %+v", envelope.Data)
	}
}

func TestManifestListRejectsUnknownStatus(t *testing.T) {
	resp := httptest.NewRecorder()
	ManifestList(&fakeManifestService{}, nil).ServeHTTP(resp,
		tenantRequest(http.MethodGet, "/api/v1/manifests?status=ARCHIVED", nil, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestManifestExportCSVWritesRows(t *testing.T) {
	tenantID := uuid.New()
	manifest := sampleManifest(tenantID)

	manifestSvc := &fakeManifestService{
		getFn: func(ctx context.Context, gotTenant, manifestID uuid.UUID) (*models.Manifest, error) {
			return manifest, nil
		},
	}
	device := "SCANNER-7"
	scanSvc := &fakeScanService{
		exportFn: func(ctx context.Context, gotTenant, manifestID uuid.UUID) ([]models.ScanEvent, error) {
			return []models.ScanEvent{{
				ID:           uuid.New(),
				TenantID:     tenantID,
				ManifestID:   manifest.ID,
				BarcodeValue: "PKT0001",
				BarcodeType:  enums.BarcodeCode128,
				FlowType:     enums.FlowDispatch,
				Marketplace:  enums.MarketplaceAmazon,
				Carrier:      enums.CarrierDelhivery,
				ScannedAtUTC: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
				DeviceID:     &device,
				SyncStatus:   enums.SyncSynced,
			}}, nil
		},
	}

	req := tenantRequest(http.MethodGet, "/api/v1/manifests/"+manifest.ID.String()+"/export.csv", nil, tenantID)
	req = withURLParam(req, "manifestID", manifest.ID.String())
	resp := httptest.NewRecorder()
	ManifestExportCSV(manifestSvc, scanSvc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv got %s", got)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "manifest_2026-03-14_") {
		t.Fatalf("expected dated filename got %s", got)
	}

	lines := strings.Split(strings.TrimSpace(resp.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "scan_event_id,barcode_value") {
		t.Fatalf("unexpected header %s", lines[0])
	}
	if !strings.Contains(lines[1], "PKT0001") || !strings.Contains(lines[1], "SCANNER-7") {
		t.Fatalf("unexpected row %s", lines[1])
	}
}

func TestManifestGetRequiresTenant(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/manifests/"+uuid.NewString(), nil)
	req = withURLParam(req, "manifestID", uuid.NewString())
	resp := httptest.NewRecorder()
	ManifestGet(&fakeManifestService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestManifestCloseRejectsMalformedID(t *testing.T) {
	req := tenantRequest(http.MethodPost, "/api/v1/manifests/not-a-uuid/close", nil, uuid.New())
	req = withURLParam(req, "manifestID", "not-a-uuid")
	resp := httptest.NewRecorder()
	ManifestClose(&fakeManifestService{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
