package manifests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

func setupManifestsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	manifests := `
CREATE TABLE IF NOT EXISTS manifests (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  manifest_date DATETIME NOT NULL,
  shift TEXT NOT NULL,
  marketplace TEXT NOT NULL,
  carrier TEXT NOT NULL,
  flow_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'OPEN',
  created_by TEXT,
  created_at_utc DATETIME,
  closed_at_utc DATETIME,
  total_packets INTEGER NOT NULL DEFAULT 0
);`
	openIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_manifests_open_key
  ON manifests (tenant_id, warehouse_id, manifest_date, shift, marketplace, carrier, flow_type)
  WHERE status = 'OPEN';`
	scanEvents := `
CREATE TABLE IF NOT EXISTS scan_events (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  manifest_id TEXT NOT NULL,
  flow_type TEXT NOT NULL,
  marketplace TEXT NOT NULL,
  carrier TEXT NOT NULL,
  barcode_value TEXT NOT NULL,
  barcode_type TEXT NOT NULL DEFAULT 'UNKNOWN',
  ocr_raw_text TEXT,
  extracted_order_id TEXT,
  extracted_awb TEXT,
  scanned_at_utc DATETIME NOT NULL,
  scanned_at_local DATETIME,
  device_id TEXT,
  operator_id TEXT,
  confidence_score TEXT,
  sync_status TEXT NOT NULL DEFAULT 'PENDING',
  CONSTRAINT uq_scan_events_manifest_barcode UNIQUE (manifest_id, barcode_value)
);`
	require.NoError(t, db.Exec(manifests).Error)
	require.NoError(t, db.Exec(openIndex).Error)
	require.NoError(t, db.Exec(scanEvents).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newManifestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func startInput(tenantID, warehouseID uuid.UUID) StartManifestInput {
	return StartManifestInput{
		TenantID:     tenantID,
		WarehouseID:  warehouseID,
		ManifestDate: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Shift:        enums.ShiftMorning,
		Marketplace:  enums.MarketplaceAmazon,
		Carrier:      enums.CarrierDelhivery,
		FlowType:     enums.FlowDispatch,
	}
}

func insertScan(t *testing.T, db *gorm.DB, manifest *models.Manifest, barcode string) {
	t.Helper()

	event := &models.ScanEvent{
		ID:           uuid.New(),
		TenantID:     manifest.TenantID,
		WarehouseID:  manifest.WarehouseID,
		ManifestID:   manifest.ID,
		FlowType:     manifest.FlowType,
		Marketplace:  manifest.Marketplace,
		Carrier:      manifest.Carrier,
		BarcodeValue: barcode,
		BarcodeType:  enums.BarcodeUnknown,
		ScannedAtUTC: time.Now().UTC(),
		SyncStatus:   enums.SyncPending,
	}
	require.NoError(t, db.Create(event).Error)
}

func TestStartCreatesManifest(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	result, err := svc.Start(context.Background(), startInput(uuid.New(), uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, result.Manifest)
	assert.False(t, result.Resumed)
	assert.Equal(t, enums.ManifestOpen, result.Manifest.Status)
	assert.True(t, result.Manifest.ManifestDate.Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)))
}

func TestStartResumesOpenManifest(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	tenantID := uuid.New()
	warehouseID := uuid.New()

	first, err := svc.Start(context.Background(), startInput(tenantID, warehouseID))
	require.NoError(t, err)

	second, err := svc.Start(context.Background(), startInput(tenantID, warehouseID))
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.Manifest.ID, second.Manifest.ID)
}

func TestStartAfterCloseOpensNewManifest(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	tenantID := uuid.New()
	warehouseID := uuid.New()
	input := startInput(tenantID, warehouseID)

	first, err := svc.Start(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), tenantID, first.Manifest.ID)
	require.NoError(t, err)

	second, err := svc.Start(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, second.Resumed)
	assert.NotEqual(t, first.Manifest.ID, second.Manifest.ID)
}

func TestStartRejectsInvalidClassification(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	input := startInput(uuid.New(), uuid.New())
	input.Carrier = enums.Carrier("DRONE_EXPRESS")

	_, err := svc.Start(context.Background(), input)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCloseFreezesTotalPackets(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	tenantID := uuid.New()
	result, err := svc.Start(context.Background(), startInput(tenantID, uuid.New()))
	require.NoError(t, err)

	insertScan(t, db, result.Manifest, "AWB-100")
	insertScan(t, db, result.Manifest, "AWB-101")
	insertScan(t, db, result.Manifest, "AWB-102")

	closed, err := svc.Close(context.Background(), tenantID, result.Manifest.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ManifestClosed, closed.Status)
	assert.Equal(t, 3, closed.TotalPackets)
	require.NotNil(t, closed.ClosedAtUTC)

	// a scan slipped in after close must not change the frozen count
	var reloaded models.Manifest
	require.NoError(t, db.Where("id = ?", result.Manifest.ID).First(&reloaded).Error)
	assert.Equal(t, 3, reloaded.TotalPackets)
}

func TestCloseIsTerminal(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	tenantID := uuid.New()
	result, err := svc.Start(context.Background(), startInput(tenantID, uuid.New()))
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), tenantID, result.Manifest.ID)
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), tenantID, result.Manifest.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
}

func TestCloseRejectsForeignTenant(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	result, err := svc.Start(context.Background(), startInput(uuid.New(), uuid.New()))
	require.NoError(t, err)

	_, err = svc.Close(context.Background(), uuid.New(), result.Manifest.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestGetNotFound(t *testing.T) {
	db := setupManifestsTestDB(t)
	svc := newManifestService(t, db)

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestListPaginationAndFilters(t *testing.T) {
	db := setupManifestsTestDB(t)
	repo := NewRepository(db)
	svc := newManifestService(t, db)

	tenantID := uuid.New()
	warehouseID := uuid.New()

	now := time.Now().UTC()
	for i, flow := range []enums.FlowType{enums.FlowDispatch, enums.FlowReturn, enums.FlowDispatch} {
		manifest := &models.Manifest{
			ID:           uuid.New(),
			TenantID:     tenantID,
			WarehouseID:  warehouseID,
			ManifestDate: DateOnly(now),
			Shift:        enums.ShiftMorning,
			Marketplace:  enums.MarketplaceFlipkart,
			Carrier:      enums.CarrierEkart,
			FlowType:     flow,
			Status:       enums.ManifestClosed,
			CreatedAtUTC: now.Add(time.Duration(i) * time.Minute),
		}
		_, err := repo.Create(context.Background(), manifest)
		require.NoError(t, err)
	}

	page, err := svc.List(context.Background(), tenantID, pagination.Params{Limit: 2}, ManifestFilters{})
	require.NoError(t, err)
	require.Len(t, page.Manifests, 2)
	assert.NotEmpty(t, page.NextCursor)

	rest, err := svc.List(context.Background(), tenantID, pagination.Params{Limit: 2, Cursor: page.NextCursor}, ManifestFilters{})
	require.NoError(t, err)
	require.Len(t, rest.Manifests, 1)
	assert.Empty(t, rest.NextCursor)

	dispatch := enums.FlowDispatch
	filtered, err := svc.List(context.Background(), tenantID, pagination.Params{Limit: 10}, ManifestFilters{FlowType: &dispatch})
	require.NoError(t, err)
	assert.Len(t, filtered.Manifests, 2)
}
