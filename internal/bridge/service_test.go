package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	"github.com/ecomops/logiscan-backend/pkg/logger"
)

func setupBridgeTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

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
	syncBatches := `
CREATE TABLE IF NOT EXISTS sync_batches (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  manifest_id TEXT,
  batch_name TEXT,
  flow_type TEXT NOT NULL,
  total_scans INTEGER NOT NULL,
  inserted_scans INTEGER NOT NULL,
  duplicate_scans INTEGER NOT NULL,
  error_scans INTEGER NOT NULL,
  operator_id TEXT NOT NULL,
  operator_email TEXT NOT NULL,
  payload TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  created_at DATETIME,
  claimed_at DATETIME,
  delivered_at DATETIME
);`
	require.NoError(t, db.Exec(scanEvents).Error)
	require.NoError(t, db.Exec(syncBatches).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type bridgeFixture struct {
	db       *gorm.DB
	svc      Service
	tenantID uuid.UUID
}

func newBridgeFixture(t *testing.T, cfg config.BridgeConfig) *bridgeFixture {
	t.Helper()

	db := setupBridgeTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "bridge-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Config: cfg,
		Logger: logg,
		Repo:   NewRepository(db),
		Tx:     gormTxRunner{db: db},
	})
	require.NoError(t, err)
	return &bridgeFixture{db: db, svc: svc, tenantID: uuid.New()}
}

func (f *bridgeFixture) seedBatch(t *testing.T, itemCount int) (*models.SyncBatch, []uuid.UUID) {
	t.Helper()

	manifestID := uuid.New()
	items := make([]scans.BatchPayloadItem, 0, itemCount)
	scanIDs := make([]uuid.UUID, 0, itemCount)
	for i := 0; i < itemCount; i++ {
		event := &models.ScanEvent{
			ID:           uuid.New(),
			TenantID:     f.tenantID,
			WarehouseID:  uuid.New(),
			ManifestID:   manifestID,
			FlowType:     enums.FlowDispatch,
			Marketplace:  enums.MarketplaceAmazon,
			Carrier:      enums.CarrierDelhivery,
			BarcodeValue: uuid.NewString(),
			BarcodeType:  enums.BarcodeQR,
			ScannedAtUTC: time.Now().UTC(),
			SyncStatus:   enums.SyncPending,
		}
		require.NoError(t, f.db.Create(event).Error)
		scanIDs = append(scanIDs, event.ID)
		items = append(items, scans.BatchPayloadItem{
			ScanEventID:  event.ID,
			ManifestID:   manifestID,
			BarcodeValue: event.BarcodeValue,
			BarcodeType:  event.BarcodeType,
			FlowType:     event.FlowType,
			Marketplace:  event.Marketplace,
			Carrier:      event.Carrier,
			ScannedAtUTC: event.ScannedAtUTC,
		})
	}

	payload, err := json.Marshal(items)
	require.NoError(t, err)
	batch := &models.SyncBatch{
		ID:            uuid.New(),
		TenantID:      f.tenantID,
		ManifestID:    &manifestID,
		FlowType:      enums.FlowDispatch,
		TotalScans:    itemCount,
		InsertedScans: itemCount,
		OperatorID:    uuid.New(),
		OperatorEmail: "operator@example.com",
		Payload:       payload,
		Status:        enums.BatchSyncPending,
	}
	require.NoError(t, f.db.Create(batch).Error)
	return batch, scanIDs
}

func (f *bridgeFixture) reloadBatch(t *testing.T, id uuid.UUID) *models.SyncBatch {
	t.Helper()

	var batch models.SyncBatch
	require.NoError(t, f.db.Where("id = ?", id).First(&batch).Error)
	return &batch
}

func (f *bridgeFixture) scanStatuses(t *testing.T, ids []uuid.UUID) map[enums.SyncStatus]int {
	t.Helper()

	var events []models.ScanEvent
	require.NoError(t, f.db.Where("id IN ?", ids).Find(&events).Error)
	counts := make(map[enums.SyncStatus]int)
	for _, event := range events {
		counts[event.SyncStatus]++
	}
	return counts
}

func TestDeliverPostsBatchAndMarksSynced(t *testing.T) {
	var requests atomic.Int32
	var gotAuth, gotTenant string
	var gotBody DeliveryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get("X-Tenant-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newBridgeFixture(t, config.BridgeConfig{
		MainBackendURL: server.URL,
		APIKey:         "bridge-key",
		Timeout:        5 * time.Second,
	})
	batch, scanIDs := f.seedBatch(t, 2)

	require.NoError(t, f.svc.Deliver(context.Background(), batch.ID))

	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, "Bearer bridge-key", gotAuth)
	assert.Equal(t, f.tenantID.String(), gotTenant)
	assert.Equal(t, batch.ID, gotBody.BatchID)
	assert.Len(t, gotBody.Items, 2)

	updated := f.reloadBatch(t, batch.ID)
	assert.Equal(t, enums.BatchSyncSynced, updated.Status)
	assert.Equal(t, 1, updated.AttemptCount)
	assert.NotNil(t, updated.DeliveredAt)
	assert.Nil(t, updated.LastError)

	statuses := f.scanStatuses(t, scanIDs)
	assert.Equal(t, 2, statuses[enums.SyncSynced])
}

func TestDeliverMarksFailedOnServerError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newBridgeFixture(t, config.BridgeConfig{
		MainBackendURL: server.URL,
		Timeout:        5 * time.Second,
	})
	batch, scanIDs := f.seedBatch(t, 1)

	require.NoError(t, f.svc.Deliver(context.Background(), batch.ID))

	// a non-timeout failure gets no retry
	assert.Equal(t, int32(1), requests.Load())

	updated := f.reloadBatch(t, batch.ID)
	assert.Equal(t, enums.BatchSyncFailed, updated.Status)
	require.NotNil(t, updated.LastError)
	assert.Contains(t, *updated.LastError, "500")

	statuses := f.scanStatuses(t, scanIDs)
	assert.Equal(t, 1, statuses[enums.SyncFailed])
}

func TestDeliverFailureKeepsSyncedScansSynced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newBridgeFixture(t, config.BridgeConfig{
		MainBackendURL: server.URL,
		Timeout:        5 * time.Second,
	})
	batch, scanIDs := f.seedBatch(t, 2)

	// one scan was already confirmed by an earlier batch
	require.NoError(t, f.db.Model(&models.ScanEvent{}).
		Where("id = ?", scanIDs[0]).
		Update("sync_status", enums.SyncSynced).Error)

	require.NoError(t, f.svc.Deliver(context.Background(), batch.ID))

	assert.Equal(t, enums.BatchSyncFailed, f.reloadBatch(t, batch.ID).Status)
	statuses := f.scanStatuses(t, scanIDs)
	assert.Equal(t, 1, statuses[enums.SyncSynced])
	assert.Equal(t, 1, statuses[enums.SyncFailed])
}

func TestDeliverSuccessRecoversFailedScans(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newBridgeFixture(t, config.BridgeConfig{
		MainBackendURL: server.URL,
		Timeout:        5 * time.Second,
	})
	batch, scanIDs := f.seedBatch(t, 1)

	require.NoError(t, f.db.Model(&models.ScanEvent{}).
		Where("id = ?", scanIDs[0]).
		Update("sync_status", enums.SyncFailed).Error)

	require.NoError(t, f.svc.Deliver(context.Background(), batch.ID))

	statuses := f.scanStatuses(t, scanIDs)
	assert.Equal(t, 1, statuses[enums.SyncSynced])
}

func TestDeliverRetriesOnceOnTimeout(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			time.Sleep(500 * time.Millisecond)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newBridgeFixture(t, config.BridgeConfig{
		MainBackendURL: server.URL,
		Timeout:        100 * time.Millisecond,
	})
	batch, _ := f.seedBatch(t, 1)

	require.NoError(t, f.svc.Deliver(context.Background(), batch.ID))

	assert.Equal(t, int32(2), requests.Load())
	assert.Equal(t, enums.BatchSyncSynced, f.reloadBatch(t, batch.ID).Status)
}

func TestDeliverSkipsWhenUnconfigured(t *testing.T) {
	f := newBridgeFixture(t, config.BridgeConfig{Timeout: time.Second})
	batch, scanIDs := f.seedBatch(t, 1)

	require.NoError(t, f.svc.Deliver(context.Background(), batch.ID))

	updated := f.reloadBatch(t, batch.ID)
	assert.Equal(t, enums.BatchSyncSkipped, updated.Status)
	assert.Equal(t, 0, updated.AttemptCount)

	statuses := f.scanStatuses(t, scanIDs)
	assert.Equal(t, 1, statuses[enums.SyncPending])
}

func TestDeliverIgnoresResolvedBatch(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newBridgeFixture(t, config.BridgeConfig{MainBackendURL: server.URL, Timeout: time.Second})
	batch, _ := f.seedBatch(t, 1)
	require.NoError(t, f.db.Model(&models.SyncBatch{}).
		Where("id = ?", batch.ID).
		Update("status", enums.BatchSyncSynced).Error)

	require.NoError(t, f.svc.Deliver(context.Background(), batch.ID))
	assert.Equal(t, int32(0), requests.Load())
}

func TestDeliverMissingBatchIsNoop(t *testing.T) {
	f := newBridgeFixture(t, config.BridgeConfig{Timeout: time.Second})
	require.NoError(t, f.svc.Deliver(context.Background(), uuid.New()))
}

func TestDispatcherDeliversQueuedBatches(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newBridgeFixture(t, config.BridgeConfig{MainBackendURL: server.URL, Timeout: time.Second})
	batch, _ := f.seedBatch(t, 1)

	logg := logger.New(logger.Options{ServiceName: "bridge-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	dispatcher := NewDispatcher(logg, f.svc, 4)

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)
	dispatcher.Notify(batch.ID)

	require.Eventually(t, func() bool {
		return f.reloadBatch(t, batch.ID).Status == enums.BatchSyncSynced
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	dispatcher.Wait()
	assert.Equal(t, int32(1), requests.Load())
}
