package scans

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/internal/manifests"
	"github.com/ecomops/logiscan-backend/pkg/db"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/metrics"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

const scanDedupConstraint = "uq_scan_events_manifest_barcode"

// DefaultMaxBatchSize caps a single bulk submission when no limit is configured.
const DefaultMaxBatchSize = 1000

// Batch-scan convenience defaults, applied when the caller omits classification.
const (
	DefaultShift       = enums.ShiftMorning
	DefaultMarketplace = enums.MarketplaceAmazon
	DefaultCarrier     = enums.CarrierDelhivery
	DefaultFlowType    = enums.FlowDispatch
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// SyncNotifier accepts a committed batch for asynchronous bridge delivery.
// Implementations must not block the ingestion path.
type SyncNotifier interface {
	Notify(batchID uuid.UUID)
}

// Service defines the bulk ingestion operations.
type Service interface {
	BulkIngest(ctx context.Context, input BulkIngestInput) (*BulkIngestResult, error)
	BatchScan(ctx context.Context, input BatchScanInput) (*BulkIngestResult, error)
	BatchStatus(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchStatus, error)
	ListByManifest(ctx context.Context, tenantID, manifestID uuid.UUID, params pagination.Params) (*ScanEventList, error)
	ListByOperator(ctx context.Context, tenantID, operatorID uuid.UUID, params pagination.Params) (*ScanEventList, error)
	Get(ctx context.Context, tenantID, eventID uuid.UUID) (*models.ScanEvent, error)
	ExportByManifest(ctx context.Context, tenantID, manifestID uuid.UUID) ([]models.ScanEvent, error)
}

// ServiceParams bundles the ingestion service dependencies.
type ServiceParams struct {
	Repo         Repository
	ManifestRepo manifests.Repository
	ManifestSvc  manifests.Service
	Tx           txRunner
	Notifier     SyncNotifier
	Metrics      *metrics.IngestMetrics
	MaxBatchSize int
}

type service struct {
	repo        Repository
	manifests   manifests.Repository
	manifestSvc manifests.Service
	tx          txRunner
	notifier    SyncNotifier
	metrics     *metrics.IngestMetrics
	maxBatch    int
}

// NewService builds the bulk ingestion service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("scan repository required")
	}
	if params.ManifestRepo == nil {
		return nil, fmt.Errorf("manifest repository required")
	}
	if params.ManifestSvc == nil {
		return nil, fmt.Errorf("manifest service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	maxBatch := params.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}
	return &service{
		repo:        params.Repo,
		manifests:   params.ManifestRepo,
		manifestSvc: params.ManifestSvc,
		tx:          params.Tx,
		notifier:    params.Notifier,
		metrics:     params.Metrics,
		maxBatch:    maxBatch,
	}, nil
}

// BulkIngest processes a batch of scan attempts in submission order. Accepted
// inserts commit together; per-item failures never abort the batch. Duplicate
// barcodes, whether earlier in the same batch, already persisted, or created
// by a concurrent request racing the same insert, are reported as successful
// duplicate outcomes.
func (s *service) BulkIngest(ctx context.Context, input BulkIngestInput) (*BulkIngestResult, error) {
	if err := s.validateBatch(input); err != nil {
		return nil, err
	}

	started := time.Now()
	result := &BulkIngestResult{
		BatchID:  uuid.New(),
		Received: len(input.Items),
		Results:  make([]ScanItemResult, 0, len(input.Items)),
	}
	var accepted []BatchPayloadItem
	batchFlow := DefaultFlowType

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		manifestIDs := distinctManifestIDs(input.Items)
		found, err := s.manifests.WithTx(tx).FindByIDsForTenant(ctx, input.TenantID, manifestIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch manifests")
		}
		byID := make(map[uuid.UUID]*models.Manifest, len(found))
		for i := range found {
			byID[found[i].ID] = &found[i]
		}

		// first accepted outcome per (manifest, barcode) in this batch
		seen := make(map[string]*uuid.UUID)
		scannedAt := time.Now().UTC()

		for _, item := range input.Items {
			outcome := s.processItem(ctx, tx, repo, byID, seen, &accepted, input, item, scannedAt)
			switch {
			case !outcome.Success:
				result.Errors++
			case outcome.IsDuplicate:
				result.Duplicates++
			default:
				result.Inserted++
			}
			result.Results = append(result.Results, outcome)
		}

		if len(accepted) > 0 {
			batchFlow = accepted[0].FlowType
		}
		payload, err := json.Marshal(accepted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode batch payload")
		}

		status := enums.BatchSyncPending
		if len(accepted) == 0 {
			status = enums.BatchSyncSkipped
		}
		name := batchName(batchFlow, scannedAt)
		batch := &models.SyncBatch{
			ID:             result.BatchID,
			TenantID:       input.TenantID,
			BatchName:      &name,
			FlowType:       batchFlow,
			TotalScans:     result.Received,
			InsertedScans:  result.Inserted,
			DuplicateScans: result.Duplicates,
			ErrorScans:     result.Errors,
			OperatorID:     input.Operator.UserID,
			OperatorEmail:  input.Operator.Email,
			Payload:        payload,
			Status:         status,
		}
		if len(manifestIDs) == 1 {
			batch.ManifestID = &manifestIDs[0]
		}
		if err := repo.CreateSyncBatch(ctx, batch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record scan batch")
		}
		return nil
	})
	if err != nil {
		// commit failure is fatal for the whole batch; the caller may retry
		// the full submission safely since every insert is idempotent
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit scan batch")
	}

	if len(accepted) > 0 && s.notifier != nil {
		s.notifier.Notify(result.BatchID)
	}
	s.metrics.ObserveBatch(result.Inserted, result.Duplicates, result.Errors, time.Since(started))
	return result, nil
}

func (s *service) processItem(
	ctx context.Context,
	tx *gorm.DB,
	repo Repository,
	byID map[uuid.UUID]*models.Manifest,
	seen map[string]*uuid.UUID,
	accepted *[]BatchPayloadItem,
	input BulkIngestInput,
	item ScanItemInput,
	scannedAt time.Time,
) ScanItemResult {
	if item.BarcodeValue == "" {
		return errorOutcome(item.BarcodeValue, "barcode value required")
	}
	if len(item.BarcodeValue) > MaxBarcodeLength {
		return errorOutcome(item.BarcodeValue, fmt.Sprintf("barcode value exceeds %d characters", MaxBarcodeLength))
	}
	if item.ConfidenceScore != nil {
		score := *item.ConfidenceScore
		if score.LessThan(decimal.Zero) || score.GreaterThan(decimal.NewFromInt(1)) {
			return errorOutcome(item.BarcodeValue, "confidence score must be between 0 and 1")
		}
	}
	barcodeType := enums.BarcodeUnknown
	if item.BarcodeType != nil {
		if !item.BarcodeType.IsValid() {
			return errorOutcome(item.BarcodeValue, fmt.Sprintf("invalid barcode type %q", *item.BarcodeType))
		}
		barcodeType = *item.BarcodeType
	}

	manifest, ok := byID[item.ManifestID]
	if !ok {
		return errorOutcome(item.BarcodeValue, "manifest not found")
	}
	if manifest.Status != enums.ManifestOpen {
		return errorOutcome(item.BarcodeValue, "manifest closed")
	}

	dedupKey := item.ManifestID.String() + "|" + item.BarcodeValue
	if priorID, dup := seen[dedupKey]; dup {
		return duplicateOutcome(item.BarcodeValue, priorID)
	}

	existing, err := repo.FindByManifestAndBarcode(ctx, item.ManifestID, item.BarcodeValue)
	if err == nil {
		seen[dedupKey] = &existing.ID
		*accepted = append(*accepted, payloadItem(existing, true))
		return duplicateOutcome(item.BarcodeValue, &existing.ID)
	}
	if err != gorm.ErrRecordNotFound {
		return errorOutcome(item.BarcodeValue, fmt.Sprintf("lookup scan: %v", err))
	}

	event := &models.ScanEvent{
		ID:               uuid.New(),
		TenantID:         input.TenantID,
		WarehouseID:      manifest.WarehouseID,
		ManifestID:       manifest.ID,
		FlowType:         manifest.FlowType,
		Marketplace:      manifest.Marketplace,
		Carrier:          manifest.Carrier,
		BarcodeValue:     item.BarcodeValue,
		BarcodeType:      barcodeType,
		OCRRawText:       item.OCRRawText,
		ExtractedOrderID: item.ExtractedOrderID,
		ExtractedAWB:     item.ExtractedAWB,
		ScannedAtUTC:     scannedAt,
		ScannedAtLocal:   item.ScannedAtLocal,
		DeviceID:         item.DeviceID,
		ConfidenceScore:  item.ConfidenceScore,
		SyncStatus:       enums.SyncPending,
	}
	if input.Operator.UserID != uuid.Nil {
		operatorID := input.Operator.UserID
		event.OperatorID = &operatorID
	}

	// savepoint keeps one item's constraint violation from poisoning the batch
	insertErr := tx.Transaction(func(itx *gorm.DB) error {
		return s.repo.WithTx(itx).Insert(ctx, event)
	})
	if insertErr != nil {
		if db.IsUniqueViolation(insertErr, scanDedupConstraint) {
			// a concurrent request won the insert race; surface its row
			winner, lookupErr := repo.FindByManifestAndBarcode(ctx, item.ManifestID, item.BarcodeValue)
			if lookupErr != nil {
				seen[dedupKey] = nil
				return duplicateOutcome(item.BarcodeValue, nil)
			}
			seen[dedupKey] = &winner.ID
			*accepted = append(*accepted, payloadItem(winner, true))
			return duplicateOutcome(item.BarcodeValue, &winner.ID)
		}
		return errorOutcome(item.BarcodeValue, fmt.Sprintf("insert scan: %v", insertErr))
	}

	seen[dedupKey] = &event.ID
	*accepted = append(*accepted, payloadItem(event, false))
	return ScanItemResult{
		BarcodeValue: item.BarcodeValue,
		Success:      true,
		ScanEventID:  &event.ID,
	}
}

// BatchScan ingests raw barcodes into the operator's open manifest for today,
// opening one under default classification when none exists.
func (s *service) BatchScan(ctx context.Context, input BatchScanInput) (*BulkIngestResult, error) {
	if len(input.Barcodes) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one barcode required")
	}

	warehouseID := input.WarehouseID
	if warehouseID == nil {
		warehouseID = input.Operator.WarehouseID
	}
	if warehouseID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}

	start, err := s.manifestSvc.Start(ctx, manifests.StartManifestInput{
		TenantID:     input.TenantID,
		WarehouseID:  *warehouseID,
		ManifestDate: time.Now().UTC(),
		Shift:        orDefaultShift(input.Shift),
		Marketplace:  orDefaultMarketplace(input.Marketplace),
		Carrier:      orDefaultCarrier(input.Carrier),
		FlowType:     orDefaultFlowType(input.FlowType),
		CreatedBy:    operatorRef(input.Operator),
	})
	if err != nil {
		return nil, err
	}

	items := make([]ScanItemInput, 0, len(input.Barcodes))
	for _, barcode := range input.Barcodes {
		items = append(items, ScanItemInput{
			ManifestID:   start.Manifest.ID,
			BarcodeValue: barcode,
		})
	}
	return s.BulkIngest(ctx, BulkIngestInput{
		TenantID: input.TenantID,
		Operator: input.Operator,
		Items:    items,
	})
}

func (s *service) BatchStatus(ctx context.Context, tenantID, batchID uuid.UUID) (*BatchStatus, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id required")
	}
	batch, err := s.repo.FindSyncBatchForTenant(ctx, tenantID, batchID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load batch")
	}
	return &BatchStatus{
		BatchID:        batch.ID,
		Status:         batch.Status,
		TotalScans:     batch.TotalScans,
		InsertedScans:  batch.InsertedScans,
		DuplicateScans: batch.DuplicateScans,
		ErrorScans:     batch.ErrorScans,
		AttemptCount:   batch.AttemptCount,
		LastError:      batch.LastError,
		CreatedAt:      batch.CreatedAt,
		DeliveredAt:    batch.DeliveredAt,
	}, nil
}

func (s *service) ListByManifest(ctx context.Context, tenantID, manifestID uuid.UUID, params pagination.Params) (*ScanEventList, error) {
	if manifestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manifest id required")
	}
	list, err := s.repo.ListByManifest(ctx, tenantID, manifestID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list manifest scans")
	}
	return list, nil
}

func (s *service) ListByOperator(ctx context.Context, tenantID, operatorID uuid.UUID, params pagination.Params) (*ScanEventList, error) {
	if operatorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	list, err := s.repo.ListByOperator(ctx, tenantID, operatorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list operator scans")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, tenantID, eventID uuid.UUID) (*models.ScanEvent, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scan event id required")
	}
	event, err := s.repo.FindByIDForTenant(ctx, tenantID, eventID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scan event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup scan event")
	}
	return event, nil
}

func (s *service) ExportByManifest(ctx context.Context, tenantID, manifestID uuid.UUID) ([]models.ScanEvent, error) {
	if manifestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manifest id required")
	}
	events, err := s.repo.FindAllByManifest(ctx, tenantID, manifestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "export manifest scans")
	}
	return events, nil
}

func (s *service) validateBatch(input BulkIngestInput) error {
	if input.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	if input.Operator.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "operator identity missing")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one scan item required")
	}
	if len(input.Items) > s.maxBatch {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("batch size %d exceeds maximum of %d", len(input.Items), s.maxBatch))
	}
	return nil
}

func distinctManifestIDs(items []ScanItemInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if item.ManifestID == uuid.Nil {
			continue
		}
		if _, ok := seen[item.ManifestID]; ok {
			continue
		}
		seen[item.ManifestID] = struct{}{}
		ids = append(ids, item.ManifestID)
	}
	return ids
}

func payloadItem(event *models.ScanEvent, isDuplicate bool) BatchPayloadItem {
	return BatchPayloadItem{
		ScanEventID:      event.ID,
		ManifestID:       event.ManifestID,
		BarcodeValue:     event.BarcodeValue,
		BarcodeType:      event.BarcodeType,
		FlowType:         event.FlowType,
		Marketplace:      event.Marketplace,
		Carrier:          event.Carrier,
		ScannedAtUTC:     event.ScannedAtUTC,
		IsDuplicate:      isDuplicate,
		DeviceID:         event.DeviceID,
		ExtractedOrderID: event.ExtractedOrderID,
		ExtractedAWB:     event.ExtractedAWB,
		ConfidenceScore:  event.ConfidenceScore,
	}
}

func errorOutcome(barcode, message string) ScanItemResult {
	return ScanItemResult{
		BarcodeValue: barcode,
		Error:        &message,
	}
}

func duplicateOutcome(barcode string, scanEventID *uuid.UUID) ScanItemResult {
	return ScanItemResult{
		BarcodeValue: barcode,
		Success:      true,
		ScanEventID:  scanEventID,
		IsDuplicate:  true,
	}
}

func batchName(flow enums.FlowType, at time.Time) string {
	return fmt.Sprintf("%s-%s", flow, at.Format("20060102-150405"))
}

func orDefaultShift(v *enums.Shift) enums.Shift {
	if v != nil {
		return *v
	}
	return DefaultShift
}

func orDefaultMarketplace(v *enums.Marketplace) enums.Marketplace {
	if v != nil {
		return *v
	}
	return DefaultMarketplace
}

func orDefaultCarrier(v *enums.Carrier) enums.Carrier {
	if v != nil {
		return *v
	}
	return DefaultCarrier
}

func orDefaultFlowType(v *enums.FlowType) enums.FlowType {
	if v != nil {
		return *v
	}
	return DefaultFlowType
}

func operatorRef(op OperatorContext) *uuid.UUID {
	if op.UserID == uuid.Nil {
		return nil
	}
	id := op.UserID
	return &id
}
