package scans

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// MaxBarcodeLength bounds the stored barcode value.
const MaxBarcodeLength = 500

// OperatorContext identifies the authenticated operator submitting scans.
type OperatorContext struct {
	UserID      uuid.UUID
	Email       string
	WarehouseID *uuid.UUID
}

// ScanItemInput is one scan attempt inside a bulk submission.
type ScanItemInput struct {
	ManifestID       uuid.UUID
	BarcodeValue     string
	BarcodeType      *enums.BarcodeType
	OCRRawText       *string
	ExtractedOrderID *string
	ExtractedAWB     *string
	ScannedAtLocal   *time.Time
	DeviceID         *string
	ConfidenceScore  *decimal.Decimal
}

// BulkIngestInput is one bulk scan submission.
type BulkIngestInput struct {
	TenantID uuid.UUID
	Operator OperatorContext
	Items    []ScanItemInput
}

// ScanItemResult is the per-item outcome; result order matches input order.
type ScanItemResult struct {
	BarcodeValue string     `json:"barcode_value"`
	Success      bool       `json:"success"`
	ScanEventID  *uuid.UUID `json:"scan_event_id,omitempty"`
	IsDuplicate  bool       `json:"is_duplicate"`
	Error        *string    `json:"error,omitempty"`
}

// BulkIngestResult aggregates a processed batch.
type BulkIngestResult struct {
	BatchID    uuid.UUID        `json:"batch_id"`
	Received   int              `json:"received"`
	Inserted   int              `json:"inserted"`
	Duplicates int              `json:"duplicates"`
	Errors     int              `json:"errors"`
	Results    []ScanItemResult `json:"results"`
}

// BatchScanInput is the convenience submission path: raw barcodes are ingested
// into the operator's open manifest for the day, auto-created under default
// classification when absent.
type BatchScanInput struct {
	TenantID    uuid.UUID
	Operator    OperatorContext
	WarehouseID *uuid.UUID
	Shift       *enums.Shift
	Marketplace *enums.Marketplace
	Carrier     *enums.Carrier
	FlowType    *enums.FlowType
	Barcodes    []string
}

// BatchStatus reports the durable state of one recorded sync batch.
type BatchStatus struct {
	BatchID        uuid.UUID             `json:"batch_id"`
	Status         enums.BatchSyncStatus `json:"status"`
	TotalScans     int                   `json:"total_scans"`
	InsertedScans  int                   `json:"inserted_scans"`
	DuplicateScans int                   `json:"duplicate_scans"`
	ErrorScans     int                   `json:"error_scans"`
	AttemptCount   int                   `json:"attempt_count"`
	LastError      *string               `json:"last_error,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	DeliveredAt    *time.Time            `json:"delivered_at,omitempty"`
}

// ScanEventDTO is the transport representation of a scan event.
type ScanEventDTO struct {
	ID               uuid.UUID         `json:"id"`
	ManifestID       uuid.UUID         `json:"manifest_id"`
	WarehouseID      uuid.UUID         `json:"warehouse_id"`
	FlowType         enums.FlowType    `json:"flow_type"`
	Marketplace      enums.Marketplace `json:"marketplace"`
	Carrier          enums.Carrier     `json:"carrier"`
	BarcodeValue     string            `json:"barcode_value"`
	BarcodeType      enums.BarcodeType `json:"barcode_type"`
	ExtractedOrderID *string           `json:"extracted_order_id,omitempty"`
	ExtractedAWB     *string           `json:"extracted_awb,omitempty"`
	ScannedAtUTC     time.Time         `json:"scanned_at_utc"`
	ScannedAtLocal   *time.Time        `json:"scanned_at_local,omitempty"`
	DeviceID         *string           `json:"device_id,omitempty"`
	OperatorID       *uuid.UUID        `json:"operator_id,omitempty"`
	ConfidenceScore  *decimal.Decimal  `json:"confidence_score,omitempty"`
	SyncStatus       enums.SyncStatus  `json:"sync_status"`
}

// FromModel maps a scan event row to its DTO.
func FromModel(e *models.ScanEvent) *ScanEventDTO {
	if e == nil {
		return nil
	}
	return &ScanEventDTO{
		ID:               e.ID,
		ManifestID:       e.ManifestID,
		WarehouseID:      e.WarehouseID,
		FlowType:         e.FlowType,
		Marketplace:      e.Marketplace,
		Carrier:          e.Carrier,
		BarcodeValue:     e.BarcodeValue,
		BarcodeType:      e.BarcodeType,
		ExtractedOrderID: e.ExtractedOrderID,
		ExtractedAWB:     e.ExtractedAWB,
		ScannedAtUTC:     e.ScannedAtUTC,
		ScannedAtLocal:   e.ScannedAtLocal,
		DeviceID:         e.DeviceID,
		OperatorID:       e.OperatorID,
		ConfidenceScore:  e.ConfidenceScore,
		SyncStatus:       e.SyncStatus,
	}
}

// BatchPayloadItem is one accepted scan as carried in the sync batch payload
// and delivered to the bridge.
type BatchPayloadItem struct {
	ScanEventID      uuid.UUID         `json:"scan_event_id"`
	ManifestID       uuid.UUID         `json:"manifest_id"`
	BarcodeValue     string            `json:"barcode_value"`
	BarcodeType      enums.BarcodeType `json:"barcode_type"`
	FlowType         enums.FlowType    `json:"flow_type"`
	Marketplace      enums.Marketplace `json:"marketplace"`
	Carrier          enums.Carrier     `json:"carrier"`
	ScannedAtUTC     time.Time         `json:"scanned_at_utc"`
	IsDuplicate      bool              `json:"is_duplicate"`
	DeviceID         *string           `json:"device_id,omitempty"`
	ExtractedOrderID *string           `json:"extracted_order_id,omitempty"`
	ExtractedAWB     *string           `json:"extracted_awb,omitempty"`
	ConfidenceScore  *decimal.Decimal  `json:"confidence_score,omitempty"`
}
