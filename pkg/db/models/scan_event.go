package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// ScanEvent is one recorded barcode scan. The pair (manifest_id, barcode_value)
// is globally unique (uq_scan_events_manifest_barcode); flow/marketplace/carrier
// are denormalized from the owning manifest at insert time. Rows are append-only
// except for sync_status, which only the bridge write-back mutates.
type ScanEvent struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID         uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null;index"`
	WarehouseID      uuid.UUID         `gorm:"column:warehouse_id;type:uuid;not null"`
	ManifestID       uuid.UUID         `gorm:"column:manifest_id;type:uuid;not null;index"`
	FlowType         enums.FlowType    `gorm:"column:flow_type;type:text;not null"`
	Marketplace      enums.Marketplace `gorm:"column:marketplace;type:text;not null"`
	Carrier          enums.Carrier     `gorm:"column:carrier;type:text;not null"`
	BarcodeValue     string            `gorm:"column:barcode_value;type:varchar(500);not null"`
	BarcodeType      enums.BarcodeType `gorm:"column:barcode_type;type:text;not null;default:UNKNOWN"`
	OCRRawText       *string           `gorm:"column:ocr_raw_text;type:text"`
	ExtractedOrderID *string           `gorm:"column:extracted_order_id;type:varchar(100)"`
	ExtractedAWB     *string           `gorm:"column:extracted_awb;type:varchar(100)"`
	ScannedAtUTC     time.Time         `gorm:"column:scanned_at_utc;type:timestamptz;not null"`
	ScannedAtLocal   *time.Time        `gorm:"column:scanned_at_local;type:timestamptz"`
	DeviceID         *string           `gorm:"column:device_id;type:varchar(100)"`
	OperatorID       *uuid.UUID        `gorm:"column:operator_id;type:uuid"`
	ConfidenceScore  *decimal.Decimal  `gorm:"column:confidence_score;type:numeric(5,4)"`
	SyncStatus       enums.SyncStatus  `gorm:"column:sync_status;type:text;not null;default:PENDING"`
}

// TableName overrides the default naming.
func (ScanEvent) TableName() string {
	return "scan_events"
}
