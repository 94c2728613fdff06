package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// SyncBatch is the durable record of one committed ingestion batch. It doubles
// as the bridge delivery queue: rows are written in the ingestion transaction
// and claimed by the bridge while PENDING. The payload holds the accepted scan
// items exactly as the bridge will send them.
type SyncBatch struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	TenantID       uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index"`
	ManifestID     *uuid.UUID            `gorm:"column:manifest_id;type:uuid"`
	BatchName      *string               `gorm:"column:batch_name;type:text"`
	FlowType       enums.FlowType        `gorm:"column:flow_type;type:text;not null"`
	TotalScans     int                   `gorm:"column:total_scans;not null"`
	InsertedScans  int                   `gorm:"column:inserted_scans;not null"`
	DuplicateScans int                   `gorm:"column:duplicate_scans;not null"`
	ErrorScans     int                   `gorm:"column:error_scans;not null"`
	OperatorID     uuid.UUID             `gorm:"column:operator_id;type:uuid;not null"`
	OperatorEmail  string                `gorm:"column:operator_email;type:text;not null"`
	Payload        json.RawMessage       `gorm:"column:payload;type:jsonb;not null"`
	Status         enums.BatchSyncStatus `gorm:"column:status;type:text;not null;default:PENDING"`
	AttemptCount   int                   `gorm:"column:attempt_count;not null;default:0"`
	LastError      *string               `gorm:"column:last_error;type:text"`
	CreatedAt      time.Time             `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	ClaimedAt      *time.Time            `gorm:"column:claimed_at;type:timestamptz"`
	DeliveredAt    *time.Time            `gorm:"column:delivered_at;type:timestamptz"`
}

// TableName overrides the default naming.
func (SyncBatch) TableName() string {
	return "sync_batches"
}
