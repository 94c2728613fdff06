package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// Manifest groups the scans of one warehouse/date/shift/marketplace/carrier/flow
// combination. A partial unique index (ux_manifests_open_key) allows at most one
// OPEN manifest per natural key.
type Manifest struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null;index"`
	WarehouseID  uuid.UUID            `gorm:"column:warehouse_id;type:uuid;not null;index"`
	ManifestDate time.Time            `gorm:"column:manifest_date;type:date;not null"`
	Shift        enums.Shift          `gorm:"column:shift;type:text;not null"`
	Marketplace  enums.Marketplace    `gorm:"column:marketplace;type:text;not null"`
	Carrier      enums.Carrier        `gorm:"column:carrier;type:text;not null"`
	FlowType     enums.FlowType       `gorm:"column:flow_type;type:text;not null"`
	Status       enums.ManifestStatus `gorm:"column:status;type:text;not null;default:OPEN"`
	CreatedBy    *uuid.UUID           `gorm:"column:created_by;type:uuid"`
	CreatedAtUTC time.Time            `gorm:"column:created_at_utc;type:timestamptz;autoCreateTime"`
	ClosedAtUTC  *time.Time           `gorm:"column:closed_at_utc;type:timestamptz"`
	TotalPackets int                  `gorm:"column:total_packets;not null;default:0"`
}

// TableName overrides the default naming.
func (Manifest) TableName() string {
	return "manifests"
}
