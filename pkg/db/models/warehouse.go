package models

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse is a physical scanning location owned by a tenant.
type Warehouse struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name      string    `gorm:"column:name;type:text;not null"`
	City      string    `gorm:"column:city;type:text;not null"`
	Address   *string   `gorm:"column:address;type:text"`
	Timezone  string    `gorm:"column:timezone;type:text;not null;default:Asia/Kolkata"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
}

// TableName overrides the default naming.
func (Warehouse) TableName() string {
	return "warehouses"
}
