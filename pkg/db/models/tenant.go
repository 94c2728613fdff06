package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// Tenant is the company/organization owning warehouses, users and manifests.
type Tenant struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string           `gorm:"column:name;type:text;not null"`
	Plan      enums.TenantPlan `gorm:"column:plan;type:text;not null;default:FREE"`
	IsActive  bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time        `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
}

// TableName overrides the default naming.
func (Tenant) TableName() string {
	return "tenants"
}
