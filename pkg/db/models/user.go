package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// User is a warehouse operator, manager or admin within a tenant.
type User struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID      `gorm:"column:tenant_id;type:uuid;not null;index"`
	WarehouseID    *uuid.UUID     `gorm:"column:warehouse_id;type:uuid;index"`
	Email          string         `gorm:"column:email;type:text;not null"`
	HashedPassword string         `gorm:"column:hashed_password;type:text;not null"`
	FullName       *string        `gorm:"column:full_name;type:text"`
	Role           enums.UserRole `gorm:"column:role;type:text;not null;default:OPERATOR"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time      `gorm:"column:created_at;type:timestamptz;autoCreateTime"`
	LastLogin      *time.Time     `gorm:"column:last_login;type:timestamptz"`
}

// TableName overrides the default naming.
func (User) TableName() string {
	return "users"
}
