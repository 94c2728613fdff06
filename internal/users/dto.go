package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	WarehouseID *uuid.UUID     `json:"warehouse_id,omitempty"`
	Email       string         `json:"email"`
	FullName    *string        `json:"full_name,omitempty"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	LastLogin   *time.Time     `json:"last_login,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	TenantID     uuid.UUID
	WarehouseID  *uuid.UUID
	Email        string
	PasswordHash string
	FullName     *string
	Role         enums.UserRole
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		TenantID:    u.TenantID,
		WarehouseID: u.WarehouseID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	role := c.Role
	if !role.IsValid() {
		role = enums.RoleOperator
	}
	return &models.User{
		ID:             uuid.New(),
		TenantID:       c.TenantID,
		WarehouseID:    c.WarehouseID,
		Email:          c.Email,
		HashedPassword: c.PasswordHash,
		FullName:       c.FullName,
		Role:           role,
		IsActive:       isActive,
	}
}
