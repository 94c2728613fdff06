package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/internal/users"
	"github.com/ecomops/logiscan-backend/internal/warehouses"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/security"
)

// EnsureTenantInput describes a tenant to bootstrap: the company, its first
// warehouse and its admin account.
type EnsureTenantInput struct {
	TenantName    string
	Plan          enums.TenantPlan
	WarehouseName string
	WarehouseCity string
	AdminEmail    string
	AdminPassword string
	AdminFullName *string
}

// EnsureTenantResult reports what provisioning found or created.
type EnsureTenantResult struct {
	Tenant      *models.Tenant
	Warehouse   *models.Warehouse
	AdminUser   *models.User
	Provisioned bool
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service bootstraps tenants. Ensure is idempotent on tenant name: rerunning
// against an existing tenant changes nothing.
type Service interface {
	Ensure(ctx context.Context, input EnsureTenantInput) (*EnsureTenantResult, error)
}

type service struct {
	tenants     *TenantRepository
	warehouses  *warehouses.Repository
	users       *users.Repository
	tx          txRunner
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles provisioning dependencies.
type ServiceParams struct {
	Tenants     *TenantRepository
	Warehouses  *warehouses.Repository
	Users       *users.Repository
	Tx          txRunner
	PasswordCfg config.PasswordConfig
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tenants == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if params.Warehouses == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		tenants:     params.Tenants,
		warehouses:  params.Warehouses,
		users:       params.Users,
		tx:          params.Tx,
		passwordCfg: params.PasswordCfg,
	}, nil
}

func (s *service) Ensure(ctx context.Context, input EnsureTenantInput) (*EnsureTenantResult, error) {
	if err := validateEnsureInput(input); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.TenantName)
	existing, err := s.tenants.FindByName(ctx, name)
	if err == nil {
		return &EnsureTenantResult{Tenant: existing, Provisioned: false}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup tenant")
	}

	hash, err := security.HashPassword(input.AdminPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash admin password")
	}

	plan := input.Plan
	if !plan.IsValid() {
		plan = enums.PlanFree
	}

	result := &EnsureTenantResult{Provisioned: true}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		tenant := &models.Tenant{
			ID:       uuid.New(),
			Name:     name,
			Plan:     plan,
			IsActive: true,
		}
		if err := s.tenants.WithTx(tx).Create(ctx, tenant); err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}

		warehouse := &models.Warehouse{
			ID:       uuid.New(),
			TenantID: tenant.ID,
			Name:     strings.TrimSpace(input.WarehouseName),
			City:     strings.TrimSpace(input.WarehouseCity),
			Timezone: "Asia/Kolkata",
		}
		if err := tx.WithContext(ctx).Create(warehouse).Error; err != nil {
			return fmt.Errorf("create warehouse: %w", err)
		}

		admin, err := s.users.WithTx(tx).Create(ctx, users.CreateUserDTO{
			TenantID:     tenant.ID,
			WarehouseID:  &warehouse.ID,
			Email:        strings.ToLower(strings.TrimSpace(input.AdminEmail)),
			PasswordHash: hash,
			FullName:     input.AdminFullName,
			Role:         enums.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}

		result.Tenant = tenant
		result.Warehouse = warehouse
		result.AdminUser = admin
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "provision tenant")
	}
	return result, nil
}

func validateEnsureInput(input EnsureTenantInput) error {
	if strings.TrimSpace(input.TenantName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant name required")
	}
	if strings.TrimSpace(input.WarehouseName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse name required")
	}
	if strings.TrimSpace(input.WarehouseCity) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse city required")
	}
	if strings.TrimSpace(input.AdminEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin email required")
	}
	if input.AdminPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin password required")
	}
	return nil
}
