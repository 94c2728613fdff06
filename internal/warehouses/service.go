package warehouses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
)

const defaultTimezone = "Asia/Kolkata"

// CreateWarehouseInput holds the fields accepted when registering a warehouse.
type CreateWarehouseInput struct {
	TenantID uuid.UUID
	Name     string
	City     string
	Address  *string
	Timezone string
}

// Service defines warehouse management operations.
type Service interface {
	Create(ctx context.Context, input CreateWarehouseInput) (*models.Warehouse, error)
	Get(ctx context.Context, tenantID, warehouseID uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]models.Warehouse, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateWarehouseInput) (*models.Warehouse, error) {
	if input.TenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse name required")
	}
	city := strings.TrimSpace(input.City)
	if city == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse city required")
	}
	timezone := strings.TrimSpace(input.Timezone)
	if timezone == "" {
		timezone = defaultTimezone
	}

	warehouse := &models.Warehouse{
		ID:       uuid.New(),
		TenantID: input.TenantID,
		Name:     name,
		City:     city,
		Address:  input.Address,
		Timezone: timezone,
	}
	if err := s.repo.Create(ctx, warehouse); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create warehouse")
	}
	return warehouse, nil
}

func (s *service) Get(ctx context.Context, tenantID, warehouseID uuid.UUID) (*models.Warehouse, error) {
	warehouse, err := s.repo.FindByIDForTenant(ctx, tenantID, warehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "warehouse not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load warehouse")
	}
	return warehouse, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID) ([]models.Warehouse, error) {
	warehouses, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list warehouses")
	}
	return warehouses, nil
}
