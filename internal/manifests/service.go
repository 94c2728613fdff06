package manifests

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/pkg/db"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

const openManifestConstraint = "ux_manifests_open_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines manifest lifecycle operations.
type Service interface {
	Start(ctx context.Context, input StartManifestInput) (*StartManifestResult, error)
	Close(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error)
	Get(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error)
	List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ManifestFilters) (*ManifestList, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a manifest service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("manifest repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Start opens a manifest for the given natural key, or resumes the existing
// OPEN one. Losing a create race against a concurrent Start degrades to resume.
func (s *service) Start(ctx context.Context, input StartManifestInput) (*StartManifestResult, error) {
	if err := validateStartInput(input); err != nil {
		return nil, err
	}

	key := input.Key()
	var result StartManifestResult

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindOpenByKey(ctx, key)
		if err == nil {
			result = StartManifestResult{Manifest: existing, Resumed: true}
			return nil
		}
		if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup open manifest")
		}

		manifest := &models.Manifest{
			TenantID:     key.TenantID,
			WarehouseID:  key.WarehouseID,
			ManifestDate: key.ManifestDate,
			Shift:        key.Shift,
			Marketplace:  key.Marketplace,
			Carrier:      key.Carrier,
			FlowType:     key.FlowType,
			Status:       enums.ManifestOpen,
			CreatedBy:    input.CreatedBy,
		}
		if manifest.ID == uuid.Nil {
			manifest.ID = uuid.New()
		}

		created, err := repo.Create(ctx, manifest)
		if err != nil {
			if db.IsUniqueViolation(err, openManifestConstraint) {
				winner, lookupErr := repo.FindOpenByKey(ctx, key)
				if lookupErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "resolve manifest after create race")
				}
				result = StartManifestResult{Manifest: winner, Resumed: true}
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create manifest")
		}

		result = StartManifestResult{Manifest: created}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Close transitions the manifest to CLOSED and freezes total_packets at the
// current scan event count. Closing an already closed manifest is rejected.
func (s *service) Close(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error) {
	if manifestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manifest id required")
	}
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}

	var closed *models.Manifest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		manifest, err := repo.FindByIDForTenant(ctx, tenantID, manifestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manifest")
		}
		if manifest.Status == enums.ManifestClosed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "manifest already closed")
		}

		count, err := repo.CountScanEvents(ctx, manifest.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count manifest scans")
		}

		now := time.Now().UTC()
		if err := repo.Close(ctx, manifest.ID, now, int(count)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close manifest")
		}

		manifest.Status = enums.ManifestClosed
		manifest.ClosedAtUTC = &now
		manifest.TotalPackets = int(count)
		closed = manifest
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *service) Get(ctx context.Context, tenantID, manifestID uuid.UUID) (*models.Manifest, error) {
	if manifestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "manifest id required")
	}
	manifest, err := s.repo.FindByIDForTenant(ctx, tenantID, manifestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "manifest not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load manifest")
	}
	return manifest, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ManifestFilters) (*ManifestList, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	list, err := s.repo.List(ctx, tenantID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list manifests")
	}
	return list, nil
}

func validateStartInput(input StartManifestInput) error {
	if input.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	if input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if !input.Shift.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid shift")
	}
	if !input.Marketplace.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid marketplace")
	}
	if !input.Carrier.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid carrier")
	}
	if !input.FlowType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid flow type")
	}
	if input.ManifestDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "manifest date required")
	}
	return nil
}
