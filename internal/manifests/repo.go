package manifests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

// Repository exposes manifest persistence. Lookups are always tenant scoped.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, manifest *models.Manifest) (*models.Manifest, error)
	FindOpenByKey(ctx context.Context, key ManifestKey) (*models.Manifest, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*models.Manifest, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Manifest, error)
	List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ManifestFilters) (*ManifestList, error)
	CountScanEvents(ctx context.Context, manifestID uuid.UUID) (int64, error)
	Close(ctx context.Context, id uuid.UUID, closedAt time.Time, totalPackets int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a manifest repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, manifest *models.Manifest) (*models.Manifest, error) {
	if err := r.db.WithContext(ctx).Create(manifest).Error; err != nil {
		return nil, err
	}
	return manifest, nil
}

func (r *repository) FindOpenByKey(ctx context.Context, key ManifestKey) (*models.Manifest, error) {
	var manifest models.Manifest
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND manifest_date = ? AND shift = ? AND marketplace = ? AND carrier = ? AND flow_type = ? AND status = ?",
			key.TenantID, key.WarehouseID, key.ManifestDate, key.Shift, key.Marketplace, key.Carrier, key.FlowType, enums.ManifestOpen).
		First(&manifest).Error
	if err != nil {
		return nil, err
	}
	return &manifest, nil
}

func (r *repository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*models.Manifest, error) {
	var manifest models.Manifest
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&manifest).Error
	if err != nil {
		return nil, err
	}
	return &manifest, nil
}

func (r *repository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Manifest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var manifests []models.Manifest
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&manifests).Error
	if err != nil {
		return nil, err
	}
	return manifests, nil
}

func (r *repository) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params, filters ManifestFilters) (*ManifestList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Manifest{}).
		Where("tenant_id = ?", tenantID)

	if filters.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filters.WarehouseID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.FlowType != nil {
		query = query.Where("flow_type = ?", *filters.FlowType)
	}
	if filters.DateFrom != nil {
		query = query.Where("manifest_date >= ?", DateOnly(*filters.DateFrom))
	}
	if filters.DateTo != nil {
		query = query.Where("manifest_date <= ?", DateOnly(*filters.DateTo))
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("created_at_utc < ? OR (created_at_utc = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var manifests []models.Manifest
	err = query.
		Order("created_at_utc DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&manifests).Error
	if err != nil {
		return nil, err
	}

	list := &ManifestList{}
	if len(manifests) > limit {
		manifests = manifests[:limit]
		last := manifests[len(manifests)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAtUTC,
			ID:        last.ID,
		})
	}
	list.Manifests = manifests
	return list, nil
}

func (r *repository) CountScanEvents(ctx context.Context, manifestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ScanEvent{}).
		Where("manifest_id = ?", manifestID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Close(ctx context.Context, id uuid.UUID, closedAt time.Time, totalPackets int) error {
	return r.db.WithContext(ctx).
		Model(&models.Manifest{}).
		Where("id = ? AND status = ?", id, enums.ManifestOpen).
		Updates(map[string]any{
			"status":        enums.ManifestClosed,
			"closed_at_utc": closedAt,
			"total_packets": totalPackets,
		}).Error
}
