package scans

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/pagination"
)

// Repository exposes scan ledger and sync batch persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByManifestAndBarcode(ctx context.Context, manifestID uuid.UUID, barcode string) (*models.ScanEvent, error)
	Insert(ctx context.Context, event *models.ScanEvent) error
	CreateSyncBatch(ctx context.Context, batch *models.SyncBatch) error
	FindSyncBatchForTenant(ctx context.Context, tenantID, batchID uuid.UUID) (*models.SyncBatch, error)
	FindByIDForTenant(ctx context.Context, tenantID, eventID uuid.UUID) (*models.ScanEvent, error)
	ListByManifest(ctx context.Context, tenantID, manifestID uuid.UUID, params pagination.Params) (*ScanEventList, error)
	ListByOperator(ctx context.Context, tenantID, operatorID uuid.UUID, params pagination.Params) (*ScanEventList, error)
	FindAllByManifest(ctx context.Context, tenantID, manifestID uuid.UUID) ([]models.ScanEvent, error)
}

// ScanEventList is one page of scan events.
type ScanEventList struct {
	Events     []models.ScanEvent
	NextCursor string
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a scan repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByManifestAndBarcode(ctx context.Context, manifestID uuid.UUID, barcode string) (*models.ScanEvent, error) {
	var event models.ScanEvent
	err := r.db.WithContext(ctx).
		Where("manifest_id = ? AND barcode_value = ?", manifestID, barcode).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) Insert(ctx context.Context, event *models.ScanEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) CreateSyncBatch(ctx context.Context, batch *models.SyncBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *repository) FindSyncBatchForTenant(ctx context.Context, tenantID, batchID uuid.UUID) (*models.SyncBatch, error) {
	var batch models.SyncBatch
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", batchID, tenantID).
		First(&batch).Error
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) FindByIDForTenant(ctx context.Context, tenantID, eventID uuid.UUID) (*models.ScanEvent, error) {
	var event models.ScanEvent
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", eventID, tenantID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListByManifest(ctx context.Context, tenantID, manifestID uuid.UUID, params pagination.Params) (*ScanEventList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.ScanEvent{}).
		Where("tenant_id = ? AND manifest_id = ?", tenantID, manifestID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("scanned_at_utc < ? OR (scanned_at_utc = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var events []models.ScanEvent
	err = query.
		Order("scanned_at_utc DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	list := &ScanEventList{}
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.ScannedAtUTC,
			ID:        last.ID,
		})
	}
	list.Events = events
	return list, nil
}

func (r *repository) ListByOperator(ctx context.Context, tenantID, operatorID uuid.UUID, params pagination.Params) (*ScanEventList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.ScanEvent{}).
		Where("tenant_id = ? AND operator_id = ?", tenantID, operatorID)

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("scanned_at_utc < ? OR (scanned_at_utc = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var events []models.ScanEvent
	err = query.
		Order("scanned_at_utc DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	list := &ScanEventList{}
	if len(events) > limit {
		events = events[:limit]
		last := events[len(events)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.ScannedAtUTC,
			ID:        last.ID,
		})
	}
	list.Events = events
	return list, nil
}

func (r *repository) FindAllByManifest(ctx context.Context, tenantID, manifestID uuid.UUID) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND manifest_id = ?", tenantID, manifestID).
		Order("scanned_at_utc ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
