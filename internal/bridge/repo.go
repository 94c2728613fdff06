package bridge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
)

// Repository persists sync batch delivery state and the per-scan sync status
// write-backs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, batchID uuid.UUID) (*models.SyncBatch, error)
	ListPendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	Claim(ctx context.Context, batchID uuid.UUID) (bool, error)
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
	MarkDelivered(ctx context.Context, batchID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, batchID uuid.UUID, deliveryErr error) error
	MarkSkipped(ctx context.Context, batchID uuid.UUID) error
	UpdateScanSyncStatus(ctx context.Context, scanEventIDs []uuid.UUID, status enums.SyncStatus) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, batchID uuid.UUID) (*models.SyncBatch, error) {
	var batch models.SyncBatch
	if err := r.db.WithContext(ctx).Where("id = ?", batchID).First(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *repository) ListPendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.SyncBatch{}).
		Where("status = ?", enums.BatchSyncPending).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Claim moves a PENDING batch to DELIVERING. Zero rows affected means another
// deliverer holds the batch, so the caller must stand down. A crash mid-attempt
// strands the row in DELIVERING until RequeueStale returns it to the queue.
func (r *repository) Claim(ctx context.Context, batchID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SyncBatch{}).
		Where("id = ? AND status = ?", batchID, enums.BatchSyncPending).
		Updates(map[string]any{
			"status":        enums.BatchSyncDelivering,
			"claimed_at":    time.Now().UTC(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RequeueStale returns DELIVERING rows claimed before cutoff to PENDING so a
// deliverer that died mid-attempt does not strand its batch.
func (r *repository) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.SyncBatch{}).
		Where("status = ? AND claimed_at < ?", enums.BatchSyncDelivering, cutoff).
		Updates(map[string]any{
			"status":     enums.BatchSyncPending,
			"claimed_at": nil,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) MarkDelivered(ctx context.Context, batchID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]any{
			"status":       enums.BatchSyncSynced,
			"delivered_at": at,
			"last_error":   nil,
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, batchID uuid.UUID, deliveryErr error) error {
	var message *string
	if deliveryErr != nil {
		msg := deliveryErr.Error()
		message = &msg
	}
	return r.db.WithContext(ctx).
		Model(&models.SyncBatch{}).
		Where("id = ?", batchID).
		Updates(map[string]any{
			"status":     enums.BatchSyncFailed,
			"last_error": message,
		}).Error
}

func (r *repository) MarkSkipped(ctx context.Context, batchID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SyncBatch{}).
		Where("id = ?", batchID).
		Update("status", enums.BatchSyncSkipped).Error
}

// UpdateScanSyncStatus writes the delivery outcome onto the scans. SYNCED is
// terminal: a scan confirmed by an earlier batch is never downgraded when a
// later batch re-carrying it fails.
func (r *repository) UpdateScanSyncStatus(ctx context.Context, scanEventIDs []uuid.UUID, status enums.SyncStatus) error {
	if len(scanEventIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ScanEvent{}).
		Where("id IN ? AND sync_status <> ?", scanEventIDs, enums.SyncSynced).
		Update("sync_status", status).Error
}
