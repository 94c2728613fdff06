package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/internal/scans"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	"github.com/ecomops/logiscan-backend/pkg/enums"
	"github.com/ecomops/logiscan-backend/pkg/logger"
	"github.com/ecomops/logiscan-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service delivers committed sync batches to the main backend. Delivery is
// best effort: a batch failure is recorded on the row and never surfaced to
// the scanning path.
type Service interface {
	Deliver(ctx context.Context, batchID uuid.UUID) error
}

// ServiceParams bundles the bridge service dependencies.
type ServiceParams struct {
	Config  config.BridgeConfig
	Logger  *logger.Logger
	Repo    Repository
	Tx      txRunner
	Client  Client
	Metrics *metrics.BridgeMetrics
}

type service struct {
	cfg     config.BridgeConfig
	logg    *logger.Logger
	repo    Repository
	tx      txRunner
	client  Client
	metrics *metrics.BridgeMetrics
}

// NewService builds the bridge delivery service.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("bridge repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	client := params.Client
	if client == nil {
		client = NewClient(params.Config)
	}
	return &service{
		cfg:     params.Config,
		logg:    params.Logger,
		repo:    params.Repo,
		tx:      params.Tx,
		client:  client,
		metrics: params.Metrics,
	}, nil
}

// Deliver posts one batch to the main backend and records the outcome. Only a
// transport timeout earns a single retry; any other failure marks the batch
// FAILED immediately. Outcome write-backs run in their own transaction and
// their errors are logged, never returned.
func (s *service) Deliver(ctx context.Context, batchID uuid.UUID) error {
	started := time.Now()
	ctx = s.logg.WithBatchID(ctx, batchID.String())

	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			s.logg.Warn(ctx, "sync batch not found")
			return nil
		}
		return fmt.Errorf("load sync batch %s: %w", batchID, err)
	}
	if batch.Status != enums.BatchSyncPending {
		s.logg.Info(s.logg.WithField(ctx, "status", batch.Status), "sync batch already claimed or resolved")
		return nil
	}

	var items []scans.BatchPayloadItem
	if err := json.Unmarshal(batch.Payload, &items); err != nil {
		s.writeBack(ctx, batch, func(repo Repository) error {
			return repo.MarkFailed(ctx, batch.ID, fmt.Errorf("decode payload: %w", err))
		})
		s.observe("failed", started)
		return nil
	}

	if !s.cfg.Configured() || len(items) == 0 {
		s.writeBack(ctx, batch, func(repo Repository) error {
			return repo.MarkSkipped(ctx, batch.ID)
		})
		s.logg.Info(ctx, "sync batch skipped")
		s.observe("skipped", started)
		return nil
	}

	claimed, err := s.repo.Claim(ctx, batch.ID)
	if err != nil {
		return fmt.Errorf("claim sync batch %s: %w", batchID, err)
	}
	if !claimed {
		return nil
	}

	deliveryErr := s.send(ctx, batch, items)
	scanIDs := scanEventIDs(items)

	if deliveryErr != nil {
		s.logg.Error(ctx, "sync batch delivery failed", deliveryErr)
		s.writeBack(ctx, batch, func(repo Repository) error {
			return multierr.Append(
				repo.MarkFailed(ctx, batch.ID, deliveryErr),
				repo.UpdateScanSyncStatus(ctx, scanIDs, enums.SyncFailed),
			)
		})
		s.observe("failed", started)
		return nil
	}

	deliveredAt := time.Now().UTC()
	s.writeBack(ctx, batch, func(repo Repository) error {
		return multierr.Append(
			repo.MarkDelivered(ctx, batch.ID, deliveredAt),
			repo.UpdateScanSyncStatus(ctx, scanIDs, enums.SyncSynced),
		)
	})
	s.logg.Info(s.logg.WithField(ctx, "scan_count", len(items)), "sync batch delivered")
	s.observe("synced", started)
	return nil
}

func (s *service) send(ctx context.Context, batch *models.SyncBatch, items []scans.BatchPayloadItem) error {
	req := DeliveryRequest{
		BatchID:        batch.ID,
		TenantID:       batch.TenantID,
		FlowType:       batch.FlowType,
		OperatorEmail:  batch.OperatorEmail,
		TotalScans:     batch.TotalScans,
		InsertedScans:  batch.InsertedScans,
		DuplicateScans: batch.DuplicateScans,
		SubmittedAt:    batch.CreatedAt,
		Items:          items,
	}

	err := s.client.Send(ctx, req)
	if err == nil {
		return nil
	}
	if !IsTimeout(err) {
		return err
	}

	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "sync batch delivery timed out, retrying once")
	return s.client.Send(ctx, req)
}

// writeBack persists a delivery outcome in its own transaction. A write-back
// failure leaves the batch row stale but must not fail the delivery path.
func (s *service) writeBack(ctx context.Context, batch *models.SyncBatch, fn func(repo Repository) error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(s.repo.WithTx(tx))
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "batch_id", batch.ID.String()), "sync batch outcome write-back failed", err)
	}
}

func (s *service) observe(outcome string, started time.Time) {
	s.metrics.ObserveDelivery(outcome, time.Since(started))
}

func scanEventIDs(items []scans.BatchPayloadItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ScanEventID)
	}
	return ids
}
