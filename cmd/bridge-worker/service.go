package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/internal/bridge"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/logger"
)

const (
	defaultBatchSize = 20
	defaultPollMs    = 2000
	maxBackoff       = 30 * time.Second
	jitterWindow     = 250 * time.Millisecond

	// staleClaimAfter bounds how long a DELIVERING claim may sit before a
	// crashed deliverer's batch is returned to the queue. It must exceed the
	// worst delivery attempt (timeout, one retry, write-back).
	staleClaimAfter = 10 * time.Minute
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
}

type batchLister interface {
	ListPendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error)
	RequeueStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type ServiceParams struct {
	Config *config.Config
	Logger *logger.Logger
	DB     dbClient
	Repo   batchLister
	Bridge bridge.Service
}

// Service polls PENDING sync batches and funnels them through the bridge
// delivery path. It is the at-least-once recovery net behind the in-process
// dispatcher: batches the dispatcher dropped or lost to a crash land here.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	repo         batchLister
	bridge       bridge.Service
	batchSize    int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repo == nil {
		return nil, errors.New("sync batch repository is required")
	}
	if params.Bridge == nil {
		return nil, errors.New("bridge service is required")
	}

	batch := params.Config.Bridge.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Bridge.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repo,
		bridge:       params.Bridge,
		batchSize:    batch,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	return pingDependency(ctx, s.logg, "database", s.db.Ping)
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "bridge worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "bridge worker batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch drains one page of PENDING batches. Individual delivery
// failures are recorded on the batch row by Deliver and do not abort the page.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	requeued, err := s.repo.RequeueStale(ctx, time.Now().UTC().Add(-staleClaimAfter))
	if err != nil {
		return false, err
	}
	if requeued > 0 {
		s.logg.Info(s.logg.WithField(ctx, "count", requeued), "stale sync batch claims requeued")
	}

	ids, err := s.repo.ListPendingIDs(ctx, s.batchSize)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return false, nil
	}

	for _, id := range ids {
		if err := s.bridge.Deliver(ctx, id); err != nil {
			if errors.Is(err, context.Canceled) {
				return true, nil
			}
			s.logg.Error(s.logg.WithBatchID(ctx, id.String()), "bridge delivery error", err)
		}
	}
	return true, nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
