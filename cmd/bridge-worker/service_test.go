package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/logger"
)

type fakeDB struct {
	pingErr error
}

func (f fakeDB) Ping(context.Context) error {
	return f.pingErr
}

type fakeLister struct {
	mu         sync.Mutex
	pages      [][]uuid.UUID
	err        error
	stale      int64
	requeueErr error
	cutoffs    []time.Time
}

func (f *fakeLister) ListPendingIDs(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pages) == 0 {
		return nil, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeLister) RequeueStale(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.stale, f.requeueErr
}

type fakeBridge struct {
	mu        sync.Mutex
	delivered []uuid.UUID
	err       error
}

func (f *fakeBridge) Deliver(ctx context.Context, batchID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, batchID)
	return f.err
}

func (f *fakeBridge) deliveredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func workerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Bridge.BatchSize = 5
	cfg.Bridge.PollIntervalMS = 10
	return cfg
}

func workerLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "bridge-worker-test",
		Level:       zerolog.ErrorLevel,
		Output:      io.Discard,
	})
}

func newTestService(t *testing.T, lister *fakeLister, br *fakeBridge) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config: workerConfig(),
		Logger: workerLogger(),
		DB:     fakeDB{},
		Repo:   lister,
		Bridge: br,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestProcessBatchDeliversPendingIDs(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	lister := &fakeLister{pages: [][]uuid.UUID{ids}}
	br := &fakeBridge{}
	svc := newTestService(t, lister, br)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatalf("expected processed true")
	}
	if br.deliveredCount() != len(ids) {
		t.Fatalf("expected %d deliveries got %d", len(ids), br.deliveredCount())
	}
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	svc := newTestService(t, &fakeLister{}, &fakeBridge{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if processed {
		t.Fatalf("expected processed false for empty queue")
	}
}

func TestProcessBatchRequeuesStaleClaimsFirst(t *testing.T) {
	lister := &fakeLister{stale: 2}
	svc := newTestService(t, lister, &fakeBridge{})

	before := time.Now().UTC().Add(-staleClaimAfter)
	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}

	lister.mu.Lock()
	defer lister.mu.Unlock()
	if len(lister.cutoffs) != 1 {
		t.Fatalf("expected one requeue call got %d", len(lister.cutoffs))
	}
	if lister.cutoffs[0].Before(before) || lister.cutoffs[0].After(time.Now().UTC()) {
		t.Fatalf("cutoff %s not within the stale window", lister.cutoffs[0])
	}
}

func TestProcessBatchSurfacesRequeueError(t *testing.T) {
	lister := &fakeLister{requeueErr: errors.New("deadlock detected")}
	svc := newTestService(t, lister, &fakeBridge{})

	if _, err := svc.processBatch(context.Background()); err == nil {
		t.Fatalf("expected requeue error to surface")
	}
}

func TestProcessBatchSurfacesListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	svc := newTestService(t, lister, &fakeBridge{})

	if _, err := svc.processBatch(context.Background()); err == nil {
		t.Fatalf("expected list error to surface")
	}
}

func TestProcessBatchContinuesPastDeliveryError(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	lister := &fakeLister{pages: [][]uuid.UUID{ids}}
	br := &fakeBridge{err: errors.New("boom")}
	svc := newTestService(t, lister, br)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if !processed {
		t.Fatalf("expected processed true")
	}
	if br.deliveredCount() != len(ids) {
		t.Fatalf("expected all deliveries attempted got %d", br.deliveredCount())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	lister := &fakeLister{pages: [][]uuid.UUID{{uuid.New()}}}
	br := &fakeBridge{}
	svc := newTestService(t, lister, br)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.Run(ctx)
	}()

	deadline := time.After(2 * time.Second)
	for br.deliveredCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("worker never delivered the seeded batch")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop after cancel")
	}
}

func TestRunFailsWhenDatabaseUnreachable(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Config: workerConfig(),
		Logger: workerLogger(),
		DB:     fakeDB{pingErr: errors.New("dial tcp: refused")},
		Repo:   &fakeLister{},
		Bridge: &fakeBridge{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness failure")
	}
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 100 * time.Millisecond
	b := nextBackoff(0, base, time.Second)
	if b != 200*time.Millisecond {
		t.Fatalf("expected 200ms got %s", b)
	}
	b = nextBackoff(800*time.Millisecond, base, time.Second)
	if b != time.Second {
		t.Fatalf("expected cap at 1s got %s", b)
	}
}

func TestWithJitterBounds(t *testing.T) {
	base := 50 * time.Millisecond
	for i := 0; i < 100; i++ {
		d := withJitter(base)
		if d < base || d >= base+jitterWindow {
			t.Fatalf("jittered value %s out of range", d)
		}
	}
	if withJitter(0) != 0 {
		t.Fatalf("expected zero passthrough")
	}
}
