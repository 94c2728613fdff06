package bridge

import (
	"context"

	"github.com/google/uuid"

	"github.com/ecomops/logiscan-backend/pkg/logger"
)

// DefaultQueueDepth bounds the in-flight handoff queue when unconfigured.
const DefaultQueueDepth = 64

// Dispatcher hands committed batches to the delivery service on a background
// goroutine. Enqueue never blocks the scanning path: a full queue drops the
// handoff and the batch stays PENDING for the poll worker.
type Dispatcher struct {
	logg  *logger.Logger
	svc   Service
	queue chan uuid.UUID
	done  chan struct{}
}

// NewDispatcher builds a dispatcher with the given queue depth.
func NewDispatcher(logg *logger.Logger, svc Service, depth int) *Dispatcher {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Dispatcher{
		logg:  logg,
		svc:   svc,
		queue: make(chan uuid.UUID, depth),
		done:  make(chan struct{}),
	}
}

// Notify enqueues a batch for delivery.
func (d *Dispatcher) Notify(batchID uuid.UUID) {
	select {
	case d.queue <- batchID:
	default:
		ctx := d.logg.WithBatchID(context.Background(), batchID.String())
		d.logg.Warn(ctx, "bridge queue full, batch deferred to poll worker")
	}
}

// Start runs the delivery loop until the context is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		defer close(d.done)
		for {
			select {
			case <-ctx.Done():
				return
			case batchID := <-d.queue:
				if err := d.svc.Deliver(ctx, batchID); err != nil {
					d.logg.Error(d.logg.WithBatchID(ctx, batchID.String()), "bridge delivery error", err)
				}
			}
		}
	}()
}

// Wait blocks until the delivery loop has exited.
func (d *Dispatcher) Wait() {
	<-d.done
}
