package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/metrics"
)

const deliverTimeout = 5 * time.Second

// Sink receives batches of events from the dispatcher workers.
type Sink interface {
	Deliver(ctx context.Context, events []Event) error
}

// Dispatcher batches events and hands them to a Sink on a small worker pool.
// Notify never blocks: when the queue is full the event is dropped.
type Dispatcher struct {
	workerCount int
	batchSize   int
	timeout     time.Duration
	sink        Sink
	logger      *zap.Logger

	inputChan  chan Event
	batchChan  chan []Event
	shutdownCh chan struct{}
	once       sync.Once
	closed     atomic.Bool
	dropped    atomic.Int64

	wg sync.WaitGroup
}

func NewDispatcher(sink Sink, workerCount, batchSize int, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		sink:        sink,
		logger:      logger.With(zap.String("component", "dispatcher")),
		inputChan:   make(chan Event, workerCount*batchSize*2),
		batchChan:   make(chan []Event, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("starting dispatcher", zap.Int("workers", d.workerCount), zap.Int("batch_size", d.batchSize))
	d.wg.Add(1)
	go d.runAggregator()

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.runWorker(i)
	}

	go func() {
		select {
		case <-ctx.Done():
			d.Shutdown(context.Background())
		case <-d.shutdownCh:
		}
	}()
}

func (d *Dispatcher) Notify(ev Event) {
	if d.closed.Load() {
		d.drop(ev, "dispatcher stopped")
		return
	}
	select {
	case d.inputChan <- ev:
	default:
		d.drop(ev, "queue full")
	}
}

// Dropped reports how many events were discarded since start.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Shutdown stops accepting events, flushes what is queued and waits for the
// workers until ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	d.once.Do(func() {
		d.logger.Info("initiating dispatcher shutdown")
		d.closed.Store(true)
		close(d.shutdownCh)

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			d.logger.Info("dispatcher shutdown completed")
		case <-ctx.Done():
			d.logger.Warn("dispatcher shutdown interrupted", zap.Error(ctx.Err()))
		}
	})
}

func (d *Dispatcher) drop(ev Event, reason string) {
	d.dropped.Add(1)
	metrics.NotificationsDroppedTotal.Inc()
	d.logger.Warn("notification dropped",
		zap.String("reason", reason),
		zap.String("entity_type", ev.EntityType),
		zap.String("entity_id", ev.EntityID),
		zap.String("status", ev.Status),
	)
}

func (d *Dispatcher) runAggregator() {
	defer d.wg.Done()

	var (
		batch    []Event
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	drain:
		for {
			select {
			case ev := <-d.inputChan:
				batch = append(batch, ev)
				if len(batch) >= d.batchSize {
					d.dispatchBatch(batch)
					batch = nil
				}
			default:
				break drain
			}
		}
		if len(batch) > 0 {
			d.dispatchBatch(batch)
		}
		close(d.batchChan)
	}()

	for {
		select {
		case ev := <-d.inputChan:
			batch = append(batch, ev)
			if len(batch) >= d.batchSize {
				d.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(d.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			d.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-d.shutdownCh:
			return
		}
	}
}

func (d *Dispatcher) dispatchBatch(batch []Event) {
	batchCopy := make([]Event, len(batch))
	copy(batchCopy, batch)
	d.batchChan <- batchCopy
}

func (d *Dispatcher) runWorker(id int) {
	defer d.wg.Done()
	logger := d.logger.With(zap.Int("worker", id))
	logger.Debug("worker started")

	for batch := range d.batchChan {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := d.sink.Deliver(ctx, batch); err != nil {
			logger.Error("failed to deliver notifications", zap.Int("events", len(batch)), zap.Error(err))
		}
		cancel()
	}
	logger.Debug("worker exiting")
}
