package gpu

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Work is a unit of GPU-side execution submitted to a SoftQueue.
type Work func() error

type queueItem struct {
	work   Work
	signal uint64
}

// SoftQueue is a software GPU queue: a single goroutine executes submitted
// work strictly in submission order and retires signal values once all the
// work ahead of them has run. A failing work item loses the device.
// Submit, Signal and Close belong to the submitting goroutine; Completed and
// Wait may be called from anywhere.
type SoftQueue struct {
	log     *zap.Logger
	latency time.Duration

	items chan queueItem
	done  chan struct{}

	mu        sync.Mutex
	cond      *sync.Cond
	completed uint64
	signaled  uint64
	lost      error
	closed    bool
}

// NewSoftQueue starts a queue. latency is slept before each work item to
// keep the simulated GPU behind the CPU.
func NewSoftQueue(log *zap.Logger, latency time.Duration, depth int) *SoftQueue {
	if depth <= 0 {
		depth = 64
	}
	q := &SoftQueue{
		log:     log,
		latency: latency,
		items:   make(chan queueItem, depth),
		done:    make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *SoftQueue) run() {
	defer close(q.done)
	for item := range q.items {
		if item.work != nil {
			if q.latency > 0 {
				time.Sleep(q.latency)
			}
			if err := item.work(); err != nil {
				q.log.Error("gpu work failed", zap.Error(err))
				q.mu.Lock()
				if q.lost == nil {
					q.lost = fmt.Errorf("%w: %v", ErrDeviceLost, err)
				}
				q.mu.Unlock()
				q.cond.Broadcast()
			}
			continue
		}
		q.mu.Lock()
		if q.lost == nil {
			q.completed = item.signal
		}
		q.mu.Unlock()
		q.cond.Broadcast()
	}
}

// Submit enqueues work behind everything already submitted.
func (q *SoftQueue) Submit(work Work) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("gpu: submit on closed queue")
	}
	if q.lost != nil {
		err := q.lost
		q.mu.Unlock()
		return err
	}
	q.mu.Unlock()
	q.items <- queueItem{work: work}
	return nil
}

// Completed implements Timeline.
func (q *SoftQueue) Completed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed
}

// Signal implements Timeline.
func (q *SoftQueue) Signal(value uint64) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("gpu: signal on closed queue")
	}
	if value <= q.signaled {
		prev := q.signaled
		q.mu.Unlock()
		return fmt.Errorf("%w: signal %d after %d", ErrFenceOrder, value, prev)
	}
	q.signaled = value
	q.mu.Unlock()
	q.items <- queueItem{signal: value}
	return nil
}

// Wait implements Timeline.
func (q *SoftQueue) Wait(value uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.completed < value {
		if q.lost != nil {
			return q.lost
		}
		if q.closed && value > q.signaled {
			return fmt.Errorf("%w: value %d was never signalled", ErrDeviceLost, value)
		}
		q.cond.Wait()
	}
	return nil
}

// Close stops accepting work and waits for the queue to drain.
func (q *SoftQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	close(q.items)
	<-q.done
	q.cond.Broadcast()
}
