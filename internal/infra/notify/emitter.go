package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/neura/fraudshield/internal/domain/alerts"
)

// Metrics holds delivery counters for observation and tests.
type Metrics struct {
	mu          sync.Mutex
	enqueued    uint64
	dropped     uint64
	sinkSuccess map[string]uint64
	sinkFailure map[string]uint64
}

func newMetrics(sinks []alerts.Sink) *Metrics {
	m := &Metrics{
		sinkSuccess: make(map[string]uint64, len(sinks)),
		sinkFailure: make(map[string]uint64, len(sinks)),
	}
	for _, s := range sinks {
		m.sinkSuccess[s.Name()] = 0
		m.sinkFailure[s.Name()] = 0
	}
	return m
}

func (m *Metrics) Enqueued() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enqueued
}

func (m *Metrics) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

func (m *Metrics) SinkSuccess(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sinkSuccess[name]
}

func (m *Metrics) SinkFailure(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sinkFailure[name]
}

// Emitter buffers alerts and delivers them to every sink from background
// workers, so the scan path never blocks on notification delivery. The queue
// drops on overflow; a missed alert is preferable to a stalled pipeline.
type Emitter struct {
	queue           chan *alerts.Alert
	sinks           []alerts.Sink
	metrics         *Metrics
	shutdownTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// EmitterConfig controls queue and worker sizing.
type EmitterConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

// NewEmitter starts background workers delivering to the provided sinks.
func NewEmitter(cfg EmitterConfig, sinks []alerts.Sink) *Emitter {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 2 * time.Second
	}

	em := &Emitter{
		queue:           make(chan *alerts.Alert, queueSize),
		sinks:           sinks,
		metrics:         newMetrics(sinks),
		shutdownTimeout: shutdownTimeout,
	}

	for i := 0; i < workers; i++ {
		em.wg.Add(1)
		go em.worker()
	}

	return em
}

// Emit enqueues without blocking the caller. Alerts arriving after Close or
// into a full queue are counted as dropped.
func (e *Emitter) Emit(ctx context.Context, a *alerts.Alert) {
	if e == nil || a == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		e.metrics.mu.Lock()
		e.metrics.dropped++
		e.metrics.mu.Unlock()
		return
	}

	select {
	case e.queue <- a:
		e.metrics.mu.Lock()
		e.metrics.enqueued++
		e.metrics.mu.Unlock()
	default:
		e.metrics.mu.Lock()
		e.metrics.dropped++
		e.metrics.mu.Unlock()
	}
}

// Close stops accepting alerts and waits briefly to drain the queue.
func (e *Emitter) Close(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	waitCtx := ctx
	if waitCtx == nil {
		waitCtx = context.Background()
	}
	waitCtx, cancel := context.WithTimeout(waitCtx, e.shutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-waitCtx.Done():
	}

	for _, s := range e.sinks {
		if err := s.Close(waitCtx); err != nil {
			log.Printf("notify: sink close failed sink=%s err=%v", s.Name(), err)
		}
	}
}

// MetricsSnapshot exposes the counters for the /metrics endpoint and tests.
func (e *Emitter) MetricsSnapshot() map[string]uint64 {
	out := map[string]uint64{
		"alerts_enqueued": e.metrics.Enqueued(),
		"alerts_dropped":  e.metrics.Dropped(),
	}
	for _, s := range e.sinks {
		out["sink_success:"+s.Name()] = e.metrics.SinkSuccess(s.Name())
		out["sink_failure:"+s.Name()] = e.metrics.SinkFailure(s.Name())
	}
	return out
}

func (e *Emitter) worker() {
	defer e.wg.Done()
	for a := range e.queue {
		e.deliver(a)
	}
}

func (e *Emitter) deliver(a *alerts.Alert) {
	for _, s := range e.sinks {
		if err := s.Deliver(context.Background(), a); err != nil {
			log.Printf("notify: sink delivery failed sink=%s err=%v", s.Name(), err)
			e.metrics.mu.Lock()
			e.metrics.sinkFailure[s.Name()]++
			e.metrics.mu.Unlock()
			continue
		}
		e.metrics.mu.Lock()
		e.metrics.sinkSuccess[s.Name()]++
		e.metrics.mu.Unlock()
	}
}
