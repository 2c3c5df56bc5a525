// Package pool implements the dynamic worker-dispatch pool: one
// goroutine is spawned per dispatched task, tracked in a "live" deque
// until it finishes, then migrated to a "cleanup" deque awaiting join.
// Joining is opportunistic — drained on every Dispatch call and fully
// drained on Shutdown — mirroring the original C thread pool's
// pool_cleanup() behavior, with pthread_join replaced by receiving
// from a per-worker done channel.
package pool

import (
	"sync"

	"aesdsocket/internal/deque"
	"aesdsocket/internal/telemetry"
	"github.com/rs/zerolog"
)

// Task is the unit of work dispatched into the pool. Unlike the
// original C design's (fn, arg) pair, a Go closure already captures
// its argument, so Task needs only the function itself.
type Task func()

// worker is the pool's bookkeeping record for one dispatched task. It
// plays the role the original design gave a bare pthread_t: an
// identifier that lives in exactly one of the live or cleanup deques
// until it is joined.
type worker struct {
	done chan struct{}
	node *deque.Node[*worker] // this worker's own handle in whichever deque holds it
}

// Pool owns the live/cleanup deques, the lock serializing all access
// to them, and the kill flag. The zero value is not usable; use New.
type Pool struct {
	mu      sync.Mutex
	live    deque.Deque[*worker]
	cleanup deque.Deque[*worker]
	killed  bool

	log     zerolog.Logger
	metrics *telemetry.Metrics
}

// New builds an empty pool. logger is used for pool-lifecycle
// messages; metrics may be nil to disable telemetry.
func New(logger zerolog.Logger, metrics *telemetry.Metrics) *Pool {
	return &Pool{
		log:     logger.With().Str("component", "pool").Logger(),
		metrics: metrics,
	}
}

// Dispatch spawns a goroutine to run task. It first registers the
// worker in the live deque (recording its own node handle so the
// worker can remove itself in O(1) on completion), then spawns the
// goroutine, then opportunistically drains the cleanup deque —
// exactly the order the original pool_dispatch() follows.
//
// Dispatch is a no-op once the pool has been shut down.
func (p *Pool) Dispatch(task Task) {
	p.mu.Lock()
	if p.killed {
		p.mu.Unlock()
		p.log.Warn().Msg("dispatch after shutdown ignored")
		return
	}

	w := &worker{done: make(chan struct{})}
	w.node = p.live.PushBack(w)
	p.updateGauges()

	go p.runTask(w, task)

	p.drainCleanupLocked()
	p.mu.Unlock()
}

// runTask executes task to completion, contains any panic it raises
// (a failure inside a worker must never take the process down), then
// performs the worker's own self-removal from the live deque into the
// cleanup deque — unless the pool has since been killed, in which
// case the destroyer already owns this worker's join.
func (p *Pool) runTask(w *worker, task Task) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().Interface("panic", r).Msg("task panicked, recovered")
			}
		}()
		task()
	}()

	p.mu.Lock()
	if !p.killed {
		_ = p.live.Delete(w.node)
		w.node = p.cleanup.PushBack(w)
		p.updateGauges()
	}
	p.mu.Unlock()

	close(w.done)
}

// drainCleanupLocked joins (waits for) every worker currently in the
// cleanup deque. Caller must hold p.mu. Each done channel is already
// closed or about to close momentarily by the time it reaches the
// cleanup deque, so this never blocks meaningfully in practice — it
// is a wait for a formality, matching the "join what's finished"
// contract rather than a real scheduling dependency.
func (p *Pool) drainCleanupLocked() {
	for p.cleanup.Size() > 0 {
		w, err := p.cleanup.PopFront()
		if err != nil {
			break
		}
		<-w.done
	}
	p.updateGauges()
}

// LiveCount returns the number of goroutines currently executing a
// dispatched task. The timestamp ticker uses this to decide whether
// any connection handler is live before appending a timestamp record.
func (p *Pool) LiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live.Size()
}

// DrainCleanup joins everything currently in the cleanup deque. The
// ticker calls this opportunistically on every wake, matching the
// original design's "under the pool lock, opportunistically join
// anything in CleanupWorkers" step.
func (p *Pool) DrainCleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drainCleanupLocked()
}

// Shutdown sets the kill flag under the lock (so no worker touches
// either deque from that point on), then joins every worker still in
// the live deque directly — they have finished or will finish running
// their task, but the kill flag now inhibits their self-cleanup, so
// the destroyer must join them itself — and finally drains whatever
// was already in the cleanup deque.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	p.killed = true
	liveWorkers := p.live.PopAll()
	cleanupWorkers := p.cleanup.PopAll()
	p.updateGauges()
	p.mu.Unlock()

	for _, w := range liveWorkers {
		<-w.done
	}
	for _, w := range cleanupWorkers {
		<-w.done
	}

	p.log.Info().Msg("pool shut down, all workers joined")
}

// updateGauges pushes current deque sizes to telemetry. Caller must
// hold p.mu.
func (p *Pool) updateGauges() {
	p.metrics.SetLiveWorkers(p.live.Size())
	p.metrics.SetCleanupWorkers(p.cleanup.Size())
}
