// Package ticker implements the timestamp task: a single long-lived
// task dispatched into the pool at startup that, every ten seconds,
// appends a fixed-width timestamp record to the store — but only when
// at least one connection handler is currently live. It never sends a
// snapshot.
package ticker

import (
	"fmt"
	"sync"
	"time"

	"aesdsocket/internal/lifecycle"
	"aesdsocket/internal/pool"
	"aesdsocket/internal/store"
	"aesdsocket/internal/telemetry"
	"github.com/rs/zerolog"
)

// recordLen is the exact byte length of a timestamp record —
// "timestamp:" (10) + "YYYY:MM:DD:HH:MM:SS" (19) + "\n" (1). The
// format is asserted against this length at the point of formatting
// rather than assumed, per the design note this carries forward: the
// original C source declares the buffer 30 bytes wide but never
// checks it actually came out that way.
const recordLen = 30

const timeLayout = "2006:01:02:15:04:05"

// Ticker owns the dependencies the timestamp task needs: the pool it
// was dispatched from (to check LiveCount and opportunistically drain
// CleanupWorkers), the store and the file mutex guarding it, and the
// process run flag.
type Ticker struct {
	Pool     *pool.Pool
	Store    *store.Store
	FileLock *sync.Mutex
	RunFlag  *lifecycle.RunFlag
	Interval time.Duration // defaults to 10s when zero
	Metrics  *telemetry.Metrics
	Log      zerolog.Logger

	// self is the number of the pool's live workers that belong to the
	// ticker itself: 1 while Run executes, 0 otherwise. tick subtracts
	// it from the pool's live count.
	self int
}

// Run executes the ticker loop. It is dispatched as a pool task:
// pool.Dispatch(ticker.Run). While it runs, its own worker is not
// counted as a live connection handler.
func (t *Ticker) Run() {
	t.self = 1
	defer func() { t.self = 0 }()

	interval := t.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for t.RunFlag.Running() {
		select {
		case <-tick.C:
		case <-t.RunFlag.Done():
			return
		}
		if !t.RunFlag.Running() {
			return
		}
		t.tick()
	}
}

func (t *Ticker) tick() {
	record, err := formatTimestamp(time.Now())
	if err != nil {
		t.Log.Error().Err(err).Msg("timestamp format invariant violated, skipping tick")
		return
	}

	// Opportunistically join anything finished since the last wake,
	// same as a connection dispatch would. This and the append below
	// are two separate critical sections, under two separate locks —
	// the pool lock is released before the file lock is taken, so
	// neither ever nests inside the other.
	t.Pool.DrainCleanup()
	live := t.Pool.LiveCount()

	t.FileLock.Lock()
	defer t.FileLock.Unlock()

	if live-t.self <= 0 {
		return
	}
	n, err := t.Store.Append(record)
	if err != nil {
		t.Log.Error().Err(err).Msg("timestamp append failed")
		return
	}
	t.Metrics.AddAppendBytes(n)
	t.Metrics.SetStoreSize(t.Store.Size())
}

// formatTimestamp renders the exact bytes
// "timestamp:YYYY:MM:DD:HH:MM:SS\n" in local time and asserts the
// result is exactly recordLen bytes before returning it.
func formatTimestamp(now time.Time) ([]byte, error) {
	record := []byte("timestamp:" + now.Format(timeLayout) + "\n")
	if len(record) != recordLen {
		return nil, fmt.Errorf("timestamp record is %d bytes, want %d", len(record), recordLen)
	}
	return record, nil
}
