// Package lifecycle implements the process-wide run flag and the
// signal handler that clears it. The run flag is the single piece of
// state every loop in the server (acceptor, connection handlers,
// ticker) observes between I/O steps; clearing it is the only thing
// the signal handler does.
package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"
)

// RunFlag is the atomic sentinel described in the spec: set at
// construction, cleared exactly once from the signal handler (or by a
// direct call to Stop in tests), observed by every loop via Running.
// Done returns a channel that closes the moment the flag is cleared,
// so blocking waits (the ticker's interval, for instance) can be
// interrupted promptly instead of polling.
type RunFlag struct {
	running atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// NewRunFlag returns a RunFlag in the running state.
func NewRunFlag() *RunFlag {
	r := &RunFlag{done: make(chan struct{})}
	r.running.Store(true)
	return r
}

// Running reports whether the flag is still set.
func (r *RunFlag) Running() bool {
	return r.running.Load()
}

// Stop clears the flag and closes Done. Safe to call more than once
// or concurrently; only the first call has any effect.
func (r *RunFlag) Stop() {
	r.once.Do(func() {
		r.running.Store(false)
		close(r.done)
	})
}

// Done returns a channel that is closed once Stop has been called.
func (r *RunFlag) Done() <-chan struct{} {
	return r.done
}

// InstallSignalHandler installs a shared handler for SIGINT and
// SIGTERM that clears run, logs "Caught signal, exiting", and performs
// no other I/O — teardown is the caller's job once loops observing
// run unwind on their own. It returns a function that stops listening
// for signals; callers should defer it so tests can install and tear
// down a handler repeatedly without leaking goroutines.
func InstallSignalHandler(run *RunFlag, logger zerolog.Logger) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	doneListening := make(chan struct{})
	go func() {
		defer close(doneListening)
		select {
		case <-sigCh:
			logger.Info().Msg("Caught signal, exiting")
			run.Stop()
		case <-run.Done():
			// run was stopped some other way (e.g. a test); stop listening.
		}
	}()

	return func() {
		signal.Stop(sigCh)
		run.Stop()
		<-doneListening
	}
}
