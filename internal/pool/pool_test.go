package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool() *Pool {
	return New(zerolog.Nop(), nil)
}

func TestDispatchRunsTask(t *testing.T) {
	p := newTestPool()
	done := make(chan struct{})
	p.Dispatch(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestLiveCountReflectsInFlightTasks(t *testing.T) {
	p := newTestPool()
	release := make(chan struct{})
	started := make(chan struct{})

	p.Dispatch(func() {
		close(started)
		<-release
	})

	<-started
	require.Eventually(t, func() bool { return p.LiveCount() == 1 }, time.Second, time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return p.LiveCount() == 0 }, time.Second, time.Millisecond)
}

func TestDispatchDrainsCleanupOnNextDispatch(t *testing.T) {
	p := newTestPool()
	first := make(chan struct{})
	p.Dispatch(func() { close(first) })
	<-first

	// Give the worker a moment to self-migrate into cleanup.
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.cleanup.Size() == 1 || p.live.Size() == 0
	}, time.Second, time.Millisecond)

	// Hold the second worker live so it cannot refill the cleanup deque
	// before the check below.
	second := make(chan struct{})
	release := make(chan struct{})
	p.Dispatch(func() {
		close(second)
		<-release
	})
	<-second

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.cleanup.Size() == 0
	}, time.Second, time.Millisecond, "cleanup deque should drain on the following dispatch")
	close(release)
}

func TestShutdownJoinsInFlightWorker(t *testing.T) {
	p := newTestPool()
	release := make(chan struct{})
	started := make(chan struct{})
	finished := make(chan struct{})

	p.Dispatch(func() {
		close(started)
		<-release
		close(finished)
	})
	<-started

	shutdownDone := make(chan struct{})
	go func() {
		p.Shutdown()
		close(shutdownDone)
	}()

	select {
	case <-shutdownDone:
		t.Fatal("shutdown returned before in-flight worker finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-finished

	select {
	case <-shutdownDone:
	case <-time.After(time.Second):
		t.Fatal("shutdown never joined the worker")
	}
}

func TestDispatchAfterShutdownIsNoop(t *testing.T) {
	p := newTestPool()
	p.Shutdown()

	ran := false
	p.Dispatch(func() { ran = true })
	time.Sleep(20 * time.Millisecond)
	assert.False(t, ran, "task dispatched after shutdown must not run")
}

func TestConcurrentDispatchNoRaceOnLiveCount(t *testing.T) {
	p := newTestPool()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Dispatch(func() {
			defer wg.Done()
		})
	}
	wg.Wait()
	p.Shutdown()
}
