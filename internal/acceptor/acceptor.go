// Package acceptor implements the single-threaded accept loop: on a
// listener the caller has already bound, repeatedly accept a
// connection, log it, and dispatch a connection handler for it into
// the pool.
package acceptor

import (
	"fmt"
	"net"

	"aesdsocket/internal/conn"
	"aesdsocket/internal/lifecycle"
	"aesdsocket/internal/pool"
	"aesdsocket/internal/telemetry"
	"github.com/rs/zerolog"
)

// Acceptor owns the listener and the dependencies needed to dispatch
// each accepted connection.
type Acceptor struct {
	Listener net.Listener
	Pool     *pool.Pool
	Handler  *conn.Handler
	RunFlag  *lifecycle.RunFlag
	Metrics  *telemetry.Metrics
	Log      zerolog.Logger
}

// Run drives the accept loop until the run flag is cleared. Shutdown
// is triggered externally by closing the listener (see
// lifecycle.RunFlag.Done and cmd/aesdsocket), which unblocks the
// in-flight Accept call with an error Run treats as a clean exit.
func (a *Acceptor) Run() {
	for a.RunFlag.Running() {
		c, err := a.Listener.Accept()
		if err != nil {
			if !a.RunFlag.Running() {
				return
			}
			a.Log.Error().Err(err).Msg("accept failed, retrying")
			continue
		}

		peer := formatPeer(c.RemoteAddr())
		a.Log.Info().Msg("Accepted connection from " + peer)
		a.Metrics.IncConnectionsAccepted()

		a.Pool.Dispatch(func() {
			a.Handler.Handle(c, peer)
			a.Metrics.IncConnectionsClosed()
		})
	}
}

// formatPeer renders a remote address as the dotted-quad "ADDR:PORT"
// presentation form the spec's log lines use.
func formatPeer(addr net.Addr) string {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return fmt.Sprintf("%s:%d", tcp.IP.String(), tcp.Port)
	}
	return addr.String()
}
