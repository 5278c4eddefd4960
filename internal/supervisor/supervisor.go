// Package supervisor owns the listener accept loop: it admits each new
// connection into the registry's front session and spawns a worker for
// it, returning as soon as the listener is closed on shutdown.
package supervisor

import (
	"context"
	"net"
	"net/http"

	"github.com/rotisserie/eris"

	"nimd/internal/game"
	"nimd/internal/logging"
	"nimd/internal/metrics"
	"nimd/internal/registry"
	"nimd/internal/worker"
)

// Supervisor accepts connections on a single listener and hands each
// one to the registry for admission into a session.
type Supervisor struct {
	listener    net.Listener
	metricsAddr string

	reg *registry.Registry
	log *logging.Logger
	met *metrics.Recorder
}

// New builds a Supervisor listening on addr, with metrics served on
// metricsAddr (empty disables the metrics HTTP server).
func New(addr, metricsAddr string, debug bool) (*Supervisor, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, eris.Wrapf(err, "listen on %s", addr)
	}

	log := logging.New("nimd: ", debug)
	met, handler := metrics.New()

	s := &Supervisor{
		listener:    listener,
		metricsAddr: metricsAddr,
		reg:         registry.New(log, met),
		log:         log,
		met:         met,
	}

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				s.log.Warnf("metrics server: %v", err)
			}
		}()
	}

	return s, nil
}

// Addr returns the address the listener is bound to.
func (s *Supervisor) Addr() net.Addr {
	return s.listener.Addr()
}

// Run accepts connections until ctx is cancelled, at which point it
// closes the listener and returns. Workers already spawned for
// accepted connections are left running: a player that never sends
// OPEN holds its slot indefinitely (spec §5), so waiting for every
// worker to finish would make shutdown hang on an idle peer. Their
// sockets close when the process exits.
func (s *Supervisor) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return eris.Wrap(err, "accept")
			}
		}
		s.admit(conn)
	}
}

// admit places conn into the registry's front session. If that session
// turns out to have no free slot (a race the supervisor resolves by
// retrying rather than preventing, since it alone calls Attach), the
// registry is asked to admit a fresh front session and the attach is
// retried.
func (s *Supervisor) admit(conn net.Conn) {
	var sess *game.Session
	var slot int

	for {
		sess = s.reg.Front()
		var err error
		slot, err = sess.Attach(conn)
		if err == nil {
			break
		}
		s.reg.Admit()
	}

	if slot == 1 && s.met != nil {
		s.met.SessionActive()
	}
	s.log.Debugf("session %d: slot %d attached from %s", sess.Index, slot, conn.RemoteAddr())

	w := worker.New(conn, sess, slot, s.reg, s.log.Session(sess.Index), s.met)
	go w.Run()
}
