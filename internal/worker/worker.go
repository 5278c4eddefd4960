// Package worker runs the per-connection read loop: one goroutine per
// accepted socket, translating client frames into game transitions and
// relaying the resulting FAIL/WAIT/NAME/PLAY/OVER frames back out.
package worker

import (
	"bufio"
	"errors"
	"io"
	"net"

	"github.com/rotisserie/eris"

	"nimd/internal/game"
	"nimd/internal/logging"
	"nimd/internal/metrics"
	"nimd/internal/protocol"
)

const maxNameLen = 72

// Nameser is the subset of the registry a worker needs: a cross-session
// name collision check. Kept as an interface so tests can fake it.
type Nameser interface {
	NameInUse(name string) bool
}

// Worker drives one accepted connection through its session's state
// machine until the connection closes.
type Worker struct {
	conn     net.Conn
	session  *game.Session
	slot     int
	registry Nameser

	log     *logging.Logger
	metrics *metrics.Recorder
}

// New returns a Worker for conn, already attached to session in slot.
func New(conn net.Conn, session *game.Session, slot int, reg Nameser, log *logging.Logger, rec *metrics.Recorder) *Worker {
	return &Worker{
		conn:     conn,
		session:  session,
		slot:     slot,
		registry: reg,
		log:      log,
		metrics:  rec,
	}
}

// Run is the connection's read loop. It blocks until the connection is
// done, then closes it; callers run it in its own goroutine.
func (w *Worker) Run() {
	if w.metrics != nil {
		w.metrics.ConnectionOpened()
		defer w.metrics.ConnectionClosed()
	}
	defer w.conn.Close()

	reader := bufio.NewReaderSize(w.conn, protocol.MaxPayloadLen+4)
	hasOpened := false

	for {
		payload, err := protocol.ReadFrame(reader)

		slot := w.session.SlotOf(w.conn)
		if slot == 0 {
			// The session no longer tracks this connection: the peer's
			// cleanup already reassigned or cleared this slot.
			return
		}

		if err != nil {
			w.handleReadError(slot, err)
			return
		}

		msg, perr := protocol.ParseClientMessage(payload)
		if perr != nil {
			w.fail(slot, protocol.FailInvalid)
			w.session.Terminate(slot, w.conn)
			return
		}

		if !hasOpened {
			if msg.Verb != protocol.VerbOpen {
				w.fail(slot, protocol.FailNotPlaying)
				w.session.Terminate(slot, w.conn)
				return
			}
			if !w.handleOpen(slot, msg.Name) {
				return
			}
			hasOpened = true
			continue
		}

		switch msg.Verb {
		case protocol.VerbOpen:
			w.fail(slot, protocol.FailAlreadyOpen)
			w.session.Terminate(slot, w.conn)
			return
		case protocol.VerbMove:
			if !w.handleMove(slot, msg.Pile, msg.Qty) {
				return
			}
		}
	}
}

func (w *Worker) handleReadError(slot int, err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		w.log.Debugf("slot %d: connection closed", slot)
	} else if eris.Is(err, protocol.ErrBadFrame) {
		w.log.Debugf("slot %d: malformed frame: %v", slot, err)
		w.fail(slot, protocol.FailInvalid)
	} else {
		w.log.Warnf("slot %d: read error: %v", slot, err)
	}
	w.session.Terminate(slot, w.conn)
}

func (w *Worker) handleOpen(slot int, name string) bool {
	switch {
	case len(name) == 0:
		w.fail(slot, protocol.FailInvalid)
	case len(name) > maxNameLen:
		w.fail(slot, protocol.FailLongName)
	case w.registry.NameInUse(name):
		w.fail(slot, protocol.FailAlreadyPlaying)
	default:
		w.session.CompleteOpen(slot, name)
		return true
	}
	w.session.Terminate(slot, w.conn)
	return false
}

func (w *Worker) handleMove(slot, pile, qty int) bool {
	switch w.session.ApplyMove(slot, pile, qty) {
	case game.MoveApplied:
		return true
	case game.MoveWon:
		w.session.Terminate(slot, w.conn)
		return false
	case game.MoveWrongTurn:
		w.fail(slot, protocol.FailImpatient)
		return true
	case game.MoveBadPile:
		w.fail(slot, protocol.FailPileIndex)
		return true
	case game.MoveBadQuantity:
		w.fail(slot, protocol.FailQuantity)
		return true
	default: // game.MoveNotPlaying
		w.fail(slot, protocol.FailNotPlaying)
		w.session.Terminate(slot, w.conn)
		return false
	}
}

func (w *Worker) fail(slot int, code protocol.FailCode) {
	w.session.WriteFail(slot, code)
}
