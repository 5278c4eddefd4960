// Package registry tracks the dense, growable slab of game sessions
// and picks which session a newly accepted connection should join.
package registry

import (
	"sync"

	"nimd/internal/game"
	"nimd/internal/logging"
	"nimd/internal/metrics"
)

const initialCapacity = 16

// Registry owns the slab of sessions and the "front" index the
// supervisor hands new connections to. Its lock is always taken before
// any individual session's lock, never after: Admit holds it while it
// reads and resets sessions, and NameInUse releases it before it checks
// any session.
type Registry struct {
	mu       sync.Mutex
	sessions []*game.Session
	front    int // index of the session new connections should join

	log     *logging.Logger
	metrics *metrics.Recorder
}

// New returns a registry holding one freshly created session, so
// Front never needs to special-case an empty slab.
func New(log *logging.Logger, rec *metrics.Recorder) *Registry {
	r := &Registry{
		sessions: make([]*game.Session, 0, initialCapacity),
		log:      log,
		metrics:  rec,
	}
	r.sessions = append(r.sessions, game.New(0, log, rec))
	return r
}

// Front returns the session new connections should attach to. Admit
// must have been called (or New, for the very first session) before
// this is meaningful.
func (r *Registry) Front() *game.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[r.front]
}

// Admit finds a reusable session (one in AWAITING_FIRST_PLAYER,
// AWAITING_SECOND_PLAYER, or GAME_OVER) and swaps it to the front,
// resetting it first if it was GAME_OVER. If none exists, it grows the
// slab (doubling capacity when full) and appends a fresh session as
// the new front. Either way, Front() returns a session ready to accept
// a connection after Admit returns.
func (r *Registry) Admit() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.sessions {
		switch s.State() {
		case game.StateAwaitingFirstPlayer, game.StateAwaitingSecondPlayer, game.StateGameOver:
			if s.State() == game.StateGameOver {
				s.Reset()
				if r.metrics != nil {
					r.metrics.SessionIdle()
				}
			}
			if i != r.front {
				r.sessions[r.front], r.sessions[i] = r.sessions[i], r.sessions[r.front]
				r.sessions[r.front].Index = r.front
				r.sessions[i].Index = i
			}
			return
		}
	}

	index := len(r.sessions)
	r.sessions = append(r.sessions, game.New(index, r.log, r.metrics))
	r.front = index
}

// NameInUse reports whether name is currently held by any non-idle
// session in the registry. It takes the registry lock only to snapshot
// the slab, then checks each session through its own lock — never
// holding the registry lock and a session lock at once.
func (r *Registry) NameInUse(name string) bool {
	r.mu.Lock()
	sessions := make([]*game.Session, len(r.sessions))
	copy(sessions, r.sessions)
	r.mu.Unlock()

	for _, s := range sessions {
		if s.HasName(name) {
			return true
		}
	}
	return false
}

// Len reports how many sessions the registry has ever created.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
