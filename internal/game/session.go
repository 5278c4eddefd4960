// Package game implements the per-session board, player slots, and the
// game state machine described by the nimd protocol: connection
// lifecycle, turn ordering, move validation, and win/forfeit semantics.
package game

import (
	"errors"
	"net"
	"sync"

	"nimd/internal/logging"
	"nimd/internal/metrics"
	"nimd/internal/protocol"
)

// State is one of the six session lifecycle states.
type State int

const (
	StateAwaitingFirstPlayer State = iota
	StateAwaitingSecondPlayer
	StateGameStart
	StateP1Turn
	StateP2Turn
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateAwaitingFirstPlayer:
		return "AWAITING_FIRST_PLAYER"
	case StateAwaitingSecondPlayer:
		return "AWAITING_SECOND_PLAYER"
	case StateGameStart:
		return "GAME_START"
	case StateP1Turn:
		return "P1_TURN"
	case StateP2Turn:
		return "P2_TURN"
	case StateGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN_STATE"
	}
}

// ErrSessionBusy is returned by Attach when the session has no free slot.
var ErrSessionBusy = errors.New("game: session has no free slot")

// Player is one occupied slot: the live connection and the name it
// opened with (empty until OPEN is processed). wmu serializes writes to
// Conn so a session-lock-held broadcast can't interleave bytes with an
// unlocked routine FAIL write from the slot's own worker.
type Player struct {
	Conn net.Conn
	Name string
	wmu  sync.Mutex
}

func (p *Player) write(payload []byte) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return protocol.WriteFrame(p.Conn, payload)
}

// MoveResult is the outcome of a validated MOVE.
type MoveResult int

const (
	MoveApplied MoveResult = iota
	MoveWon
	MoveWrongTurn
	MoveBadPile
	MoveBadQuantity
	MoveNotPlaying
)

// Session is one game slot: at most two connected players and their
// board, guarded by a single mutex. Per the lock-order rule, a session
// lock may be taken while the registry lock is held, never the reverse.
type Session struct {
	mu      sync.Mutex
	Index   int
	board   [5]int
	players [2]*Player
	state   State

	log     *logging.Logger
	metrics *metrics.Recorder
}

// New creates a session in AWAITING_FIRST_PLAYER with a fresh board.
func New(index int, log *logging.Logger, rec *metrics.Recorder) *Session {
	s := &Session{Index: index, log: log, metrics: rec}
	s.resetLocked()
	return s
}

// Reset puts the session back to AWAITING_FIRST_PLAYER with a fresh
// board and no players. Used by the registry to recycle a GAME_OVER
// session before reuse.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.board = StartingBoard
	s.players[0] = nil
	s.players[1] = nil
	s.state = StateAwaitingFirstPlayer
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Attach places conn into the front empty slot and advances the
// lifecycle: AWAITING_FIRST_PLAYER -> AWAITING_SECOND_PLAYER (slot 1),
// or AWAITING_SECOND_PLAYER -> GAME_START (slot 2). Any other state
// returns ErrSessionBusy; the supervisor is expected to request a
// fresh front session from the registry in that case.
func (s *Session) Attach(conn net.Conn) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAwaitingFirstPlayer:
		s.players[0] = &Player{Conn: conn}
		s.state = StateAwaitingSecondPlayer
		return 1, nil
	case StateAwaitingSecondPlayer:
		s.players[1] = &Player{Conn: conn}
		s.state = StateGameStart
		return 2, nil
	default:
		return 0, ErrSessionBusy
	}
}

// SlotOf reports which slot (1 or 2) conn currently occupies, or 0 if
// the session no longer tracks it (it was reassigned by the GAME_START
// remap, or the peer worker already cleared it).
func (s *Session) SlotOf(conn net.Conn) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.players[0] != nil && s.players[0].Conn == conn {
		return 1
	}
	if s.players[1] != nil && s.players[1].Conn == conn {
		return 2
	}
	return 0
}

// HasName reports whether name is currently held by a non-idle slot in
// this session, used by the registry's cross-session name_in_use scan.
func (s *Session) HasName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAwaitingFirstPlayer {
		return false
	}
	for _, p := range s.players {
		if p != nil && p.Name == name {
			return true
		}
	}
	return false
}

// CompleteOpen records name into slot, replies WAIT, and attempts to
// start the game if the opponent has already opened too.
func (s *Session) CompleteOpen(slot int, name string) {
	s.mu.Lock()
	s.players[slot-1].Name = name
	s.writeLocked(slot, protocol.FormatWait())
	s.mu.Unlock()

	s.tryStartGame()
}

// tryStartGame promotes GAME_START to P1_TURN once both names are
// present: reset the board, announce NAME to each player with the
// opponent's name, then PLAY announcing player 1's turn to both.
func (s *Session) tryStartGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateGameStart {
		return
	}
	p1, p2 := s.players[0], s.players[1]
	if p1 == nil || p2 == nil || p1.Name == "" || p2.Name == "" {
		return
	}

	s.board = StartingBoard
	s.state = StateP1Turn

	s.writeLocked(1, protocol.FormatName(1, p2.Name))
	s.writeLocked(2, protocol.FormatName(2, p1.Name))
	s.broadcastLocked(protocol.FormatPlay(1, s.board))

	if s.metrics != nil {
		s.metrics.GameStarted()
	}
}

// ApplyMove validates and, if legal, applies a MOVE from slot. Non-fatal
// rejections (wrong turn, bad pile, bad quantity) leave board and state
// untouched; the caller is responsible for relaying the corresponding
// FAIL to the mover.
func (s *Session) ApplyMove(slot, pile, qty int) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateP1Turn && s.state != StateP2Turn {
		return MoveNotPlaying
	}

	expected := 1
	if s.state == StateP2Turn {
		expected = 2
	}
	if slot != expected {
		return MoveWrongTurn
	}

	if pile < 1 || pile > 5 {
		return MoveBadPile
	}
	idx := pile - 1
	if qty < 1 || qty > s.board[idx] {
		return MoveBadQuantity
	}

	s.board[idx] -= qty

	if boardSum(s.board) == 0 {
		s.broadcastLocked(protocol.FormatOver(slot, s.board, ""))
		s.state = StateGameOver
		s.shutdownAllLocked()
		if s.metrics != nil {
			s.metrics.GameEnded("win")
		}
		return MoveWon
	}

	next := 2
	if slot == 2 {
		next = 1
	}
	if next == 1 {
		s.state = StateP1Turn
	} else {
		s.state = StateP2Turn
	}
	s.broadcastLocked(protocol.FormatPlay(next, s.board))
	return MoveApplied
}

// Terminate runs the cleanup discipline for a worker bound to slot
// leaving the loop (EOF, I/O error, or a fatal protocol violation the
// caller has already replied to with its own FAIL). It applies exactly
// one of the branches in the state machine's terminal transitions and
// never sends more than one OVER to the opponent.
func (s *Session) Terminate(slot int, _ net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateGameOver:
		s.clearSlotLocked(slot)

	case StateAwaitingSecondPlayer:
		s.clearSlotLocked(1)
		s.state = StateAwaitingFirstPlayer
		if s.metrics != nil {
			s.metrics.SessionIdle()
		}

	case StateGameStart:
		if slot == 1 {
			// Slot 1 left; remap the survivor into slot 1
			// so AWAITING_SECOND_PLAYER's invariant (exactly one slot
			// occupied, in slot 1) holds.
			s.players[0] = s.players[1]
			s.players[1] = nil
		} else {
			s.clearSlotLocked(2)
		}
		s.state = StateAwaitingSecondPlayer

	default: // StateP1Turn or StateP2Turn: the game was live. Forfeit.
		winner := 2
		if slot == 2 {
			winner = 1
		}
		if p := s.players[winner-1]; p != nil && p.Conn != nil {
			s.writeLocked(winner, protocol.FormatOver(winner, s.board, "Forfeit"))
			shutdownConn(p.Conn)
		}
		s.state = StateGameOver
		s.clearSlotLocked(slot)
		if s.metrics != nil {
			s.metrics.GameEnded("forfeit")
		}
	}
}

// WriteFail sends a FAIL frame to slot's connection. It takes the
// session lock only long enough to snapshot the player, then writes
// through the player's own write mutex — this is the "routine FAIL
// response" path spec.md permits to run without holding the session
// lock for the whole write.
func (s *Session) WriteFail(slot int, code protocol.FailCode) {
	s.mu.Lock()
	var p *Player
	if slot == 1 || slot == 2 {
		p = s.players[slot-1]
	}
	s.mu.Unlock()

	if p == nil || p.Conn == nil {
		return
	}
	if err := p.write(protocol.FormatFail(code)); err != nil && s.log != nil {
		s.log.Debugf("session %d: write FAIL to slot %d: %v", s.Index, slot, err)
	}
	if s.metrics != nil {
		s.metrics.FailSent(int(code))
	}
}

func (s *Session) clearSlotLocked(slot int) {
	switch slot {
	case 1:
		s.players[0] = nil
	case 2:
		s.players[1] = nil
	}
}

func (s *Session) writeLocked(slot int, payload []byte) {
	p := s.players[slot-1]
	if p == nil || p.Conn == nil {
		return
	}
	if err := p.write(payload); err != nil && s.log != nil {
		s.log.Debugf("session %d: write to slot %d: %v", s.Index, slot, err)
	}
}

func (s *Session) broadcastLocked(payload []byte) {
	s.writeLocked(1, payload)
	s.writeLocked(2, payload)
}

func (s *Session) shutdownAllLocked() {
	for _, p := range s.players {
		if p != nil && p.Conn != nil {
			shutdownConn(p.Conn)
		}
	}
}

// halfCloser is satisfied by *net.TCPConn. Shutting down for read and
// write (rather than a full Close) lets the owning worker still be the
// one that ultimately closes the file descriptor, per the one-owner
// resource discipline in spec.md §5.
type halfCloser interface {
	CloseRead() error
	CloseWrite() error
}

func shutdownConn(conn net.Conn) {
	if hc, ok := conn.(halfCloser); ok {
		hc.CloseRead()
		hc.CloseWrite()
		return
	}
	conn.Close()
}
