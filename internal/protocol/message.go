package protocol

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
)

// Verb identifies a client or server message type.
type Verb string

const (
	VerbOpen Verb = "OPEN"
	VerbMove Verb = "MOVE"
	VerbWait Verb = "WAIT"
	VerbName Verb = "NAME"
	VerbPlay Verb = "PLAY"
	VerbOver Verb = "OVER"
	VerbFail Verb = "FAIL"
)

// ClientMessage is a parsed OPEN or MOVE sent by a player.
type ClientMessage struct {
	Verb Verb
	Name string // OPEN
	Pile int    // MOVE, 1-indexed
	Qty  int    // MOVE
}

// ParseClientMessage parses a frame payload (as returned by ReadFrame)
// into a typed client message. It enforces the exact bar count and
// four-byte verb token the wire format requires; any deviation is
// ErrParse.
func ParseClientMessage(payload []byte) (*ClientMessage, error) {
	if len(payload) < 5 || payload[4] != '|' {
		return nil, eris.Wrap(ErrParse, "verb token is not four bytes")
	}
	verb := Verb(payload[:4])

	var expectedBars int
	switch verb {
	case VerbOpen:
		expectedBars = 2
	case VerbMove:
		expectedBars = 3
	default:
		return nil, eris.Wrapf(ErrParse, "unknown verb %q", verb)
	}

	if bytes.Count(payload, []byte{'|'}) != expectedBars {
		return nil, eris.Wrapf(ErrParse, "wrong field count for %s", verb)
	}

	fields := bytes.Split(payload[5:len(payload)-1], []byte{'|'})

	switch verb {
	case VerbOpen:
		if len(fields) != 1 {
			return nil, eris.Wrap(ErrParse, "OPEN requires exactly one field")
		}
		return &ClientMessage{Verb: VerbOpen, Name: string(fields[0])}, nil

	case VerbMove:
		if len(fields) != 2 {
			return nil, eris.Wrap(ErrParse, "MOVE requires exactly two fields")
		}
		pile, err := strconv.Atoi(string(fields[0]))
		if err != nil {
			return nil, eris.Wrap(ErrParse, "MOVE pile is not an integer")
		}
		qty, err := strconv.Atoi(string(fields[1]))
		if err != nil {
			return nil, eris.Wrap(ErrParse, "MOVE qty is not an integer")
		}
		return &ClientMessage{Verb: VerbMove, Pile: pile, Qty: qty}, nil
	}

	panic("unreachable")
}

// FormatWait builds the WAIT payload.
func FormatWait() []byte {
	return []byte("WAIT|")
}

// FormatName builds the NAME payload for playerNum, carrying opponentName.
func FormatName(playerNum int, opponentName string) []byte {
	return []byte(fmt.Sprintf("NAME|%d|%s|", playerNum, opponentName))
}

// FormatPlay builds the PLAY payload announcing whoseTurn and the board.
func FormatPlay(whoseTurn int, board [5]int) []byte {
	return []byte(fmt.Sprintf("PLAY|%d|%s|", whoseTurn, formatBoard(board)))
}

// FormatOver builds the OVER payload. reason is "Forfeit" for a forfeit
// win, or "" for a normal win emptying the board.
func FormatOver(winner int, board [5]int, reason string) []byte {
	return []byte(fmt.Sprintf("OVER|%d|%s|%s|", winner, formatBoard(board), reason))
}

// FormatFail builds the FAIL payload for code.
func FormatFail(code FailCode) []byte {
	return []byte(fmt.Sprintf("FAIL|%d %s|", code, code.Token()))
}

func formatBoard(board [5]int) string {
	var buf bytes.Buffer
	for i, pile := range board {
		if i > 0 {
			buf.WriteByte(' ')
		}
		fmt.Fprintf(&buf, "%d", pile)
	}
	return buf.String()
}
