package protocol

import "github.com/rotisserie/eris"

// Sentinel errors for the framing and parsing layer. Call sites wrap
// these with eris.Wrap to attach context while keeping errors.Is intact.
var (
	ErrBadFrame      = eris.New("protocol: malformed frame")
	ErrParse         = eris.New("protocol: malformed message")
	ErrNameTooLong   = eris.New("protocol: name too long")
	ErrNameInUse     = eris.New("protocol: name already in use")
	ErrDuplicateOpen = eris.New("protocol: duplicate OPEN")
	ErrNotPlaying    = eris.New("protocol: not playing")
	ErrWrongTurn     = eris.New("protocol: wrong turn")
	ErrBadPile       = eris.New("protocol: bad pile index")
	ErrBadQuantity   = eris.New("protocol: bad quantity")
	ErrDisconnect    = eris.New("protocol: peer disconnected")
)

// FailCode is the numeric code carried in a FAIL message's payload.
type FailCode int

const (
	FailInvalid        FailCode = 10
	FailLongName       FailCode = 21
	FailAlreadyPlaying FailCode = 22
	FailAlreadyOpen    FailCode = 23
	FailNotPlaying     FailCode = 24
	FailImpatient      FailCode = 31
	FailPileIndex      FailCode = 32
	FailQuantity       FailCode = 33
)

// Token is the human-readable text sent alongside a FAIL code,
// e.g. "FAIL|10 Invalid|".
func (c FailCode) Token() string {
	switch c {
	case FailInvalid:
		return "Invalid"
	case FailLongName:
		return "Long Name"
	case FailAlreadyPlaying:
		return "Already Playing"
	case FailAlreadyOpen:
		return "Already Open"
	case FailNotPlaying:
		return "Not Playing"
	case FailImpatient:
		return "Impatient"
	case FailPileIndex:
		return "Pile Index"
	case FailQuantity:
		return "Quantity"
	default:
		return "Unknown"
	}
}

// Fatal reports whether a FAIL of this code must end the connection.
// FailImpatient, FailPileIndex and FailQuantity are the only non-fatal codes:
// the game continues after sending them.
func (c FailCode) Fatal() bool {
	switch c {
	case FailImpatient, FailPileIndex, FailQuantity:
		return false
	default:
		return true
	}
}
