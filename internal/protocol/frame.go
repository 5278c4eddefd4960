// Package protocol implements the nimd wire format: a length-framed
// ASCII codec and the typed client/server message model built on top
// of it.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
)

const (
	// MinPayloadLen and MaxPayloadLen bound the payload length. The
	// shortest legal payload is a four-byte verb plus its trailing '|'
	// (5 bytes). The two-digit "DD" length field can only express 0..99,
	// so no payload longer than 99 bytes is ever read or written, even
	// though MaxPayloadLen is 104.
	MinPayloadLen = 5
	MaxPayloadLen = 104

	frameID = '0'
)

// ReadFrame reads one complete frame from r and returns its payload —
// the bytes after the header's second '|', inclusive of the payload's
// trailing '|'. The header is read one byte at a time so a short or
// malformed header is detected without over-reading into the next
// frame; the payload is then read with io.ReadFull so a short read is
// retried transparently.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	id, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if id != frameID {
		return nil, eris.Wrapf(ErrBadFrame, "unexpected frame id %q", id)
	}

	if b, err := r.ReadByte(); err != nil {
		return nil, err
	} else if b != '|' {
		return nil, eris.Wrap(ErrBadFrame, "missing id separator")
	}

	var lenDigits [2]byte
	for i := range lenDigits {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b < '0' || b > '9' {
			return nil, eris.Wrap(ErrBadFrame, "length field is not two decimal digits")
		}
		lenDigits[i] = b
	}

	if b, err := r.ReadByte(); err != nil {
		return nil, err
	} else if b != '|' {
		return nil, eris.Wrap(ErrBadFrame, "missing length separator")
	}

	length, err := strconv.Atoi(string(lenDigits[:]))
	if err != nil {
		return nil, eris.Wrap(ErrBadFrame, "length field did not parse")
	}
	if length < MinPayloadLen || length > MaxPayloadLen {
		return nil, eris.Wrapf(ErrBadFrame, "length %d out of range [%d,%d]", length, MinPayloadLen, MaxPayloadLen)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	if payload[length-1] != '|' {
		return nil, eris.Wrap(ErrBadFrame, "payload does not end in '|'")
	}

	return payload, nil
}

// WriteFrame writes payload (the verb through its final '|', inclusive)
// to w, prefixed with the "0|DD|" header. payload's length must already
// satisfy [MinPayloadLen, MaxPayloadLen] and fit the two digits (at most
// 99); anything else is rejected with ErrBadFrame. This is a programmer invariant
// of every call site in this module (every server message is built by
// the formatters in message.go), not something a caller inputs.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) < MinPayloadLen || len(payload) > MaxPayloadLen {
		return eris.Wrapf(ErrBadFrame, "payload length %d out of range [%d,%d]", len(payload), MinPayloadLen, MaxPayloadLen)
	}
	if len(payload) > 99 {
		return eris.Wrapf(ErrBadFrame, "payload length %d does not fit the two-digit length field", len(payload))
	}

	header := fmt.Sprintf("%c|%02d|", frameID, len(payload))
	frame := make([]byte, 0, len(header)+len(payload))
	frame = append(frame, header...)
	frame = append(frame, payload...)

	_, err := w.Write(frame)
	return err
}
