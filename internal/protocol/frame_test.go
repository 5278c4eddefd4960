package protocol

import (
	"bufio"
	"bytes"
	"testing"
)

func TestWriteReadFrame(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"WAIT", FormatWait()},
		{"NAME", FormatName(1, "alice")},
		{"PLAY", FormatPlay(2, [5]int{1, 3, 5, 7, 9})},
		{"OVER normal", FormatOver(1, [5]int{0, 0, 0, 0, 0}, "")},
		{"OVER forfeit", FormatOver(2, [5]int{1, 3, 5, 7, 9}, "Forfeit")},
		{"FAIL", FormatFail(FailInvalid)},
		{"OPEN", []byte("OPEN|bob|")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteFrame(&buf, tt.payload); err != nil {
				t.Fatalf("WriteFrame() error = %v", err)
			}

			got, err := ReadFrame(bufio.NewReader(&buf))
			if err != nil {
				t.Fatalf("ReadFrame() error = %v", err)
			}
			if !bytes.Equal(got, tt.payload) {
				t.Errorf("ReadFrame() = %q, want %q", got, tt.payload)
			}
		})
	}
}

func TestWriteFrameHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, FormatWait()); err != nil {
		t.Fatalf("WriteFrame() error = %v", err)
	}
	want := "0|05|WAIT|"
	if got := buf.String(); got != want {
		t.Errorf("frame bytes = %q, want %q", got, want)
	}
}

func TestWriteFramePayloadOutOfRange(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"too short", []byte("a|")},
		{"too long", bytes.Repeat([]byte("a"), MaxPayloadLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteFrame(&buf, tt.payload); err == nil {
				t.Errorf("WriteFrame() error = nil, want error")
			}
		})
	}
}

func TestReadFrameRejectsMalformedHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"wrong id", "1|05|WAIT|"},
		{"missing id separator", "0x05|WAIT|"},
		{"non-digit length", "0|AA|WAIT|"},
		{"missing length separator", "0|05xWAIT|"},
		{"length too small", "0|04|WAIT"},
		{"length field not two digits", "0|9|short|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFrame(bufio.NewReader(bytes.NewBufferString(tt.raw)))
			if err == nil {
				t.Errorf("ReadFrame(%q) error = nil, want error", tt.raw)
			}
		})
	}
}

func TestReadFrameRejectsMissingTrailingBar(t *testing.T) {
	raw := "0|05|WAITX"
	_, err := ReadFrame(bufio.NewReader(bytes.NewBufferString(raw)))
	if err == nil {
		t.Errorf("ReadFrame(%q) error = nil, want error", raw)
	}
}

func TestReadFrameShortRead(t *testing.T) {
	raw := "0|10|WAIT|"
	_, err := ReadFrame(bufio.NewReader(bytes.NewBufferString(raw)))
	if err == nil {
		t.Error("ReadFrame() error = nil, want error on truncated payload")
	}
}
