package protocol

import (
	"testing"
)

func TestParseClientMessageOpen(t *testing.T) {
	msg, err := ParseClientMessage([]byte("OPEN|alice|"))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if msg.Verb != VerbOpen || msg.Name != "alice" {
		t.Errorf("got %+v, want OPEN alice", msg)
	}
}

func TestParseClientMessageOpenAllowsEmptyName(t *testing.T) {
	// An empty name is a well-formed OPEN: rejecting it is a semantic
	// decision the worker makes (FAIL 10), not a framing error here.
	msg, err := ParseClientMessage([]byte("OPEN||"))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if msg.Verb != VerbOpen || msg.Name != "" {
		t.Errorf("got %+v, want OPEN with empty name", msg)
	}
}

func TestParseClientMessageMove(t *testing.T) {
	msg, err := ParseClientMessage([]byte("MOVE|3|2|"))
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}
	if msg.Verb != VerbMove || msg.Pile != 3 || msg.Qty != 2 {
		t.Errorf("got %+v, want MOVE pile=3 qty=2", msg)
	}
}

func TestParseClientMessageRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"unknown verb", "WAIT|"},
		{"short payload", "OP|"},
		{"no separator after verb", "OPENalice|"},
		{"open with extra field", "OPEN|alice|extra|"},
		{"move missing field", "MOVE|3|"},
		{"move non-integer pile", "MOVE|x|2|"},
		{"move non-integer qty", "MOVE|3|y|"},
		{"move with extra bars", "MOVE|3|2|4|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseClientMessage([]byte(tt.payload)); err == nil {
				t.Errorf("ParseClientMessage(%q) error = nil, want error", tt.payload)
			}
		})
	}
}

func TestFormatWait(t *testing.T) {
	want := "WAIT|"
	if got := string(FormatWait()); got != want {
		t.Errorf("FormatWait() = %q, want %q", got, want)
	}
}

func TestFormatName(t *testing.T) {
	want := "NAME|1|bob|"
	if got := string(FormatName(1, "bob")); got != want {
		t.Errorf("FormatName() = %q, want %q", got, want)
	}
}

func TestFormatPlay(t *testing.T) {
	want := "PLAY|2|1 3 5 7 9|"
	if got := string(FormatPlay(2, [5]int{1, 3, 5, 7, 9})); got != want {
		t.Errorf("FormatPlay() = %q, want %q", got, want)
	}
}

func TestFormatOver(t *testing.T) {
	tests := []struct {
		name   string
		winner int
		board  [5]int
		reason string
		want   string
	}{
		{"normal win", 1, [5]int{0, 0, 0, 0, 0}, "", "OVER|1|0 0 0 0 0||"},
		{"forfeit", 2, [5]int{1, 3, 5, 7, 9}, "Forfeit", "OVER|2|1 3 5 7 9|Forfeit|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(FormatOver(tt.winner, tt.board, tt.reason)); got != tt.want {
				t.Errorf("FormatOver() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFail(t *testing.T) {
	want := "FAIL|10 Invalid|"
	if got := string(FormatFail(FailInvalid)); got != want {
		t.Errorf("FormatFail() = %q, want %q", got, want)
	}
}

func TestFailCodeFatal(t *testing.T) {
	tests := []struct {
		code  FailCode
		fatal bool
	}{
		{FailInvalid, true},
		{FailLongName, true},
		{FailAlreadyPlaying, true},
		{FailAlreadyOpen, true},
		{FailNotPlaying, true},
		{FailImpatient, false},
		{FailPileIndex, false},
		{FailQuantity, false},
	}
	for _, tt := range tests {
		if got := tt.code.Fatal(); got != tt.fatal {
			t.Errorf("FailCode(%d).Fatal() = %v, want %v", tt.code, got, tt.fatal)
		}
	}
}
