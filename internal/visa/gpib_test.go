package visa

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPrologixEncode(t *testing.T) {
	tests := []struct {
		cmd  string
		want string
	}{
		{"*IDN?", "*IDN?\n"},
		{":VOLT +5.0", ":VOLT \x1b+5.0\n"},
		{"A\nB", "A\x1b\nB\n"},
		{"\r", "\x1b\r\n"},
		{"\x1b", "\x1b\x1b\n"},
	}

	for _, tt := range tests {
		if got := prologixEncode(tt.cmd); got != tt.want {
			t.Errorf("prologixEncode(%q) = %q, expected %q", tt.cmd, got, tt.want)
		}
	}
}

func TestPrologixSetup(t *testing.T) {
	addr := Address{Interface: InterfaceGPIB, Primary: 22}

	cmds := prologixSetup(addr, ApplyOptions(WithTimeout(500*time.Millisecond)))
	want := "++mode 1|++auto 0|++eoi 1|++eos 2|++read_tmo_ms 500|++addr 22"
	if got := strings.Join(cmds, "|"); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	cmds = prologixSetup(addr, DefaultOpenOptions())
	if cmds[4] != "++read_tmo_ms 3000" {
		t.Errorf("Expected read timeout capped at 3000, got %q", cmds[4])
	}
}

func TestOpenGPIBWithoutController(t *testing.T) {
	m := NewResourceManager(WithSerialScan(false))

	_, err := m.Open(context.Background(), "GPIB0::12::INSTR")
	if !errors.Is(err, ErrUnsupportedResource) {
		t.Errorf("Expected ErrUnsupportedResource, got %v", err)
	}
}
