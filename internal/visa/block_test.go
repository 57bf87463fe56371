package visa

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestReadBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		rest  string
	}{
		{"definite", "#15hello\n", "hello", "\n"},
		{"two digit length", "#210abcdefghij", "abcdefghij", ""},
		{"binary payload", "#14\n\r\x00#\n", "\n\r\x00#", "\n"},
		{"leading noise", "\n:DISP:DATA #13abc", "abc", ""},
		{"empty definite", "#10\n", "", "\n"},
		{"indefinite", "#0raw bytes\r\n*IDN", "raw bytes", "*IDN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bufio.NewReader(strings.NewReader(tt.input))

			got, err := ReadBlock(r)
			if err != nil {
				t.Fatalf("ReadBlock failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}

			rest, _ := io.ReadAll(r)
			if string(rest) != tt.rest {
				t.Errorf("Expected remaining %q, got %q", tt.rest, rest)
			}
		})
	}
}

func TestReadBlockErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no header", "1.234\n"},
		{"bad digit count", "#x123"},
		{"bad length", "#3a12xyz"},
		{"truncated", "#15abc"},
		{"too long", "#9999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadBlock(bufio.NewReader(strings.NewReader(tt.input))); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestEncodeBlockRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte{0x89, 'P', 'N', 'G', '\n'}, 300)

	encoded := EncodeBlock(payload)
	if !bytes.HasPrefix(encoded, []byte("#41500")) {
		t.Errorf("Unexpected header %q", encoded[:6])
	}

	got, err := ReadBlock(bufio.NewReader(bytes.NewReader(encoded)))
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("Payload changed in round trip")
	}
}
