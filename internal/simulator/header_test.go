package simulator

import (
	"strings"
	"testing"
)

func TestMatchHeader(t *testing.T) {
	tests := []struct {
		pattern  string
		header   string
		match    bool
		suffixes []string
	}{
		{"*IDN?", "*IDN?", true, nil},
		{"*IDN?", "*idn?", true, nil},
		{"*IDN?", "*IDN", false, nil},
		{":WAVeform:PREamble?", ":WAV:PRE?", true, nil},
		{":WAVeform:PREamble?", "WAVEFORM:PREAMBLE?", true, nil},
		{":WAVeform:PREamble?", ":WAVE:PRE?", false, nil},
		{":MEASure:VOLTage?", ":MEASure:VOLT?", true, nil},
		{":MEASure:VOLTage?", ":MEASure:VOLTage:DC?", false, nil},
		{":CHANnel#:SCALe", ":CHANnel2:SCALe", true, []string{"2"}},
		{":CHANnel#:SCALe", ":CHAN:SCAL", true, []string{"1"}},
		{":CHANnel#:SCALe", ":CHAN:SCA", false, nil},
		{":HORizontal:SCALe", ":HOR:SCAL", true, nil},
		{":TRIGger:EDGE:SLOPe", ":TRIG:EDGE:SLOP", true, nil},
		{":CALCulate#:PARameter#:DEFine", ":CALC1:PAR2:DEF", true, []string{"1", "2"}},
		{":CALCulate:MARKer#:X?", ":CALCulate:MARKer12:X?", true, []string{"12"}},
		{":OUTPut", ":OUTPut:STATe", false, nil},
	}

	for _, tt := range tests {
		suffixes, ok := matchHeader(tt.pattern, tt.header)
		if ok != tt.match {
			t.Errorf("matchHeader(%q, %q) = %v, expected %v", tt.pattern, tt.header, ok, tt.match)
			continue
		}
		if strings.Join(suffixes, ",") != strings.Join(tt.suffixes, ",") {
			t.Errorf("matchHeader(%q, %q) suffixes = %v, expected %v", tt.pattern, tt.header, suffixes, tt.suffixes)
		}
	}
}

// TestRouteMnemonics checks every routed header against the SCPI short form
// rule: four characters, or three when the fourth is a vowel.
func TestRouteMnemonics(t *testing.T) {
	in := NewInstrument("")

	for _, rt := range in.routes {
		if strings.HasPrefix(rt.pattern, "*") {
			continue
		}
		pattern := strings.TrimSuffix(strings.TrimPrefix(rt.pattern, ":"), "?")
		for _, node := range strings.Split(pattern, ":") {
			node = strings.TrimSuffix(node, "#")
			long := strings.ToUpper(node)
			short := shortForm(node)

			want := long
			if len(long) > 4 {
				want = long[:4]
				if strings.ContainsRune("AEIOU", rune(long[3])) {
					want = long[:3]
				}
			}
			if short != want {
				t.Errorf("Route %q: node %q has short form %q, expected %q", rt.pattern, node, short, want)
			}
		}
	}
}

func TestSplitProgram(t *testing.T) {
	tests := []struct {
		line     string
		expected []string
	}{
		{"*IDN?", []string{"*IDN?"}},
		{"*RST;*OPC?", []string{"*RST", "*OPC?"}},
		{" :VOLT 5 ; :OUTP ON ;", []string{":VOLT 5", ":OUTP ON"}},
		{`:CALC:PAR:DEF "a;b";*OPC?`, []string{`:CALC:PAR:DEF "a;b"`, "*OPC?"}},
		{";;", []string{}},
	}

	for _, tt := range tests {
		got := splitProgram(tt.line)
		if strings.Join(got, "|") != strings.Join(tt.expected, "|") || len(got) != len(tt.expected) {
			t.Errorf("splitProgram(%q) = %q, expected %q", tt.line, got, tt.expected)
		}
	}
}

func TestSplitCommand(t *testing.T) {
	header, args := splitCommand(":MEASure:FREQ? CHANnel1")
	if header != ":MEASure:FREQ?" || args != "CHANnel1" {
		t.Errorf("Unexpected split (%q, %q)", header, args)
	}

	header, args = splitCommand("*RST")
	if header != "*RST" || args != "" {
		t.Errorf("Unexpected split (%q, %q)", header, args)
	}
}
