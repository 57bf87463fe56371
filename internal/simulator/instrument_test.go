package simulator

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/instrument-tool/scpicon/internal/visa"
)

func execute(t *testing.T, in *Instrument, line string) string {
	t.Helper()

	resp, ok := in.Execute(line)
	if !ok {
		t.Fatalf("Expected a response to %q", line)
	}
	if !bytes.HasSuffix(resp, []byte("\n")) {
		t.Fatalf("Response to %q is not newline terminated: %q", line, resp)
	}
	return string(resp[:len(resp)-1])
}

func TestCommonCommands(t *testing.T) {
	in := NewInstrument("")

	if got := execute(t, in, "*IDN?"); got != DefaultIDN {
		t.Errorf("Expected IDN %q, got %q", DefaultIDN, got)
	}
	if got := execute(t, in, "*OPC?"); got != "1" {
		t.Errorf("Expected *OPC? 1, got %q", got)
	}
	if got := execute(t, in, "*RST;*OPC?;*IDN?"); got != "1;"+DefaultIDN {
		t.Errorf("Unexpected compound response %q", got)
	}
	if _, ok := in.Execute("*RST"); ok {
		t.Error("Expected no response to *RST")
	}
}

func TestErrorQueue(t *testing.T) {
	in := NewInstrument("ACME,X,1,1")

	if got := execute(t, in, ":SYSTem:ERRor?"); got != noError {
		t.Errorf("Expected empty queue, got %q", got)
	}

	if _, ok := in.Execute(":BOGus?"); ok {
		t.Error("Unknown queries must not be answered")
	}
	in.Execute(":VOLTage")
	in.Execute(":OUTPut MAYBE")

	for _, want := range []string{errUndefinedHeader, errMissingParameter, errIllegalParameter, noError} {
		if got := execute(t, in, ":SYST:ERR?"); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}

	for i := 0; i < maxErrorQueue+5; i++ {
		in.Execute(":BOGus")
	}
	var last string
	for i := 0; i < maxErrorQueue; i++ {
		last = execute(t, in, ":SYST:ERR?")
	}
	if last != errQueueOverflow {
		t.Errorf("Expected overflow marker at the end of a full queue, got %q", last)
	}

	in.Execute(":BOGus")
	in.Execute("*CLS")
	if got := execute(t, in, ":SYST:ERR?"); got != noError {
		t.Errorf("Expected *CLS to clear the queue, got %q", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	in := NewInstrument("")

	in.Execute(":TRIGger:SOURce CHAN2")
	if got := execute(t, in, ":TRIG:SOUR?"); got != "CHAN2" {
		t.Errorf("Expected CHAN2, got %q", got)
	}

	in.Execute(":CHANnel2:SCALe 0.5")
	if got := execute(t, in, ":CHAN2:SCAL?"); got != "0.5" {
		t.Errorf("Expected channel 2 scale 0.5, got %q", got)
	}
	if got := execute(t, in, ":CHAN1:SCAL?"); got != "1.0" {
		t.Errorf("Expected channel 1 scale untouched, got %q", got)
	}
	if got := execute(t, in, ":CHAN3:SCAL?"); got != "1.0" {
		t.Errorf("Expected default scale for channel 3, got %q", got)
	}

	in.Execute(":HOR:SCAL 0.002;:TRIG:EDGE:SLOP NEG")
	if got := execute(t, in, ":HORizontal:SCALe?"); got != "0.002" {
		t.Errorf("Expected timebase 0.002, got %q", got)
	}
	if got := execute(t, in, ":TRIG:EDGE:SLOP?"); got != "NEG" {
		t.Errorf("Expected slope NEG, got %q", got)
	}
	if got := execute(t, in, ":SYST:ERR?"); !strings.HasPrefix(got, "+0") {
		t.Errorf("Expected short forms to be accepted, got %q", got)
	}

	in.Execute("*RST")
	if got := execute(t, in, ":TRIG:SOUR?"); got != "CHAN1" {
		t.Errorf("Expected *RST to restore CHAN1, got %q", got)
	}
}

func TestSupplyOutput(t *testing.T) {
	in := NewInstrument("")

	in.Execute(":VOLTage 5;:CURRent 1")
	if got := execute(t, in, ":MEASure:VOLT?"); got != "0.000000E+00" {
		t.Errorf("Expected 0 V with output off, got %q", got)
	}

	in.Execute(":OUTPut ON")
	if got := execute(t, in, ":OUTP:STAT?"); got != "1" {
		t.Errorf("Expected output on, got %q", got)
	}
	if got := execute(t, in, ":MEASure:VOLT?"); got != "5.000000E+00" {
		t.Errorf("Expected 5 V, got %q", got)
	}
	if got := execute(t, in, ":MEASure:CURR?"); got != "5.000000E-02" {
		t.Errorf("Expected 50 mA into the load, got %q", got)
	}
}

func TestWaveformQueries(t *testing.T) {
	in := NewInstrument("")

	preamble := strings.Split(execute(t, in, ":WAVeform:PREamble?"), ",")
	if len(preamble) != 10 {
		t.Fatalf("Expected 10 preamble fields, got %d", len(preamble))
	}
	if preamble[0] != "0" || preamble[2] != "100" || preamble[5] != "1e-06" || preamble[8] != "127" {
		t.Errorf("Unexpected preamble %v", preamble)
	}

	resp, ok := in.Execute(":WAVeform:DATA?")
	if !ok {
		t.Fatal("Expected block response")
	}
	block, err := visa.ReadBlock(bufio.NewReader(bytes.NewReader(resp)))
	if err != nil {
		t.Fatalf("ReadBlock failed: %v", err)
	}
	if len(block) != waveformPoints || block[0] != waveformYRef {
		t.Errorf("Unexpected block of %d bytes starting %d", len(block), block[0])
	}

	in.Execute(":WAVeform:FORMat ASCii")
	samples := strings.Split(execute(t, in, ":WAV:DATA?"), ",")
	if len(samples) != waveformPoints || samples[0] != "127" {
		t.Errorf("Unexpected ASCII samples %v", samples[:3])
	}

	if got := execute(t, in, ":MEASure:FREQ? CHANnel1"); got != "2.000000E+04" {
		t.Errorf("Expected 20 kHz, got %q", got)
	}
	if got := execute(t, in, ":MEASure:VPP? CHANnel1"); got != "2.000000E+00" {
		t.Errorf("Expected 2 Vpp, got %q", got)
	}
}

func TestScreenCapture(t *testing.T) {
	in := NewInstrument("")

	tests := []struct {
		query  string
		prefix []byte
	}{
		{":DISPlay:DATA? PNG", []byte("\x89PNG")},
		{":DISPlay:DATA? JPEG", []byte{0xFF, 0xD8}},
	}

	for _, tt := range tests {
		resp, ok := in.Execute(tt.query)
		if !ok {
			t.Fatalf("Expected response to %s", tt.query)
		}
		data, err := visa.ReadBlock(bufio.NewReader(bytes.NewReader(resp)))
		if err != nil {
			t.Fatalf("ReadBlock for %s failed: %v", tt.query, err)
		}
		if !bytes.HasPrefix(data, tt.prefix) {
			t.Errorf("%s payload starts with %x", tt.query, data[:4])
		}
	}

	if _, ok := in.Execute(":DISPlay:DATA? BMP"); ok {
		t.Error("Expected no response for an unsupported format")
	}
}

func TestMarkersAndTrace(t *testing.T) {
	in := NewInstrument("")

	if got := execute(t, in, ":CALCulate:MARKer1:X?"); got != "1.000000E+09" {
		t.Errorf("Expected marker at center, got %q", got)
	}
	if got := execute(t, in, ":CALCulate:MARKer2:X?"); got != "1.010000E+09" {
		t.Errorf("Expected marker 2 one division right, got %q", got)
	}

	in.Execute(":SENSe:SWEep:POINts 11")
	trace := strings.Split(execute(t, in, ":CALCulate:SELected:DATA:FDATa?"), ",")
	if len(trace) != 11 {
		t.Errorf("Expected 11 trace points, got %d", len(trace))
	}
}
