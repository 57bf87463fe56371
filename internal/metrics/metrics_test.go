package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCommand(t *testing.T) {
	m := New()

	m.ObserveCommand("id", "OK", 10*time.Millisecond)
	m.ObserveCommand("id", "OK", 20*time.Millisecond)
	m.ObserveCommand("id", "TRANSPORT", 5*time.Second)

	if got := testutil.ToFloat64(m.commands.WithLabelValues("id", "OK")); got != 2 {
		t.Fatalf("expected 2 OK commands, got %f", got)
	}
	if got := testutil.ToFloat64(m.commands.WithLabelValues("id", "TRANSPORT")); got != 1 {
		t.Fatalf("expected 1 TRANSPORT command, got %f", got)
	}
	if samples := testutil.CollectAndCount(m.duration); samples != 1 {
		t.Fatalf("expected one histogram series, got %d", samples)
	}
}

func TestObserveTransportError(t *testing.T) {
	m := New()

	m.ObserveTransportError("TIMEOUT")
	m.ObserveTransportError("TIMEOUT")
	m.ObserveTransportError("CONNECTION_LOST")

	if got := testutil.ToFloat64(m.transportErrors.WithLabelValues("TIMEOUT")); got != 2 {
		t.Fatalf("expected 2 timeouts, got %f", got)
	}
	if got := testutil.ToFloat64(m.transportErrors.WithLabelValues("CONNECTION_LOST")); got != 1 {
		t.Fatalf("expected 1 connection loss, got %f", got)
	}
}

func TestSetConnected(t *testing.T) {
	m := New()

	m.SetConnected("ASRL1::INSTR", true)
	if got := testutil.ToFloat64(m.connected); got != 1 {
		t.Fatalf("expected connected gauge 1, got %f", got)
	}

	m.SetConnected("ASRL1::INSTR", false)
	if got := testutil.ToFloat64(m.connected); got != 0 {
		t.Fatalf("expected connected gauge 0, got %f", got)
	}
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ObserveTransportError("TIMEOUT")
	if got := testutil.ToFloat64(b.transportErrors.WithLabelValues("TIMEOUT")); got != 0 {
		t.Fatalf("expected registries to be independent, got %f", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCommand("reset", "OK", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`scpicon_commands_total{code="OK",command="reset"} 1`,
		"scpicon_connected 0",
		"scpicon_command_duration_seconds_bucket",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}
}
