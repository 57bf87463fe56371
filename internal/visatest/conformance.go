// Package visatest provides transport-agnostic conformance testing for instruments.
//
// Every transport must behave the same towards the console: terminated text
// queries, block queries that leave the stream usable, and normalized errors.
package visatest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/instrument-tool/scpicon/internal/visa"
)

// Expectations describes what the instrument under test answers.
type Expectations struct {
	IDN           string // Expected *IDN? response
	BinaryQuery   string // Query answered with a non-empty block
	UnknownQuery  string // Query the instrument never answers
	UnknownBudget time.Duration
}

// RunConformance runs the suite. open must return a fresh, connected instrument.
func RunConformance(t *testing.T, open func(t *testing.T) visa.Instrument, exp Expectations) {
	if exp.UnknownBudget == 0 {
		exp.UnknownBudget = 2 * time.Second
	}

	t.Run("resource", func(t *testing.T) {
		inst := open(t)
		defer inst.Close()

		if inst.Resource() == "" {
			t.Error("Expected non-empty resource string")
		}
	})

	t.Run("identification", func(t *testing.T) {
		inst := open(t)
		defer inst.Close()

		idn, err := inst.Query(context.Background(), "*IDN?")
		if err != nil {
			t.Fatalf("*IDN? failed: %v", err)
		}
		if idn != exp.IDN {
			t.Errorf("Expected IDN %q, got %q", exp.IDN, idn)
		}
	})

	t.Run("write then query", func(t *testing.T) {
		inst := open(t)
		defer inst.Close()

		ctx := context.Background()
		if err := inst.Write(ctx, "*CLS"); err != nil {
			t.Fatalf("*CLS failed: %v", err)
		}
		opc, err := inst.Query(ctx, "*OPC?")
		if err != nil {
			t.Fatalf("*OPC? failed: %v", err)
		}
		if opc != "1" {
			t.Errorf("Expected *OPC? to return 1, got %q", opc)
		}
	})

	t.Run("binary block leaves stream usable", func(t *testing.T) {
		inst := open(t)
		defer inst.Close()

		ctx := context.Background()
		data, err := inst.QueryBinary(ctx, exp.BinaryQuery)
		if err != nil {
			t.Fatalf("%s failed: %v", exp.BinaryQuery, err)
		}
		if len(data) == 0 {
			t.Fatal("Expected non-empty block payload")
		}

		idn, err := inst.Query(ctx, "*IDN?")
		if err != nil {
			t.Fatalf("*IDN? after block failed: %v", err)
		}
		if idn != exp.IDN {
			t.Errorf("Expected IDN %q after block, got %q", exp.IDN, idn)
		}
	})

	t.Run("unanswered query times out", func(t *testing.T) {
		if exp.UnknownQuery == "" {
			t.Skip("no unknown query configured")
		}
		inst := open(t)
		defer inst.Close()

		ctx, cancel := context.WithTimeout(context.Background(), exp.UnknownBudget)
		defer cancel()

		_, err := inst.Query(ctx, exp.UnknownQuery)
		if !errors.Is(err, visa.ErrTimeout) {
			t.Fatalf("Expected ErrTimeout, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		inst := open(t)
		defer inst.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := inst.Write(ctx, "*CLS"); err == nil {
			t.Error("Expected error for cancelled context")
		}
	})

	t.Run("closed instrument", func(t *testing.T) {
		inst := open(t)
		if err := inst.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		err := inst.Write(context.Background(), "*CLS")
		if !errors.Is(err, visa.ErrConnection) {
			t.Errorf("Expected ErrConnection after close, got %v", err)
		}
	})
}
