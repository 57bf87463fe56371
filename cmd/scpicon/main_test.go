package main

import (
	"bytes"
	"net"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "scpicon "+Version {
		t.Errorf("Unexpected version output %q", out.String())
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"console", "list", "exec", "simulate", "version"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Expected subcommand %s, got %v (%v)", name, cmd, err)
		}
	}

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("Expected persistent --config flag")
	}
}

func TestExecRequiresLines(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"exec"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	if err := root.Execute(); err == nil {
		t.Error("Expected error for exec without lines")
	}
}

func TestSimulatedResource(t *testing.T) {
	addr := &net.TCPAddr{IP: net.IPv6zero, Port: 5025}
	if got := simulatedResource(addr); got != "TCPIP0::127.0.0.1::5025::SOCKET" {
		t.Errorf("Unexpected resource %q", got)
	}
}
