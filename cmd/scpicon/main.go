// Package main implements the scpicon entry point: an interactive console for
// sending SCPI commands to VISA instruments, plus a bench simulator.
package main

import (
	"fmt"
	"os"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "1.0.0"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stdout, "An unexpected error occurred: %v\n", r)
		}
	}()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stdout, "Error: %v\n", err)
	}
}
