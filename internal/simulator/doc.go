// Package simulator implements a SCPI instrument that listens on a raw TCP
// socket, for bench-free use of the console and for end-to-end tests.
//
// The simulated instrument is a combined bench: power supply, multimeter,
// oscilloscope, function generator, electronic load and RF analyzer settings
// share one state. Commands are newline-terminated; several may be joined with
// ';'. Unknown commands push -113 onto the error queue and unknown queries get
// no reply, so clients time out the way they do with real hardware.
package simulator
