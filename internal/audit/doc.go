// Package audit implements the command audit log for the console.
//
// Every dispatched command is appended as one JSON line carrying the
// timestamp, resource, command name, argument text, outcome code and latency.
// The file is rotated by size through lumberjack.
package audit
