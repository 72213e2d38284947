// Package daemon runs the lotscan service process: it holds the
// single-instance lock, owns the capture manager, and serves the HTTP API
// the CLI and field clients talk to.
package daemon
