package bwserver

import "errors"

var (
	// ErrNoPortsAvailable means every port in the configured range has
	// an active server.
	ErrNoPortsAvailable = errors.New("no ports available in configured range")
	// ErrServerNotFound means no active server owns the given port.
	ErrServerNotFound = errors.New("no active server on port")

	errSpawnFailed = errors.New("iperf3 server exited during startup")
)
