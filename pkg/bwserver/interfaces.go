package bwserver

import "context"

//go:generate mockgen -destination=mock_process.go -package=bwserver github.com/lgxlabs/netglass/pkg/bwserver ServerProcess,ProcessFactory

// ServerProcess is one spawned iperf3 server process. Terminate and
// Kill act on the whole process group.
type ServerProcess interface {
	Pid() int
	Terminate() error
	Kill() error
	Wait() <-chan struct{}
	Running() bool
}

// ProcessFactory spawns server processes, abstracted so tests never
// need a real iperf3 binary.
type ProcessFactory interface {
	Spawn(ctx context.Context, port int) (ServerProcess, error)
}
