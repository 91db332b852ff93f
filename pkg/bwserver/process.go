package bwserver

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
)

// iperfFactory spawns real iperf3 server processes.
type iperfFactory struct{}

// NewIperfFactory returns the production ProcessFactory.
func NewIperfFactory() ProcessFactory {
	return &iperfFactory{}
}

func (f *iperfFactory) Spawn(_ context.Context, port int) (ServerProcess, error) {
	// -1 makes the server exit after a single client session, matching
	// the one-shot nature of a browser-triggered test.
	cmd := exec.Command("iperf3", "-s", "-p", strconv.Itoa(port), "-1", "--json")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start iperf3 on port %d: %w", port, err)
	}

	p := &iperfProcess{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("iperf3 server on port %d exited: %v", port, err)
		}

		close(p.done)
	}()

	return p, nil
}

type iperfProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
}

func (p *iperfProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *iperfProcess) Terminate() error {
	return syscall.Kill(-p.cmd.Process.Pid, syscall.SIGTERM)
}

func (p *iperfProcess) Kill() error {
	var err error

	p.once.Do(func() {
		err = syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL)
	})

	return err
}

func (p *iperfProcess) Wait() <-chan struct{} {
	return p.done
}

func (p *iperfProcess) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}
