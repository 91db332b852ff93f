package diag

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/lgxlabs/netglass/pkg/config"
	"github.com/lgxlabs/netglass/pkg/models"
)

const (
	// maxOutputBytes bounds captured stdout+stderr so a runaway tool
	// cannot grow memory without limit.
	maxOutputBytes = 256 * 1024

	killGracePeriod = 2 * time.Second
)

// Runner executes validated diagnostic requests with a system-wide
// concurrency cap. Invocations share no mutable state beyond the
// semaphore, so concurrent runs are independent.
type Runner struct {
	cfg  *config.ToolsConfig
	exec CommandRunner
	sem  chan struct{}
}

// NewRunner creates a Runner using the real process executor.
func NewRunner(cfg *config.ToolsConfig) *Runner {
	return NewRunnerWithExec(cfg, &execRunner{})
}

// NewRunnerWithExec creates a Runner with a custom CommandRunner,
// used by tests to count spawns without touching the OS.
func NewRunnerWithExec(cfg *config.ToolsConfig, cr CommandRunner) *Runner {
	return &Runner{
		cfg:  cfg,
		exec: cr,
		sem:  make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Run executes one validated request. Over-cap requests are rejected
// immediately with ErrTooManyRequests rather than queued.
func (r *Runner) Run(ctx context.Context, req *models.DiagRequest) (*models.DiagResult, error) {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	default:
		return nil, ErrTooManyRequests
	}

	binary, err := BinaryFor(req.Tool, req.IPv6)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeoutFor(req.Tool))
	defer cancel()

	args := argsFor(req)
	start := time.Now()

	log.Printf("Running %s %v (id %s)", binary, args, req.ID)

	output, exitCode, err := r.exec.Run(runCtx, binary, args...)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Diagnostic %s timed out after %v, process killed", req.ID, elapsed)
			return nil, fmt.Errorf("%w: %s after %v", ErrTimeout, req.Tool, r.timeoutFor(req.Tool))
		}

		return nil, fmt.Errorf("failed to run %s: %w", binary, err)
	}

	// Non-zero exit means the tool ran but failed (unreachable host,
	// permission problem). Surface it as a result with detail.
	return &models.DiagResult{
		ID:        req.ID,
		Tool:      req.Tool,
		Target:    req.Target,
		Output:    string(output),
		ExitCode:  exitCode,
		Duration:  elapsed,
		Timestamp: start,
	}, nil
}

func (r *Runner) timeoutFor(tool models.Tool) time.Duration {
	if tool == models.ToolTraceroute {
		return time.Duration(r.cfg.TracerouteTimeout)
	}

	return time.Duration(r.cfg.PingTimeout)
}

// argsFor builds the argument vector from validated fields only.
func argsFor(req *models.DiagRequest) []string {
	switch req.Tool {
	case models.ToolTraceroute:
		return []string{"-m", strconv.Itoa(req.Count), req.Target}
	default:
		return []string{"-c", strconv.Itoa(req.Count), req.Target}
	}
}

// execRunner is the production CommandRunner. The child runs in its own
// process group so a timeout kill also takes out any helpers the tool
// spawned.
type execRunner struct{}

func (e *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf bytes.Buffer

	limited := &boundedWriter{w: &buf, remaining: maxOutputBytes}
	cmd.Stdout = limited
	cmd.Stderr = limited

	if err := cmd.Start(); err != nil {
		return nil, 0, err
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		killProcessGroup(cmd.Process.Pid)

		// Give Wait a moment to reap; never leave a zombie behind.
		select {
		case <-waitErr:
		case <-time.After(killGracePeriod):
		}

		return nil, 0, ctx.Err()
	case err := <-waitErr:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return buf.Bytes(), exitErr.ExitCode(), nil
		}

		if err != nil {
			return nil, 0, err
		}

		return buf.Bytes(), 0, nil
	}
}

// killProcessGroup sends SIGKILL to the whole group.
func killProcessGroup(pid int) {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		log.Printf("Failed to kill process group %d: %v", pid, err)
	}
}

// boundedWriter keeps the first N bytes and silently discards the rest.
type boundedWriter struct {
	w         *bytes.Buffer
	remaining int
}

func (b *boundedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if b.remaining > 0 {
		keep := p
		if len(keep) > b.remaining {
			keep = keep[:b.remaining]
		}

		b.w.Write(keep)
		b.remaining -= len(keep)
	}

	return n, nil
}
