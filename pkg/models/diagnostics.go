package models

import "time"

// Tool identifies a supported external diagnostic program.
type Tool string

const (
	ToolPing       Tool = "ping"
	ToolTraceroute Tool = "traceroute"
)

// DiagRequest is a validated, immutable diagnostic invocation. Build
// one through diag.NewRequest; never construct from raw user input.
type DiagRequest struct {
	ID     string `json:"id"`
	Tool   Tool   `json:"tool"`
	Target string `json:"target"`
	Count  int    `json:"count"` // ping packet count or traceroute hop limit
	IPv6   bool   `json:"ipv6"`
}

// DiagResult is the outcome of one completed diagnostic run. A non-zero
// ExitCode means the tool ran but failed; that is a result, not an error.
type DiagResult struct {
	ID        string        `json:"id"`
	Tool      Tool          `json:"tool"`
	Target    string        `json:"target"`
	Output    string        `json:"output"`
	ExitCode  int           `json:"exit_code"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}
