package diag

import "context"

//go:generate mockgen -destination=mock_runner.go -package=diag github.com/lgxlabs/netglass/pkg/diag CommandRunner

// CommandRunner executes one external command built from an argument
// vector. Implementations must kill the whole process group when ctx
// expires and bound the captured output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (output []byte, exitCode int, err error)
}
