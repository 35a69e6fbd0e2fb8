package repo

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// ErrExecutableNotFound signals that the external binary is not installed.
var ErrExecutableNotFound = errors.New("executable not found")

// CommandRunner runs an argument vector and returns its captured output.
// Commands are never routed through a shell interpreter.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the os/exec backed CommandRunner.
type ExecRunner struct{}

// Run executes the command synchronously, capturing combined output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return "", ErrExecutableNotFound
		}
		return strings.TrimSpace(string(out)), err
	}
	return string(out), nil
}
