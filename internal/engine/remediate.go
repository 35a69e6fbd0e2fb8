package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sentinelstack/sentinel-observer/internal/models"
	"github.com/sentinelstack/sentinel-observer/internal/repo"
	"github.com/sentinelstack/sentinel-observer/internal/utils"
)

// allowedCommands is the full authorization surface for corrective
// actions. It is fixed at compile time and never extended at runtime;
// anything else is refused outright.
var allowedCommands = map[string]struct{}{
	"docker-compose restart":             {},
	"docker-compose stop":                {},
	"docker-compose up -d":               {},
	"docker restart sentinel-target-api": {},
	"docker stop sentinel-target-api":    {},
}

// CommandAllowed reports whether a proposed corrective command is on the
// allow-list. Exact string match only.
func CommandAllowed(command string) bool {
	_, ok := allowedCommands[command]
	return ok
}

// TargetProber verifies the monitored service recovered after an action.
type TargetProber interface {
	Healthy(ctx context.Context) bool
}

// RemediationGate authorizes and executes corrective actions, then
// verifies recovery. "Success" means a confirmed healthy target, not a
// clean command exit.
type RemediationGate struct {
	runner repo.CommandRunner
	prober TargetProber
	settle time.Duration
	logger *slog.Logger

	// sleep waits out the settle interval; swapped in tests to avoid
	// wall-clock delays. Returns false if the context ended first.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewRemediationGate constructs the gate.
func NewRemediationGate(runner repo.CommandRunner, prober TargetProber, settle time.Duration, logger *slog.Logger) *RemediationGate {
	if runner == nil {
		runner = repo.ExecRunner{}
	}
	if settle <= 0 {
		settle = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemediationGate{
		runner: runner,
		prober: prober,
		settle: settle,
		logger: logger,
		sleep:  contextSleep,
	}
}

// Remediate acts on a diagnosis. All three authorization conditions are
// checked here regardless of what the engine returned: severity must be
// High or Critical, the step must be present and not the N/A sentinel,
// and the step must be an allow-listed command. Returns true only when
// the target is confirmed healthy after the action.
func (g *RemediationGate) Remediate(ctx context.Context, diag models.Diagnosis) bool {
	if !diag.Actionable() {
		g.logger.Info("severity below remediation bar, skipping",
			slog.String("severity", string(diag.Severity)))
		return false
	}

	command := diag.RemediationStep
	if command == "" || command == models.RemediationNone {
		g.logger.Info("no remediation step proposed, skipping")
		return false
	}
	if !CommandAllowed(command) {
		g.logger.Warn("command not in allow-list, refusing execution",
			slog.String("command", command))
		return false
	}

	g.logger.Warn("executing corrective action", slog.String("command", command))

	// Argument vector, never a shell line.
	argv := strings.Fields(command)
	output, err := g.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		g.logger.Error("corrective command failed",
			slog.Any("error", utils.NewAppError("remediate.exec", command, err)),
			slog.String("output", output))
		return false
	}
	g.logger.Info("corrective command executed", slog.String("command", command))

	g.logger.Info("waiting for the target to stabilize", slog.Duration("settle", g.settle))
	if !g.sleep(ctx, g.settle) {
		return false
	}

	if !g.prober.Healthy(ctx) {
		g.logger.Warn("target still unhealthy after corrective action, manual intervention required")
		return false
	}
	g.logger.Info("healing successful, target is healthy")
	return true
}

func contextSleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
