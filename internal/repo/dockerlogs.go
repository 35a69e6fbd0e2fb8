package repo

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
)

// Sentinel evidence strings returned when log collection degrades.
// Evidence collection must never abort an anomaly episode.
const (
	LogsUnavailable     = "Logs unavailable."
	DockerUnavailable   = "Docker not installed or unavailable."
	defaultLogTailLines = 20
)

// DockerLogs fetches recent log text from the monitored container.
type DockerLogs struct {
	runner CommandRunner
	logger *slog.Logger
}

// NewDockerLogs constructs an evidence collector using the given runner.
func NewDockerLogs(runner CommandRunner, logger *slog.Logger) *DockerLogs {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DockerLogs{runner: runner, logger: logger}
}

// Collect returns the last tailLines lines of the container's log stream,
// or a sentinel string when the manager cannot serve them.
func (d *DockerLogs) Collect(ctx context.Context, container string, tailLines int) string {
	if tailLines <= 0 {
		tailLines = defaultLogTailLines
	}

	out, err := d.runner.Run(ctx, "docker", "logs", "--tail", strconv.Itoa(tailLines), container)
	if err != nil {
		if errors.Is(err, ErrExecutableNotFound) {
			d.logger.Warn("docker command not found")
			return DockerUnavailable
		}
		d.logger.Warn("could not fetch container logs",
			slog.String("container", container), slog.Any("error", err))
		return LogsUnavailable
	}
	return out
}
