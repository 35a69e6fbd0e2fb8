package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	output string
	err    error

	calls [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.err
}

func TestCollectReturnsLogText(t *testing.T) {
	runner := &fakeRunner{output: "line1\nline2\n"}
	collector := NewDockerLogs(runner, nil)

	logs := collector.Collect(context.Background(), "sentinel-target-api", 20)

	assert.Equal(t, "line1\nline2\n", logs)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"docker", "logs", "--tail", "20", "sentinel-target-api"}, runner.calls[0])
}

func TestCollectCommandFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("no such container")}
	collector := NewDockerLogs(runner, nil)

	logs := collector.Collect(context.Background(), "missing", 20)

	assert.Equal(t, LogsUnavailable, logs)
}

func TestCollectDockerMissing(t *testing.T) {
	runner := &fakeRunner{err: ErrExecutableNotFound}
	collector := NewDockerLogs(runner, nil)

	logs := collector.Collect(context.Background(), "sentinel-target-api", 20)

	assert.Equal(t, DockerUnavailable, logs)
}

func TestCollectDefaultsTailLines(t *testing.T) {
	runner := &fakeRunner{output: "ok"}
	collector := NewDockerLogs(runner, nil)

	collector.Collect(context.Background(), "sentinel-target-api", 0)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "20", runner.calls[0][3])
}
