package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelstack/sentinel-observer/internal/models"
)

type gateRunner struct {
	err   error
	calls [][]string
}

func (g *gateRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	g.calls = append(g.calls, append([]string{name}, args...))
	return "", g.err
}

type gateProber struct {
	healthy bool
	calls   int
}

func (g *gateProber) Healthy(context.Context) bool {
	g.calls++
	return g.healthy
}

func newTestGate(runner *gateRunner, prober *gateProber) *RemediationGate {
	gate := NewRemediationGate(runner, prober, time.Second, nil)
	gate.sleep = func(context.Context, time.Duration) bool { return true }
	return gate
}

func actionableDiagnosis(step string) models.Diagnosis {
	return models.Diagnosis{
		RootCause:       "cpu saturation",
		Severity:        models.SeverityHigh,
		RemediationStep: step,
	}
}

func TestRemediateRejectsUnlistedCommand(t *testing.T) {
	runner := &gateRunner{}
	prober := &gateProber{healthy: true}
	gate := newTestGate(runner, prober)

	ok := gate.Remediate(context.Background(), actionableDiagnosis("rm -rf /"))

	assert.False(t, ok)
	assert.Empty(t, runner.calls, "unauthorized command must never reach the executor")
	assert.Zero(t, prober.calls)
}

func TestRemediateSkipsLowSeverity(t *testing.T) {
	runner := &gateRunner{}
	gate := newTestGate(runner, &gateProber{healthy: true})

	diag := actionableDiagnosis("docker-compose restart")
	diag.Severity = models.SeverityMedium

	assert.False(t, gate.Remediate(context.Background(), diag))
	assert.Empty(t, runner.calls)
}

func TestRemediateSkipsSentinelStep(t *testing.T) {
	runner := &gateRunner{}
	gate := newTestGate(runner, &gateProber{healthy: true})

	assert.False(t, gate.Remediate(context.Background(), actionableDiagnosis("N/A")))
	assert.False(t, gate.Remediate(context.Background(), actionableDiagnosis("")))
	assert.Empty(t, runner.calls)
}

func TestRemediateSeverityCaseInsensitive(t *testing.T) {
	runner := &gateRunner{}
	prober := &gateProber{healthy: true}
	gate := newTestGate(runner, prober)

	diag := actionableDiagnosis("docker-compose restart")
	diag.Severity = models.Severity("critical")

	assert.True(t, gate.Remediate(context.Background(), diag))
	require.Len(t, runner.calls, 1)
}

func TestRemediateConfirmedRecovery(t *testing.T) {
	runner := &gateRunner{}
	prober := &gateProber{healthy: true}
	gate := newTestGate(runner, prober)

	ok := gate.Remediate(context.Background(), actionableDiagnosis("docker-compose restart"))

	assert.True(t, ok)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"docker-compose", "restart"}, runner.calls[0])
	assert.Equal(t, 1, prober.calls)
}

func TestRemediateCommandSucceedsTargetStillDown(t *testing.T) {
	runner := &gateRunner{}
	prober := &gateProber{healthy: false}
	gate := newTestGate(runner, prober)

	ok := gate.Remediate(context.Background(), actionableDiagnosis("docker-compose restart"))

	assert.False(t, ok, "success means verified recovery, not command exit status")
	require.Len(t, runner.calls, 1)
}

func TestRemediateExecutorFailure(t *testing.T) {
	runner := &gateRunner{err: errors.New("exit status 1")}
	prober := &gateProber{healthy: true}
	gate := newTestGate(runner, prober)

	ok := gate.Remediate(context.Background(), actionableDiagnosis("docker-compose restart"))

	assert.False(t, ok)
	assert.Zero(t, prober.calls, "no probe after a failed command")
}

func TestRemediateCancelledDuringSettle(t *testing.T) {
	runner := &gateRunner{}
	prober := &gateProber{healthy: true}
	gate := NewRemediationGate(runner, prober, time.Second, nil)
	gate.sleep = func(context.Context, time.Duration) bool { return false }

	ok := gate.Remediate(context.Background(), actionableDiagnosis("docker-compose restart"))

	assert.False(t, ok)
	assert.Zero(t, prober.calls)
}

func TestCommandAllowedExactMatchOnly(t *testing.T) {
	assert.True(t, CommandAllowed("docker-compose restart"))
	assert.False(t, CommandAllowed("docker-compose restart "))
	assert.False(t, CommandAllowed("DOCKER-COMPOSE RESTART"))
	assert.False(t, CommandAllowed("docker-compose restart; rm -rf /"))
}
