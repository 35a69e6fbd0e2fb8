package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/sentinelstack/sentinel-observer/internal/config"
	"github.com/sentinelstack/sentinel-observer/internal/metrics"
	"github.com/sentinelstack/sentinel-observer/internal/models"
	"github.com/sentinelstack/sentinel-observer/internal/utils"
)

// PromQL expressions polled each iteration.
const (
	cpuQuery     = `rate(process_cpu_seconds_total[1m])`
	latencyQuery = `histogram_quantile(0.90, sum(rate(http_request_duration_seconds_bucket[1m])) by (le))`
)

// MetricSource reads one scalar from the metrics store.
type MetricSource interface {
	Query(ctx context.Context, expr string) models.MetricSample
}

// EvidenceCollector gathers recent log text from the monitored target.
type EvidenceCollector interface {
	Collect(ctx context.Context, container string, tailLines int) string
}

// Diagnoser classifies anomaly evidence into a Diagnosis.
type Diagnoser interface {
	Diagnose(ctx context.Context, metrics map[string]float64, logs string) models.Diagnosis
}

// Remediator authorizes, executes, and verifies a corrective action.
type Remediator interface {
	Remediate(ctx context.Context, diag models.Diagnosis) bool
}

// Observer drives the decide/diagnose/act/verify loop. It is strictly
// sequential: one poll, one optional diagnosis, one optional remediation
// complete before the next poll begins, so a health re-probe never races
// a fresh poll reading transient post-restart metrics.
type Observer struct {
	logger     *slog.Logger
	source     MetricSource
	evidence   EvidenceCollector
	diagnoser  Diagnoser
	remediator Remediator

	thresholds config.ThresholdsConfig
	target     config.TargetConfig
	poll       time.Duration
	cooldown   time.Duration

	latencies *utils.LatencyTracker

	// lastSleep is the only state carried between iterations.
	lastSleep time.Duration

	// sleep waits between polls; swapped in tests to skip wall-clock
	// delays. Returns false once the context is done.
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewObserver constructs the loop service.
func NewObserver(
	logger *slog.Logger,
	source MetricSource,
	evidence EvidenceCollector,
	diagnoser Diagnoser,
	remediator Remediator,
	cfg *config.Config,
) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	poll := cfg.Loop.PollInterval
	if poll <= 0 {
		poll = 30 * time.Second
	}
	cooldown := cfg.Loop.CooldownInterval
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Observer{
		logger:     logger,
		source:     source,
		evidence:   evidence,
		diagnoser:  diagnoser,
		remediator: remediator,
		thresholds: cfg.Thresholds,
		target:     cfg.Target,
		poll:       poll,
		cooldown:   cooldown,
		latencies:  utils.NewLatencyTracker(256),
		sleep:      contextSleep,
	}
}

// Run polls until the context is cancelled. There is no terminal state;
// every downstream failure degrades locally and the observer keeps
// observing.
func (o *Observer) Run(ctx context.Context) {
	o.logger.Info("starting observer",
		slog.Duration("poll_interval", o.poll),
		slog.Float64("cpu_threshold", o.thresholds.CPU),
		slog.Float64("latency_threshold", o.thresholds.Latency))

	for {
		interval := o.iterate(ctx)
		o.lastSleep = interval
		if !o.sleep(ctx, interval) {
			o.logger.Info("observer stopped")
			return
		}
	}
}

// iterate performs one poll and returns the sleep interval to use before
// the next: the normal interval, or the cooldown interval after a fully
// handled anomaly episode.
func (o *Observer) iterate(ctx context.Context) time.Duration {
	cpuSample := o.source.Query(ctx, cpuQuery)
	latencySample := o.source.Query(ctx, latencyQuery)

	// An unreadable store is not an anomaly; retry on the normal cadence.
	if cpuSample.Missing() || latencySample.Missing() {
		metrics.ObservePoll(metrics.PollUnreachable)
		return o.poll
	}

	cpu := cpuSample.Scalar()
	latency := latencySample.Scalar()

	o.logger.Info("poll",
		slog.Float64("cpu", cpu),
		slog.Float64("p90_latency", latency))

	if cpu <= o.thresholds.CPU && latency <= o.thresholds.Latency {
		metrics.ObservePoll(metrics.PollOK)
		return o.poll
	}

	metrics.ObservePoll(metrics.PollBreach)
	o.handleAnomaly(ctx, cpu, latency)
	return o.cooldown
}

// handleAnomaly runs one full anomaly episode: evidence, diagnosis, and
// the optional gated remediation.
func (o *Observer) handleAnomaly(ctx context.Context, cpu, latency float64) {
	o.logger.Warn("anomalous activity detected, consulting reasoning backends",
		slog.Float64("cpu", cpu),
		slog.Float64("p90_latency", latency))

	logs := o.evidence.Collect(ctx, o.target.Container, o.target.LogTailLines)

	evidence := map[string]float64{
		"cpu_usage_rate_1m": cpu,
		"p90_latency_1m":    latency,
		"cpu_threshold":     o.thresholds.CPU,
		"latency_threshold": o.thresholds.Latency,
	}

	start := time.Now()
	diag := o.diagnoser.Diagnose(ctx, evidence, logs)
	duration := time.Since(start)

	if diag.Error != "" {
		metrics.ObserveDiagnosis(duration, metrics.OutcomeError)
		o.logger.Error("diagnosis failed", slog.String("error", diag.Error))
		return
	}

	o.latencies.Observe(duration)
	metrics.ObserveDiagnosis(duration, metrics.OutcomeSuccess)
	o.reportDiagnosis(diag)
	if count := o.latencies.Count(); count >= 5 && count%5 == 0 {
		o.logger.Info("diagnosis latency",
			slog.Duration("p95", o.latencies.Percentile(95)), slog.Int("samples", count))
	}

	if !diag.Actionable() {
		o.logger.Info("severity below remediation bar, no action taken",
			slog.String("severity", string(diag.Severity)))
		return
	}
	// The gate re-checks severity, step, and allow-list membership
	// itself; it is the authorization boundary, not this loop.
	confirmed := o.remediator.Remediate(ctx, diag)
	metrics.ObserveRemediation(confirmed)
}

// reportDiagnosis emits the full verdict as one structured record.
func (o *Observer) reportDiagnosis(diag models.Diagnosis) {
	attrs := []any{
		slog.String("model_used", diag.ModelUsed),
		slog.String("severity", string(diag.Severity)),
		slog.String("root_cause", diag.RootCause),
		slog.String("remediation_step", diag.RemediationStep),
	}
	if diag.RawResponse != "" {
		attrs = append(attrs, slog.String("raw_response", diag.RawResponse))
	}
	o.logger.Info("diagnosis report", attrs...)
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
