package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sentinelstack/sentinel-observer/internal/models"
)

const systemPrompt = "You are a Senior Site Reliability Engineer. Analyze the following metrics and logs from a web service. " +
	"Respond ONLY with a valid JSON object containing the following keys: " +
	"'root_cause' (string: What happened?), " +
	"'severity' (string: Low/Medium/High/Critical), " +
	"'remediation_step' (string: What command should I run to fix this? e.g., 'docker-compose restart')."

// allModelsFailed is returned when the whole chain was skipped or errored.
const allModelsFailed = "All models failed to provide an analysis."

// DiagnosisEngine sends evidence down an ordered backend chain and
// normalizes the first usable reply into a Diagnosis. Chain order is the
// sole priority signal; there is no scoring or voting across models.
type DiagnosisEngine struct {
	backends []Backend
	logger   *slog.Logger
}

// NewDiagnosisEngine constructs an engine over the given fallback chain.
func NewDiagnosisEngine(backends []Backend, logger *slog.Logger) *DiagnosisEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiagnosisEngine{backends: backends, logger: logger}
}

// Diagnose classifies the anomaly evidence. It tries each backend in
// order and stops at the first one that yields any response text; parse
// failures on that text still terminate the chain, producing an
// Unknown-severity diagnosis that carries the raw reply.
func (e *DiagnosisEngine) Diagnose(ctx context.Context, metrics map[string]float64, logs string) models.Diagnosis {
	input := buildInput(metrics, logs)

	for _, backend := range e.backends {
		e.logger.Info("attempting analysis", slog.String("model", backend.Name()))

		text, err := backend.Analyze(ctx, systemPrompt, input)
		if err != nil {
			if errors.Is(err, ErrNotConfigured) {
				e.logger.Info("backend not configured, skipping", slog.String("model", backend.Name()))
			} else {
				e.logger.Warn("model failed, trying next",
					slog.String("model", backend.Name()), slog.Any("error", err))
			}
			continue
		}
		return parseResponse(text, backend.Name())
	}

	return models.Diagnosis{Error: allModelsFailed}
}

// buildInput serializes the metric readings deterministically (sorted
// keys) and appends the raw log text.
func buildInput(metrics map[string]float64, logs string) string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Metrics:\n{\n")
	for i, k := range keys {
		fmt.Fprintf(&sb, "  %q: %g", k, metrics[k])
		if i < len(keys)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\nLogs:\n")
	sb.WriteString(logs)
	return sb.String()
}

// parseResponse turns raw model text into a Diagnosis. A markdown code
// fence is stripped first, preferring one tagged as JSON.
func parseResponse(text, modelName string) models.Diagnosis {
	stripped := stripFence(text)

	var diag models.Diagnosis
	if err := json.Unmarshal([]byte(stripped), &diag); err != nil {
		return models.Diagnosis{
			RootCause:       "Failed to parse AI response as JSON.",
			Severity:        models.SeverityUnknown,
			RemediationStep: "Manual investigation required.",
			RawResponse:     text,
			ModelUsed:       modelName,
		}
	}
	diag.ModelUsed = modelName
	diag.RawResponse = ""
	diag.Error = ""
	return diag
}

// stripFence unwraps a markdown code fence. A ```json fence wins over a
// bare one; text without fences passes through untouched.
func stripFence(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(text)
}
