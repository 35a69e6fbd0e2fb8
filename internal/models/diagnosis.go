package models

import "strings"

// Severity captures diagnosed impact levels.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
	SeverityUnknown  Severity = "Unknown"
)

// RemediationNone is the sentinel a backend uses when no corrective
// command applies.
const RemediationNone = "N/A"

// Diagnosis is the normalized verdict produced for one anomaly episode.
// It is immutable after creation; only the loop iteration that triggered
// it reads it.
type Diagnosis struct {
	RootCause       string   `json:"root_cause"`
	Severity        Severity `json:"severity"`
	RemediationStep string   `json:"remediation_step"`
	ModelUsed       string   `json:"model_used,omitempty"`
	RawResponse     string   `json:"raw_response,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Actionable reports whether the diagnosed severity warrants automatic
// remediation. Backends return severity in arbitrary case, so the
// comparison is deliberately lenient.
func (d Diagnosis) Actionable() bool {
	return EqualSeverity(d.Severity, SeverityHigh) || EqualSeverity(d.Severity, SeverityCritical)
}

// EqualSeverity compares severities case-insensitively. Backends are not
// trusted to match the enum's casing.
func EqualSeverity(a, b Severity) bool {
	return strings.EqualFold(string(a), string(b))
}
