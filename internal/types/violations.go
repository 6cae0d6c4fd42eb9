package types

import (
	"time"

	"github.com/google/uuid"
)

// Violation type taxonomy
const (
	ViolationBiasDetected        = "bias_detected"
	ViolationDeadlineBreach      = "deadline_breach"
	ViolationUnqualifiedReviewer = "unqualified_reviewer"
	ViolationProcessDeviation    = "process_deviation"
	ViolationDataIntegrity       = "data_integrity"
)

// Severity classifies how serious a violation is
type Severity string

// Violation severities
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RequiresAlert reports whether detection of this severity triggers an
// external notification.
func (s Severity) RequiresAlert() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// ViolationResolution records how a violation was closed out
type ViolationResolution struct {
	Resolution         string   `json:"resolution"`
	PreventiveMeasures []string `json:"preventive_measures,omitempty"`
}

// ViolationRecord represents a single ethical-constraint violation.
// Records are created on detection, mutated only by an explicit resolve
// operation and never deleted.
type ViolationRecord struct {
	ID               uuid.UUID            `json:"id"`
	Type             string               `json:"type"`
	Severity         Severity             `json:"severity"`
	Description      string               `json:"description"`
	AffectedEntities []string             `json:"affected_entities,omitempty"`
	DetectedAt       time.Time            `json:"detected_at"`
	ResolvedAt       *time.Time           `json:"resolved_at,omitempty"`
	Resolution       *ViolationResolution `json:"resolution,omitempty"`
}

// Resolved reports whether the violation has been closed out
func (v *ViolationRecord) Resolved() bool {
	return v.ResolvedAt != nil
}
