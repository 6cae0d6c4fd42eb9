package types

import "time"

// AuditEntry is one immutable record in the audit trail. Entry IDs are
// ULIDs, so lexicographic order is chronological order.
type AuditEntry struct {
	ID              string         `json:"id"`
	Action          string         `json:"action"`
	Actor           string         `json:"actor"`
	Resource        string         `json:"resource"`
	Changes         map[string]any `json:"changes,omitempty"`
	EthicalImpact   string         `json:"ethical_impact,omitempty"`
	ComplianceFlags []string       `json:"compliance_flags,omitempty"`
	RecordedAt      time.Time      `json:"recorded_at"`
}
