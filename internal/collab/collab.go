// Package collab defines the interfaces of external collaborators consumed
// by the evaluation engine. Implementations live outside the core; the
// engine treats their output as opaque input data.
package collab

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BiasScore is the result of scoring a piece of text for biased language.
type BiasScore struct {
	Score        float64  `json:"score"`
	FlaggedTerms []string `json:"flagged_terms,omitempty"`
}

// BiasScorer annotates free text with a bias score and flagged terms.
type BiasScorer interface {
	ScoreText(ctx context.Context, text string) (*BiasScore, error)
}

// Verification is the result of a reviewer qualification check.
type Verification struct {
	Verified  bool       `json:"verified"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// QualificationVerifier checks that a reviewer holds a given qualification.
// A verification error means "not verified": callers fail closed.
type QualificationVerifier interface {
	Verify(ctx context.Context, reviewerID uuid.UUID, qualification string) (*Verification, error)
}

// Notifier dispatches a notification to a channel. Dispatch is
// fire-and-forget: failures must not abort the calling operation.
type Notifier interface {
	Notify(ctx context.Context, channel string, payload map[string]any) error
}
