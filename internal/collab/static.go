package collab

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StaticVerifier verifies qualifications against a fixed in-process roster.
// Useful for CLI runs and tests where no verification service is available.
type StaticVerifier struct {
	// Qualified maps reviewer ID to the set of qualifications they hold.
	Qualified map[uuid.UUID]map[string]bool
	// TTL, when non-zero, is applied as the expiry of every verification.
	TTL time.Duration
}

// Verify reports whether the reviewer holds the qualification.
func (v *StaticVerifier) Verify(_ context.Context, reviewerID uuid.UUID, qualification string) (*Verification, error) {
	held := v.Qualified[reviewerID][qualification]
	result := &Verification{Verified: held}
	if held && v.TTL > 0 {
		expires := time.Now().Add(v.TTL)
		result.ExpiresAt = &expires
	}
	return result, nil
}

// LogNotifier logs notifications instead of dispatching them.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify writes the notification to the log and always succeeds.
func (n *LogNotifier) Notify(_ context.Context, channel string, payload map[string]any) error {
	if n.Logger != nil {
		n.Logger.Info("notification dispatched",
			zap.String("channel", channel),
			zap.Any("payload", payload))
	}
	return nil
}
