package identity

import (
	"context"
	"strings"

	"moodmusic/logger"
	"moodmusic/model"
)

// DefaultResetURLBase is the frontend page that accepts reset tokens.
const DefaultResetURLBase = "http://localhost:5173/reset-password"

// ResetNotifier delivers a plaintext reset token to its owner.
type ResetNotifier interface {
	NotifyReset(ctx context.Context, user *model.User, token string) error
}

// LogNotifier writes the reset link to the server log. It stands in for
// email delivery.
type LogNotifier struct {
	base string
}

// NewLogNotifier creates a LogNotifier. An empty base uses
// DefaultResetURLBase.
func NewLogNotifier(base string) *LogNotifier {
	if base == "" {
		base = DefaultResetURLBase
	}
	return &LogNotifier{base: strings.TrimRight(base, "/")}
}

// ResetURL returns the link carrying token.
func (n *LogNotifier) ResetURL(token string) string {
	return n.base + "/" + token
}

func (n *LogNotifier) NotifyReset(_ context.Context, user *model.User, token string) error {
	logger.Info("Password reset link generated",
		logger.String("user_id", user.ID),
		logger.String("email", user.Email),
		logger.String("reset_url", n.ResetURL(token)))
	return nil
}
