package auth

import "context"

// PasswordResetMessage is the canonical payload for reset delivery.
type PasswordResetMessage struct {
	AccountID string
	Email     string
}

// ResetNotifier delivers password reset instructions.
//
// NOTE:
// Quest ships with a no-op notifier only. Email delivery is wired elsewhere.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error
}

// NoopResetNotifier is the default notifier.
type NoopResetNotifier struct{}

// SendPasswordReset does nothing.
func (NoopResetNotifier) SendPasswordReset(_ context.Context, _ PasswordResetMessage) error {
	return nil
}
