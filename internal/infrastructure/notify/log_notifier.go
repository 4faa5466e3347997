package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/haven-app/haven-api/internal/core/ports"
)

// LogNotifier simulates reset-mail delivery by logging the reset link. It
// stands in until a real mail provider is wired; the dispatcher and store
// behave identically either way.
type LogNotifier struct {
	log     zerolog.Logger
	baseURL string
}

func NewLogNotifier(log zerolog.Logger, baseURL string) *LogNotifier {
	return &LogNotifier{log: log, baseURL: baseURL}
}

func (n *LogNotifier) Notify(_ context.Context, notice ports.ResetNotice) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", n.baseURL, notice.Token)
	n.log.Info().
		Str("email", notice.Email).
		Str("reset_link", link).
		Time("requested_at", notice.RequestedAt).
		Msg("password reset link issued (simulated delivery)")
	return nil
}
