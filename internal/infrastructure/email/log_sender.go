package email

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes mails to the log instead of sending them. Used in dev.
type LogSender struct {
	lg zerolog.Logger
}

func NewLogSender(lg zerolog.Logger) *LogSender {
	return &LogSender{lg: lg.With().Str("component", "log_sender").Logger()}
}

func (s *LogSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	s.lg.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", htmlBody).
		Msg("FAKE send email")
	return nil
}
