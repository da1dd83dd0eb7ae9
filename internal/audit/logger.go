package audit

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	pkgctx "github.com/baechuer/contacts-api/internal/pkg/context"
)

// Logger provides structured audit logging for account events.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

// warnActions are logged at warn level; everything else is info.
var warnActions = map[string]bool{
	"login_failed":         true,
	"register_conflict":    true,
	"mail_dispatch_failed": true,
}

// Record writes one audit line. An "email" field is masked before it is logged.
func (l *Logger) Record(ctx context.Context, action string, fields map[string]string) {
	ev := l.log.Info()
	if warnActions[action] {
		ev = l.log.Warn()
	}

	ev = ev.Str("action", action)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fields[k]
		if k == "email" {
			v = maskEmail(v)
		}
		ev = ev.Str(k, v)
	}

	if ip := pkgctx.GetClientIP(ctx); ip != "" {
		ev = ev.Str("ip", ip)
	}
	ev.Str("request_id", pkgctx.GetRequestID(ctx)).Msg("audit: " + action)
}

// maskEmail partially masks email for privacy in logs
func maskEmail(email string) string {
	if len(email) < 5 {
		return "***"
	}
	at := 0
	for i, c := range email {
		if c == '@' {
			at = i
			break
		}
	}
	if at < 2 {
		return email[:1] + "***" + email[at:]
	}
	return email[:2] + "***" + email[at:]
}
