package email

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

type SMTPSender struct {
	lg zerolog.Logger

	host     string
	port     int
	user     string
	pass     string
	from     string
	insecure bool

	timeout time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
	Insecure bool
}

func NewSMTPSender(cfg SMTPConfig, lg zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		lg:       lg.With().Str("component", "smtp_sender").Logger(),
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.Username,
		pass:     cfg.Password,
		from:     cfg.From,
		insecure: cfg.Insecure,
		timeout:  cfg.Timeout,
	}
}

// Send delivers an HTML message with a plain-text fallback.
func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	m, err := s.buildMessage(to, subject, htmlBody)
	if err != nil {
		return err
	}

	tlsPolicy := mail.TLSMandatory
	if s.insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.user != "" {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthPlain), mail.WithUsername(s.user), mail.WithPassword(s.pass))
	}

	c, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return PermanentError{msg: "smtp client init failed: " + err.Error()}
	}

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", to).Msg("smtp send failed")

		msg := err.Error()
		if containsAny(msg, "535", "5.7.8", "authentication", "Username and Password not accepted") {
			return PermanentError{msg: "smtp auth failed: " + msg}
		}
		return TemporaryError{msg: "smtp transient failure: " + msg}
	}

	s.lg.Info().Str("to", to).Str("subject", subject).Msg("smtp send ok")
	return nil
}

func (s *SMTPSender) buildMessage(to, subject, htmlBody string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, PermanentError{msg: "invalid from address: " + err.Error()}
	}
	if err := m.To(to); err != nil {
		return nil, PermanentError{msg: "invalid to address: " + err.Error()}
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, plainText(htmlBody))
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)
	return m, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// plainText is a crude HTML-to-text fallback for clients without HTML.
func plainText(htmlBody string) string {
	s := strings.ReplaceAll(htmlBody, "<br>", "\n")
	s = strings.ReplaceAll(s, "</p>", "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'").Replace(s)
	return strings.TrimSpace(s)
}

func containsAny(s string, subs ...string) bool {
	for _, x := range subs {
		if x != "" && strings.Contains(s, x) {
			return true
		}
	}
	return false
}
