package auth

import (
	"context"
	"fmt"
	"html"
	"net/url"
)

const verificationSubject = "Verify your email"

// VerificationLink builds the public link that redeems token.
func (s *Service) VerificationLink(token string) string {
	return s.publicBaseURL + "/api/users/verify/" + url.PathEscape(token)
}

func verificationBody(link string) string {
	l := html.EscapeString(link)
	return fmt.Sprintf(
		`<p>Thanks for signing up.</p><p><a target="_blank" href="%s">Click here to verify your email</a></p><p>If the link does not work, paste this into your browser:<br>%s</p>`,
		l, l,
	)
}

// sendVerification hands the mail to the dispatcher and returns immediately.
// The job gets a context detached from the request so it survives the response.
func (s *Service) sendVerification(ctx context.Context, to, token string) {
	link := s.VerificationLink(token)
	body := verificationBody(link)
	jobCtx := context.WithoutCancel(ctx)

	job := func() {
		sendCtx, cancel := context.WithTimeout(jobCtx, s.mailTimeout)
		defer cancel()

		if err := s.mailer.Send(sendCtx, to, verificationSubject, body); err != nil {
			s.lg.Error().Err(err).Msg("verification mail dispatch failed")
			s.audit(jobCtx, "mail_dispatch_failed", map[string]string{"email": to, "error": err.Error()})
		}
	}

	if !s.dispatch.Submit(job) {
		s.lg.Warn().Msg("verification mail dropped: dispatcher closed")
		s.audit(jobCtx, "mail_dispatch_failed", map[string]string{"email": to, "error": "dispatcher closed"})
	}
}
