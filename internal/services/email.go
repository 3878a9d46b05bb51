package services

import (
	"fmt"
	"html"
	"net/smtp"

	"github.com/dimitrije/pluginhub-api/internal/config"
)

type EmailService struct {
	cfg config.SMTPConfig
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

// Send is a no-op when SMTP is not configured.
func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(buildMessage(s.cfg.From, to, subject, body)))
}

func buildMessage(from, to, subject, body string) string {
	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		from, to, subject, body)
}

func teamInviteBody(teamName, inviterName, role, inviteURL string) string {
	return fmt.Sprintf(`<html>
<body>
	<h2>Team invitation</h2>
	<p><strong>%s</strong> invited you to join <strong>%s</strong> as %s.</p>
	<p><a href="%s">Review the invitation</a></p>
</body>
</html>`, html.EscapeString(inviterName), html.EscapeString(teamName), html.EscapeString(role), html.EscapeString(inviteURL))
}

func (s *EmailService) SendTeamInvite(to, teamName, inviterName, role, inviteURL string) error {
	subject := fmt.Sprintf("You've been invited to join %s", teamName)
	return s.Send(to, subject, teamInviteBody(teamName, inviterName, role, inviteURL))
}
