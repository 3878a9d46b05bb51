package services

import (
	"testing"

	"github.com/dimitrije/pluginhub-api/internal/config"
	"github.com/stretchr/testify/assert"
)

func smtpConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "user@example.com",
		Password: "password",
		From:     "noreply@example.com",
	}
}

func TestEmailService_IsConfigured(t *testing.T) {
	assert.True(t, NewEmailService(smtpConfig()).IsConfigured())

	missingHost := smtpConfig()
	missingHost.Host = ""
	assert.False(t, NewEmailService(missingHost).IsConfigured())

	missingFrom := smtpConfig()
	missingFrom.From = ""
	assert.False(t, NewEmailService(missingFrom).IsConfigured())
}

func TestEmailService_Send_NotConfigured(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{})

	assert.NoError(t, svc.SendTeamInvite("a@example.com", "Agency", "Ana", "Member", "http://localhost/invites"))
}

func TestTeamInviteBody_EscapesInput(t *testing.T) {
	body := teamInviteBody("<script>", "Ana & Co", "Member", "http://localhost/invites?id=1")

	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "Ana &amp; Co")
	assert.NotContains(t, body, "<script>")
}

func TestBuildMessage_Headers(t *testing.T) {
	msg := buildMessage("from@example.com", "to@example.com", "Hello", "<p>body</p>")

	assert.Contains(t, msg, "From: from@example.com\r\n")
	assert.Contains(t, msg, "To: to@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "\r\n\r\n<p>body</p>")
}
