package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SendText sends a plain-text mail. Callers usually fire this from a
// goroutine; delivery failures are logged, not surfaced to the user.
func SendText(cfg SMTPConfig, to, subject, body string) error {
	if cfg.Host == "" {
		return fmt.Errorf("smtp: host not configured")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var msg strings.Builder
	msg.WriteString("From: " + cfg.From + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var a smtp.Auth
	if cfg.User != "" {
		a = smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)
	}
	return smtp.SendMail(addr, a, cfg.From, []string{to}, []byte(msg.String()))
}

func OnboardingBody(name, orgName string) string {
	return "Hello " + name + ",\n\n" +
		"Welcome to DocuChat. Your workspace \"" + orgName + "\" is ready.\n\n" +
		"Create a chat room, upload your PDFs and start asking questions.\n\n" +
		"Best regards,\n" +
		"DocuChat\n"
}

func InvitationBody(inviterName, orgName, token string) string {
	return "Hello,\n\n" +
		inviterName + " invited you to join \"" + orgName + "\" on DocuChat.\n\n" +
		"Use this token to finish setting up your account: " + token + "\n\n" +
		"Best regards,\n" +
		"DocuChat\n"
}

func PasswordResetBody(name, token string) string {
	return "Hello " + name + ",\n\n" +
		"We received a request to reset your DocuChat password.\n" +
		"Use this token to set a new one: " + token + "\n\n" +
		"If you did not request this, you can ignore this mail.\n\n" +
		"Best regards,\n" +
		"DocuChat\n"
}
