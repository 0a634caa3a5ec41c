package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SendMailFunc matches smtp.SendMail
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier mails admin notifications through an SMTP relay
type EmailNotifier struct {
	host     string
	port     string
	user     string
	password string
	from     string
	to       []string
	subject  string
	send     SendMailFunc
}

func NewEmailNotifier(host, port, user, password, from string, to ...string) *EmailNotifier {
	return &EmailNotifier{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
		subject:  "Autobuy panel notification",
		send:     smtp.SendMail,
	}
}

// Configured reports whether enough settings are present to send mail
func (s *EmailNotifier) Configured() bool {
	return s.host != "" && s.port != "" && s.user != "" && s.password != "" && len(s.to) > 0
}

func (s *EmailNotifier) Notify(ctx context.Context, text string) error {
	if !s.Configured() {
		return fmt.Errorf("SMTP credentials not fully configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(s.to, ", "), s.subject, text))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.from, s.to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
