package service

import (
	"fmt"
	"net/smtp"

	"chatwave/internal/config"
)

// EmailSender delivers verification codes. Delivery mechanics are outside
// the core; this interface is the whole contract.
type EmailSender interface {
	SendVerificationEmail(to, code string) error
}

type smtpSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender builds an EmailSender over plain SMTP.
func NewSMTPSender(cfg *config.Config) EmailSender {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	return &smtpSender{
		addr: cfg.SMTPHost + ":" + cfg.SMTPPort,
		auth: auth,
		from: cfg.SMTPFrom,
	}
}

func (s *smtpSender) SendVerificationEmail(to, code string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Verify your email\r\n\r\nYour verification code is %s. It expires in 5 minutes.\r\n",
		s.from, to, code,
	)
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
