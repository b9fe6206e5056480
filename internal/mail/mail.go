package mail

import (
	"errors"
	"fmt"
	"log"

	"gopkg.in/gomail.v2"
)

// ErrTransport wraps any failure to hand a message to the mail relay.
var ErrTransport = errors.New("mail transport failure")

// Sender abstracts the outbound mail capability.
type Sender interface {
	Send(subject, recipient, body string) error
}

// SMTPConfig holds the relay settings for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough settings are present to dial a relay.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.From != ""
}

// SMTPSender delivers plain-text mail through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(subject, recipient, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP relay is configured, so the rest of the system can run locally.
type LogSender struct{}

func (LogSender) Send(subject, recipient, body string) error {
	log.Printf("mail (not sent, no relay configured) to=%s subject=%q\n%s", recipient, subject, body)
	return nil
}
