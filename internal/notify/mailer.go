package notify

import "gopkg.in/gomail.v2"

// Mailer delivers composed emails over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer builds a mailer. Returns nil when no host is configured so
// the worker can run without SMTP (composed mail is logged instead).
func NewMailer(host string, port int, user, password, from string) *Mailer {
	if host == "" {
		return nil
	}
	return &Mailer{dialer: gomail.NewDialer(host, port, user, password), from: from}
}

// Send delivers one email. Each call dials a fresh SMTP session; the
// worker's volume does not justify a held connection.
func (m *Mailer) Send(email Email) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Body)
	return m.dialer.DialAndSend(msg)
}
