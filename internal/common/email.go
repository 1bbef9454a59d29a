package common

// EmailSender delivers transactional email (order confirmations).
type EmailSender interface {
	Send(to, subject, html string) error
}

// InMemoryEmail records sent messages for tests.
type InMemoryEmail struct {
	Outbox []Email
}

// Email is a single captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// Send appends the message to the outbox.
func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender discards all messages.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(string, string, string) error { return nil }
