package model

// Notifier delivers an alert. The body is HTML.
type Notifier interface {
	Send(subject, htmlBody string) error
}
