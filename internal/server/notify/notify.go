// Package notify delivers sign-in codes to users. Backends: Amazon SES,
// a watermill queue consumed by an out-of-process mailer, and the logger.
package notify

import "context"

// Message is a rendered e-mail.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Notifier sends a message to its destination address. Implementations do
// not retry.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
