package core

import "net/mail"

type (
	// EmailMessage is a plain-text operator notification. Lesson reports are
	// short generated texts, so no templating or attachments are involved.
	EmailMessage struct {
		To          []mail.Address
		Subject     string
		TextContent string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently.
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }
