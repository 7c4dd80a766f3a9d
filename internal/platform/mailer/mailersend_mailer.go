package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSendClient) SendRecoveryCode(toEmail, toName, code string) error {
	if !m.enabled {
		return fmt.Errorf("mailersend not configured")
	}

	subject := "Your account recovery code"
	text := fmt.Sprintf("Your recovery code is: %s\n\nIf you did not request account recovery, ignore this email.", code)
	html := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your recovery code is: <strong>%s</strong></p>
		<p>If you did not request account recovery, you can ignore this email.</p>
	`, toName, code)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := m.client.Email.NewMessage()
	message.SetFrom(m.from)
	message.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	message.SetSubject(subject)
	message.SetText(text)
	message.SetHTML(html)

	_, err := m.client.Email.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("send recovery email: %w", err)
	}
	return nil
}
