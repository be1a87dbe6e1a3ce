package notify

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
)

// Mailgun delivers mail through the Mailgun messages API.
type Mailgun struct {
	mg   *mailgun.MailgunImpl
	from string
}

func NewMailgun(domain, key, from string) (*Mailgun, error) {
	if domain == "" || key == "" || from == "" {
		return nil, fmt.Errorf("%w: mailgun needs a domain, api key and sender", ErrNotConfigured)
	}
	return &Mailgun{mg: mailgun.NewMailgun(domain, key), from: from}, nil
}

func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	message := m.mg.NewMessage(m.from, msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	if _, _, err := m.mg.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun: %w", err)
	}
	return nil
}
