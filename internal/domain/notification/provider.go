package notification

import "context"

// SMSSender defines the contract for the API-based SMS channel.
// Implementations live in infra/sms/.
type SMSSender interface {
	// Send delivers a message to a "+"-prefixed destination number and returns
	// the gateway's message ID.
	Send(ctx context.Context, to, body string) (string, error)
}

// LinkBuilder defines the contract for the WhatsApp deep-link channel.
// Implementations live in infra/whatsapp/. The link is a navigation target
// handed back to the caller, not an API call.
type LinkBuilder interface {
	// BuildLink constructs a deep link for a digits-only phone number and a
	// rendered message body.
	BuildLink(phoneDigits, body string) string
}

// TemplateRenderer defines the contract for rendering notification messages.
// Implementations live in infra/template/.
type TemplateRenderer interface {
	// Render produces the message body for a (kind, channel) pair and the name
	// of the template that was used.
	Render(ctx context.Context, kind MessageKind, channel Channel, data map[string]string) (body, templateName string, err error)
}
