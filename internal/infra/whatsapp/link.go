// Package whatsapp builds the deep links the WhatsApp channel hands back to
// the caller. The channel is a user-initiated navigation target: the system
// can observe that a link was constructed, never that a human pressed send.
package whatsapp

import (
	"net/url"
	"strings"

	"medinotify/internal/domain/notification"
)

// DefaultBaseURL is the fixed deep-link host.
const DefaultBaseURL = "https://wa.me"

var _ notification.LinkBuilder = (*Linker)(nil)

// Linker constructs wa.me deep links.
type Linker struct {
	baseURL string
}

// NewLinker creates a new deep-link builder.
func NewLinker(baseURL string) *Linker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Linker{baseURL: strings.TrimRight(baseURL, "/")}
}

// BuildLink produces https://wa.me/<digits>?text=<encoded body>. The phone
// segment must be digits only, never "+"-prefixed.
func (l *Linker) BuildLink(phoneDigits, body string) string {
	return l.baseURL + "/" + phoneDigits + "?text=" + url.QueryEscape(body)
}
