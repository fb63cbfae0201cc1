package template

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"medinotify/internal/domain/notification"
)

var _ notification.TemplateRenderer = (*Engine)(nil)

// Engine renders notification message bodies by substituting {name}
// placeholders. Administrator-authored templates from the store take priority;
// each message kind also has a compiled-in default so dispatch never fails for
// want of a template.
type Engine struct {
	store notification.TemplateStore
}

// NewEngine creates a new template engine. store may be nil, in which case
// only the compiled-in defaults are used.
func NewEngine(store notification.TemplateStore) *Engine {
	return &Engine{store: store}
}

// Render produces the message body for the given kind and channel.
func (e *Engine) Render(ctx context.Context, kind notification.MessageKind, channel notification.Channel, data map[string]string) (string, string, error) {
	body, name, err := e.lookup(ctx, kind, channel)
	if err != nil {
		return "", "", err
	}
	return Substitute(body, data), name, nil
}

// lookup resolves the template body: store template first, default second.
// A store failure degrades to the default rather than failing the dispatch.
func (e *Engine) lookup(ctx context.Context, kind notification.MessageKind, channel notification.Channel) (string, string, error) {
	if e.store != nil {
		tmpl, err := e.store.GetTemplate(ctx, kind, channel)
		if err != nil {
			slog.Error("template lookup failed, falling back to default",
				"kind", kind,
				"channel", channel,
				"error", err,
			)
		} else if tmpl != nil {
			return tmpl.Body, tmpl.Name, nil
		}
	}

	body, ok := notification.DefaultBody(kind)
	if !ok {
		return "", "", fmt.Errorf("no template registered for kind: %s", kind)
	}
	return body, "default:" + string(kind), nil
}

// Substitute replaces every occurrence of each {name} placeholder with its
// supplied value. Exact, case-sensitive match on the brace-delimited token.
// Placeholders absent from the mapping stay verbatim so an administrator can
// see which fields were not supplied; substituting with an empty mapping
// returns the body unchanged.
func Substitute(body string, data map[string]string) string {
	for name, value := range data {
		body = strings.ReplaceAll(body, "{"+name+"}", value)
	}
	return body
}
