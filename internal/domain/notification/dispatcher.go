package notification

import (
	"context"
	"log/slog"
	"strings"

	"medinotify/internal/common"
	"medinotify/internal/phone"
)

// Dispatcher attempts delivery of one notification across the enabled
// channels. Every channel attempt is converted into a DispatchResult rather
// than an error: only a completely missing recipient aborts the dispatch
// before any channel is tried.
type Dispatcher struct {
	renderer TemplateRenderer
	sms      SMSSender
	links    LinkBuilder
	logs     LogStore
}

// NewDispatcher creates a new channel dispatcher.
func NewDispatcher(renderer TemplateRenderer, sms SMSSender, links LinkBuilder, logs LogStore) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		sms:      sms,
		links:    links,
		logs:     logs,
	}
}

// Dispatch normalizes the recipient phone, attempts each enabled channel in
// order, and falls back between channels so at least one message has a chance
// to leave the system. The returned outcome carries one result per attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, req *NotificationRequest, channels []Channel, actor string) (*DispatchOutcome, error) {
	if strings.TrimSpace(req.Phone) == "" {
		return nil, common.NewMissingRecipientError()
	}

	digits := phone.Normalize(req.Phone)

	if len(channels) == 0 {
		channels = DefaultChannels()
	}
	wantWhatsApp := containsChannel(channels, ChannelWhatsApp)
	wantSMS := containsChannel(channels, ChannelSMS)

	outcome := &DispatchOutcome{Phone: digits}

	if wantWhatsApp {
		outcome.Results = append(outcome.Results, d.attemptWhatsApp(ctx, req, digits, actor))
	}
	if wantSMS {
		outcome.Results = append(outcome.Results, d.attemptSMS(ctx, req, digits, actor, false))
	}

	// Channel failure on a WhatsApp-only request forces an SMS attempt.
	if !wantSMS && !outcome.anySuccess() {
		outcome.Results = append(outcome.Results, d.attemptSMS(ctx, req, digits, actor, false))
	}

	// Last resort: one extra best-effort SMS attempt when everything failed.
	if !outcome.anySuccess() {
		outcome.Results = append(outcome.Results, d.attemptSMS(ctx, req, digits, actor, true))
	}

	outcome.Success = outcome.anySuccess()

	slog.Info("dispatch complete",
		"kind", req.Kind,
		"appointment_id", req.AppointmentID,
		"phone", digits,
		"attempts", len(outcome.Results),
		"success", outcome.Success,
	)

	return outcome, nil
}

// attemptWhatsApp builds the deep link for the rendered message. Success means
// "link constructed": the channel is a user-initiated navigation target, so
// actual delivery is never observable here.
func (d *Dispatcher) attemptWhatsApp(ctx context.Context, req *NotificationRequest, digits, actor string) DispatchResult {
	res := DispatchResult{Channel: ChannelWhatsApp}

	if !phone.IsDeliverable(digits) {
		res.Error = common.NewInvalidPhoneError(digits).Error()
		d.appendLog(ctx, req, ChannelWhatsApp, "", "", StatusFailed, res.Error, digits, actor)
		return res
	}

	body, tmplName, err := d.renderer.Render(ctx, req.Kind, ChannelWhatsApp, req.TemplateData())
	if err != nil {
		res.Error = "rendering template: " + err.Error()
		d.appendLog(ctx, req, ChannelWhatsApp, tmplName, "", StatusFailed, res.Error, digits, actor)
		return res
	}

	res.Link = d.links.BuildLink(digits, body)
	res.Success = true
	d.appendLog(ctx, req, ChannelWhatsApp, tmplName, body, StatusSent, "", digits, actor)
	return res
}

// attemptSMS sends through the gateway. Transport and gateway failures become
// a failed result; nothing propagates to the caller as a hard error.
func (d *Dispatcher) attemptSMS(ctx context.Context, req *NotificationRequest, digits, actor string, lastResort bool) DispatchResult {
	res := DispatchResult{Channel: ChannelSMS, LastResort: lastResort}

	if !phone.IsDeliverable(digits) {
		res.Error = common.NewInvalidPhoneError(digits).Error()
		d.appendLog(ctx, req, ChannelSMS, "", "", StatusFailed, res.Error, digits, actor)
		return res
	}

	if d.sms == nil {
		res.Error = "sms gateway not configured"
		d.appendLog(ctx, req, ChannelSMS, "", "", StatusFailed, res.Error, digits, actor)
		return res
	}

	body, tmplName, err := d.renderer.Render(ctx, req.Kind, ChannelSMS, req.TemplateData())
	if err != nil {
		res.Error = "rendering template: " + err.Error()
		d.appendLog(ctx, req, ChannelSMS, tmplName, "", StatusFailed, res.Error, digits, actor)
		return res
	}

	providerID, err := d.sms.Send(ctx, "+"+digits, body)
	if err != nil {
		res.Error = common.NewChannelError(string(ChannelSMS), err.Error()).Error()
		d.appendLog(ctx, req, ChannelSMS, tmplName, body, StatusFailed, res.Error, digits, actor)

		slog.Error("sms delivery failed",
			"kind", req.Kind,
			"to", digits,
			"last_resort", lastResort,
			"error", err,
		)
		return res
	}

	res.Success = true
	res.ProviderID = providerID
	d.appendLog(ctx, req, ChannelSMS, tmplName, body, StatusSent, "", digits, actor)
	return res
}

// appendLog writes one audit entry. Fire-and-forget: a logging failure is
// reported operationally but never fails the user-visible flow.
func (d *Dispatcher) appendLog(ctx context.Context, req *NotificationRequest, ch Channel, tmplName, body string, status LogStatus, errMsg, digits, actor string) {
	if d.logs == nil {
		return
	}

	entry := &LogEntry{
		TemplateName:   tmplName,
		Kind:           req.Kind,
		Channel:        ch,
		RecipientName:  req.PatientName,
		RecipientPhone: digits,
		AppointmentID:  req.AppointmentID,
		Body:           body,
		Status:         status,
		ErrorMessage:   errMsg,
		TriggeredBy:    actor,
	}

	if err := d.logs.AppendLog(ctx, entry); err != nil {
		slog.Error("audit log write failed",
			"kind", req.Kind,
			"channel", ch,
			"to", digits,
			"error", err,
		)
	}
}

func containsChannel(channels []Channel, ch Channel) bool {
	for _, c := range channels {
		if c == ch {
			return true
		}
	}
	return false
}
