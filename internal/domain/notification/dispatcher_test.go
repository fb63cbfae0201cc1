package notification

import (
	"context"
	"errors"
	"testing"

	"medinotify/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmationRequest(phone string) *NotificationRequest {
	return &NotificationRequest{
		PatientName:     "Priya Sharma",
		DoctorName:      "Dr. Rajesh Kumar",
		Department:      "Cardiology",
		AppointmentDate: "2025-07-08",
		AppointmentTime: "3:00 PM",
		Phone:           phone,
		Kind:            KindConfirmation,
		AppointmentID:   "apt-1001",
	}
}

func TestDispatchMissingRecipient(t *testing.T) {
	logs := &memLogStore{}
	d := NewDispatcher(&stubRenderer{}, &stubSMS{id: "sms-1"}, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("  "), DefaultChannels(), "api")

	var missing *common.MissingRecipientError
	require.ErrorAs(t, err, &missing)
	assert.Nil(t, outcome)
	assert.Empty(t, logs.entries, "no channel attempt, no audit entries")
}

func TestDispatchBothChannelsSucceed(t *testing.T) {
	logs := &memLogStore{}
	sms := &stubSMS{id: "sms-1"}
	d := NewDispatcher(&stubRenderer{}, sms, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("9876543210"), DefaultChannels(), "api")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "919876543210", outcome.Phone)
	require.Len(t, outcome.Results, 2)

	wa := outcome.Results[0]
	assert.Equal(t, ChannelWhatsApp, wa.Channel)
	assert.True(t, wa.Success)
	assert.Contains(t, wa.Link, "https://wa.me/919876543210?text=")

	smsRes := outcome.Results[1]
	assert.Equal(t, ChannelSMS, smsRes.Channel)
	assert.True(t, smsRes.Success)
	assert.Equal(t, "sms-1", smsRes.ProviderID)
	assert.Equal(t, "+919876543210", sms.lastTo)

	require.Len(t, logs.entries, 2)
	for _, e := range logs.entries {
		assert.Equal(t, StatusSent, e.Status)
		assert.Equal(t, "919876543210", e.RecipientPhone)
		assert.Equal(t, "apt-1001", e.AppointmentID)
	}
}

func TestDispatchPartialSuccessWhenGatewayFails(t *testing.T) {
	logs := &memLogStore{}
	sms := &stubSMS{err: errors.New("gateway timeout")}
	d := NewDispatcher(&stubRenderer{}, sms, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("9876543210"), DefaultChannels(), "api")
	require.NoError(t, err)

	// WhatsApp link was built, so the dispatch as a whole succeeded and no
	// last-resort attempt happens.
	assert.True(t, outcome.Success)
	require.Len(t, outcome.Results, 2)
	assert.True(t, outcome.Results[0].Success)
	assert.False(t, outcome.Results[1].Success)
	assert.Contains(t, outcome.Results[1].Error, "gateway timeout")
	assert.Equal(t, 1, sms.calls)

	assert.Equal(t, []Channel{ChannelWhatsApp}, outcome.SucceededChannels())
}

func TestDispatchWhatsAppOnlyFallsBackToSMS(t *testing.T) {
	logs := &memLogStore{}
	sms := &stubSMS{id: "sms-9"}
	renderer := &stubRenderer{
		failChannels: map[Channel]bool{ChannelWhatsApp: true},
		renderErr:    errors.New("template corrupt"),
	}
	d := NewDispatcher(renderer, sms, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("9876543210"), []Channel{ChannelWhatsApp}, "api")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	require.Len(t, outcome.Results, 2)
	assert.Equal(t, ChannelWhatsApp, outcome.Results[0].Channel)
	assert.False(t, outcome.Results[0].Success)
	assert.Equal(t, ChannelSMS, outcome.Results[1].Channel)
	assert.True(t, outcome.Results[1].Success)
}

func TestDispatchLastResortSMSWhenEverythingFails(t *testing.T) {
	logs := &memLogStore{}
	sms := &stubSMS{err: errors.New("gateway down")}
	renderer := &stubRenderer{
		failChannels: map[Channel]bool{ChannelWhatsApp: true},
		renderErr:    errors.New("template corrupt"),
	}
	d := NewDispatcher(renderer, sms, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("9876543210"), DefaultChannels(), "api")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	require.Len(t, outcome.Results, 3)
	assert.False(t, outcome.Results[0].Success)
	assert.False(t, outcome.Results[1].Success)
	assert.False(t, outcome.Results[2].Success)
	assert.True(t, outcome.Results[2].LastResort)
	assert.Equal(t, 2, sms.calls, "primary attempt plus one last resort")
	assert.Len(t, logs.entries, 3)
}

func TestDispatchShortPhoneNeverReachesGateway(t *testing.T) {
	logs := &memLogStore{}
	sms := &stubSMS{id: "sms-1"}
	d := NewDispatcher(&stubRenderer{}, sms, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("123-45"), DefaultChannels(), "api")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	assert.Equal(t, 0, sms.calls)
	for _, res := range outcome.Results {
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "too short")
	}
	// Every attempt, including the forced last resort, is audited.
	assert.Len(t, logs.entries, 3)
}

func TestDispatchSurvivesAuditLogFailure(t *testing.T) {
	logs := &memLogStore{appendErr: errors.New("store unavailable")}
	d := NewDispatcher(&stubRenderer{}, &stubSMS{id: "sms-1"}, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("9876543210"), DefaultChannels(), "api")
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestDispatchWithoutGatewayConfigured(t *testing.T) {
	logs := &memLogStore{}
	d := NewDispatcher(&stubRenderer{}, nil, stubLinker{}, logs)

	outcome, err := d.Dispatch(context.Background(), confirmationRequest("9876543210"), []Channel{ChannelSMS}, "api")
	require.NoError(t, err)

	assert.False(t, outcome.Success)
	require.NotEmpty(t, outcome.Results)
	assert.Contains(t, outcome.Results[0].Error, "not configured")
}
