package template

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medinotify/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTemplateStore struct {
	tmpl *notification.Template
	err  error
}

func (f *fakeTemplateStore) GetTemplate(context.Context, notification.MessageKind, notification.Channel) (*notification.Template, error) {
	return f.tmpl, f.err
}

func (f *fakeTemplateStore) ListTemplates(context.Context) ([]*notification.Template, error) {
	return nil, nil
}
func (f *fakeTemplateStore) CreateTemplate(context.Context, *notification.Template) error { return nil }
func (f *fakeTemplateStore) UpdateTemplate(context.Context, *notification.Template) error { return nil }
func (f *fakeTemplateStore) DeleteTemplate(context.Context, string) error                 { return nil }

func TestSubstitute(t *testing.T) {
	cases := []struct {
		name string
		body string
		data map[string]string
		want string
	}{
		{
			name: "empty mapping leaves body unchanged",
			body: "Dear {patient_name}, see you at {time}.",
			data: map[string]string{},
			want: "Dear {patient_name}, see you at {time}.",
		},
		{
			name: "replaces every occurrence",
			body: "{patient_name}, confirm for {patient_name}?",
			data: map[string]string{"patient_name": "Priya"},
			want: "Priya, confirm for Priya?",
		},
		{
			name: "unknown placeholder stays verbatim",
			body: "Dear {patient_name}, ref {appointment_id}.",
			data: map[string]string{"patient_name": "Priya"},
			want: "Dear Priya, ref {appointment_id}.",
		},
		{
			name: "placeholder match is case sensitive",
			body: "Dear {Patient_Name}.",
			data: map[string]string{"patient_name": "Priya"},
			want: "Dear {Patient_Name}.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Substitute(tc.body, tc.data))
		})
	}
}

func TestRenderPrefersStoreTemplate(t *testing.T) {
	store := &fakeTemplateStore{tmpl: &notification.Template{
		Name: "friendly confirmation",
		Body: "Hi {patient_name}!",
	}}
	e := NewEngine(store)

	body, name, err := e.Render(context.Background(), notification.KindConfirmation, notification.ChannelSMS,
		map[string]string{"patient_name": "Priya Sharma"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Priya Sharma!", body)
	assert.Equal(t, "friendly confirmation", name)
}

func TestRenderFallsBackToDefaultWhenStoreHasNone(t *testing.T) {
	e := NewEngine(&fakeTemplateStore{})

	body, name, err := e.Render(context.Background(), notification.KindReminder, notification.ChannelWhatsApp,
		map[string]string{"patient_name": "Priya Sharma"})
	require.NoError(t, err)
	assert.Equal(t, "default:reminder", name)
	assert.Contains(t, body, "Priya Sharma")
}

func TestRenderDegradesOnStoreFailure(t *testing.T) {
	e := NewEngine(&fakeTemplateStore{err: errors.New("connection refused")})

	body, name, err := e.Render(context.Background(), notification.KindConfirmation, notification.ChannelSMS, nil)
	require.NoError(t, err, "a broken template store must not block dispatch")
	assert.Equal(t, "default:confirmation", name)
	assert.NotEmpty(t, body)
}

func TestRenderUnknownKindErrors(t *testing.T) {
	e := NewEngine(nil)

	_, _, err := e.Render(context.Background(), "newsletter", notification.ChannelSMS, nil)
	assert.Error(t, err)
}

func TestRenderConfirmationScenario(t *testing.T) {
	e := NewEngine(nil)

	req := &notification.NotificationRequest{
		PatientName:     "Priya Sharma",
		DoctorName:      "Dr. Rajesh Kumar",
		Department:      "Cardiology",
		AppointmentDate: "2025-07-08",
		AppointmentTime: "3:00 PM",
		Kind:            notification.KindConfirmation,
		AppointmentID:   "apt-1001",
	}

	body, _, err := e.Render(context.Background(), req.Kind, notification.ChannelWhatsApp, req.TemplateData())
	require.NoError(t, err)

	assert.Contains(t, body, "Priya Sharma")
	assert.Contains(t, body, "Dr. Rajesh Kumar")
	assert.NotContains(t, body, "Dr. Dr.", "already-prefixed doctor names are not doubled")
	assert.Contains(t, body, "Cardiology")
	assert.Contains(t, body, "2025-07-08")
	assert.Contains(t, body, "3:00 PM")
	assert.False(t, strings.Contains(body, "{"), "every placeholder resolved")
}
