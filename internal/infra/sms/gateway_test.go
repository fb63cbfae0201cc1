package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendPostsPayloadAndReturnsMessageID(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message_id":"msg-42"}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "secret-key", "HOSPITAL", 2*time.Second)

	id, err := g.Send(context.Background(), "+919876543210", "Dear Priya, your appointment is confirmed.")
	require.NoError(t, err)
	assert.Equal(t, "msg-42", id)

	assert.Equal(t, "+919876543210", got["to"])
	assert.Equal(t, "Dear Priya, your appointment is confirmed.", got["message"])
	assert.Equal(t, "HOSPITAL", got["sender"])
}

func TestSendAcceptsAlternateIDField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"alt-7"}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "k", "", 2*time.Second)

	id, err := g.Send(context.Background(), "+919876543210", "hi")
	require.NoError(t, err)
	assert.Equal(t, "alt-7", id)
}

func TestSendSurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid destination number"}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "k", "", 2*time.Second)

	_, err := g.Send(context.Background(), "+12", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid destination number")
}

func TestSendReportsStatusWhenErrorBodyIsOpaque(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "k", "", 2*time.Second)

	_, err := g.Send(context.Background(), "+919876543210", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestSendHonorsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"message_id":"late"}`))
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "k", "", 50*time.Millisecond)

	_, err := g.Send(context.Background(), "+919876543210", "hi")
	assert.Error(t, err)
}
