package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"medinotify/internal/domain/notification"
)

var _ notification.SMSSender = (*Gateway)(nil)

// Gateway sends SMS messages through a configurable HTTP gateway.
type Gateway struct {
	endpoint   string
	apiKey     string
	senderID   string
	httpClient *http.Client
}

// NewGateway creates a new SMS gateway client. The timeout bounds the whole
// send so a hung gateway cannot block a user-facing booking action.
func NewGateway(endpoint, apiKey, senderID string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		senderID: senderID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send delivers an SMS and returns the gateway's message ID.
// to must be in "+"-prefixed international form.
func (g *Gateway) Send(ctx context.Context, to, body string) (string, error) {
	payload := map[string]any{
		"api_key": g.apiKey,
		"to":      to,
		"message": body,
		"sender":  g.senderID,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		detail := errResp.Error
		if detail == "" {
			detail = errResp.Message
		}
		if detail == "" {
			detail = fmt.Sprintf("gateway error: status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("sms gateway: %s", detail)
	}

	var successResp struct {
		MessageID string `json:"message_id"`
		ID        string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &successResp); err != nil {
		return "", fmt.Errorf("parsing gateway response: %w", err)
	}

	if successResp.MessageID != "" {
		return successResp.MessageID, nil
	}
	return successResp.ID, nil
}
