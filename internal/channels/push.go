package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agencia-digital/app-leads/internal/utils/httpclient"
)

type pushRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// PushChannel forwards codes to a push notification gateway keyed by phone
type PushChannel struct {
	url    string
	token  string
	client *http.Client
}

// NewPushChannel creates the channel. A nil client uses the shared one.
func NewPushChannel(url, token string, client *http.Client) *PushChannel {
	if client == nil {
		client = httpclient.Shared()
	}
	return &PushChannel{url: url, token: token, client: client}
}

func (p *PushChannel) Name() string { return "push" }

func (p *PushChannel) Real() bool { return true }

func (p *PushChannel) Send(ctx context.Context, msg Message) error {
	if p.url == "" {
		return fmt.Errorf("push gateway URL not configured")
	}

	body, err := json.Marshal(pushRequest{
		To:    msg.To,
		Title: "Código de verificação",
		Body:  msg.Text,
		Data:  map[string]string{"type": "verification_code"},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push request failed with status: %d", resp.StatusCode)
	}
	return nil
}
