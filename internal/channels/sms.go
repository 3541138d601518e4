package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/agencia-digital/app-leads/internal/utils/httpclient"
)

// SMSConfig configures the SMS provider
type SMSConfig struct {
	ProviderURL    string
	APIKey         string
	SourceNumber   string
	RetryCount     int
	ValidityPeriod int
}

type smsRequest struct {
	SrcNum         string `json:"srcNum"`
	Recipient      string `json:"recipient"`
	Body           string `json:"body"`
	RetryCount     int    `json:"retryCount"`
	Type           int    `json:"type"`
	ValidityPeriod int    `json:"validityPeriod"`
}

type smsResponse struct {
	MessageID  int64  `json:"messageId"`
	Recipient  string `json:"recipient"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

// SMSChannel sends codes through a JSON SMS gateway
type SMSChannel struct {
	cfg    SMSConfig
	client *http.Client
}

// NewSMSChannel creates the channel. A nil client uses the shared one.
func NewSMSChannel(cfg SMSConfig, client *http.Client) *SMSChannel {
	if client == nil {
		client = httpclient.Shared()
	}
	return &SMSChannel{cfg: cfg, client: client}
}

func (s *SMSChannel) Name() string { return "sms" }

func (s *SMSChannel) Real() bool { return true }

// Send posts one message and requires the gateway to accept it
func (s *SMSChannel) Send(ctx context.Context, msg Message) error {
	if s.cfg.ProviderURL == "" {
		return fmt.Errorf("sms provider URL not configured")
	}

	body, err := json.Marshal([]smsRequest{{
		SrcNum:         s.cfg.SourceNumber,
		Recipient:      msg.To,
		Body:           msg.Text,
		RetryCount:     s.cfg.RetryCount,
		Type:           1,
		ValidityPeriod: s.cfg.ValidityPeriod,
	}})
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ProviderURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("SMS request failed with status: %d", resp.StatusCode)
	}

	respBody, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read SMS response: %w", err)
	}

	var results []smsResponse
	if err := json.Unmarshal(respBody, &results); err != nil {
		return fmt.Errorf("failed to decode SMS response: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("SMS response carried no result")
	}
	for _, r := range results {
		if r.StatusCode != http.StatusOK || r.Status != "ACCEPTED" {
			return fmt.Errorf("SMS delivery failed for %s: %s (%d)", observability.MaskPhone(r.Recipient), r.Status, r.StatusCode)
		}
	}
	return nil
}
