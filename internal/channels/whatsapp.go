package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/agencia-digital/app-leads/internal/redisclient"
	"github.com/agencia-digital/app-leads/internal/utils/httpclient"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const whatsAppTokenKey = "whatsapp:token"

var whatsAppPhoneRegex = regexp.MustCompile(`^[0-9]{10,15}$`)

// WhatsAppConfig configures the HSM (template message) API
type WhatsAppConfig struct {
	BaseURL      string
	Username     string
	Password     string
	HSMID        string
	CostCenterID string
	CampaignName string
}

// TokenCache stores the provider login token between calls
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// RedisTokenCache shares the token across instances through Redis
type RedisTokenCache struct {
	client *redisclient.Client
}

func NewRedisTokenCache(client *redisclient.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, bool) {
	token, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			logging.Logger.Warn("failed to read cached token", zap.Error(err))
		}
		return "", false
	}
	return token, true
}

func (c *RedisTokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Logger.Warn("failed to cache token", zap.Error(err))
	}
}

// MemoryTokenCache keeps the token in process
type MemoryTokenCache struct {
	mu      sync.Mutex
	entries map[string]memoryToken
}

type memoryToken struct {
	value     string
	expiresAt time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{entries: make(map[string]memoryToken)}
}

func (c *MemoryTokenCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return entry.value, true
}

func (c *MemoryTokenCache) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryToken{value: value, expiresAt: time.Now().Add(ttl)}
}

type whatsAppAuthResponse struct {
	Data struct {
		Item struct {
			Token      string `json:"token"`
			Expiration int64  `json:"expiration"`
		} `json:"item"`
	} `json:"data"`
}

type whatsAppDestination struct {
	To   string            `json:"to"`
	Vars map[string]string `json:"vars"`
}

type whatsAppMessageRequest struct {
	CostCenterID int                   `json:"costCenterId"`
	CampaignName string                `json:"campaignName"`
	Destinations []whatsAppDestination `json:"destinations"`
}

type whatsAppErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// WhatsAppChannel sends codes as WhatsApp HSM template messages
type WhatsAppChannel struct {
	cfg    WhatsAppConfig
	cache  TokenCache
	client *http.Client
	logger *logging.SafeLogger
}

// NewWhatsAppChannel creates the channel. A nil client uses the shared one.
func NewWhatsAppChannel(cfg WhatsAppConfig, cache TokenCache, client *http.Client, logger *logging.SafeLogger) *WhatsAppChannel {
	if client == nil {
		client = httpclient.Shared()
	}
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return &WhatsAppChannel{cfg: cfg, cache: cache, client: client, logger: logger}
}

func (w *WhatsAppChannel) Name() string { return "whatsapp" }

func (w *WhatsAppChannel) Real() bool { return true }

// Send delivers the code with template vars COD and NOME
func (w *WhatsAppChannel) Send(ctx context.Context, msg Message) error {
	logger := w.logger.With(
		zap.String("channel", w.Name()),
		zap.String("to", observability.MaskPhone(msg.To)),
	)

	if !whatsAppPhoneRegex.MatchString(msg.To) {
		return fmt.Errorf("invalid phone number format for whatsapp: %s", observability.MaskPhone(msg.To))
	}

	costCenterID, err := strconv.Atoi(w.cfg.CostCenterID)
	if err != nil {
		return fmt.Errorf("invalid cost center ID: %w", err)
	}

	token, err := w.authToken(ctx)
	if err != nil {
		logger.Error("failed to get auth token", zap.Error(err))
		return fmt.Errorf("failed to get auth token: %w", err)
	}

	body, err := json.Marshal(whatsAppMessageRequest{
		CostCenterID: costCenterID,
		CampaignName: w.cfg.CampaignName,
		Destinations: []whatsAppDestination{{
			To:   msg.To,
			Vars: map[string]string{"COD": msg.Code, "NOME": msg.Name},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message request: %w", err)
	}

	url := fmt.Sprintf("%s/callcenter/hsm/send/%s", w.cfg.BaseURL, w.cfg.HSMID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		logger.Error("failed to send message request", zap.Error(err))
		return fmt.Errorf("failed to send message request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := readBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		var errResp whatsAppErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			logger.Error("message request failed",
				zap.Int("status_code", resp.StatusCode),
				zap.String("error_message", errResp.Message))
			return fmt.Errorf("message request failed: %s", errResp.Message)
		}
		logger.Error("message request failed", zap.Int("status_code", resp.StatusCode))
		return fmt.Errorf("message request failed with status: %d", resp.StatusCode)
	}

	return nil
}

// authToken returns a cached login token or logs in again
func (w *WhatsAppChannel) authToken(ctx context.Context) (string, error) {
	if token, ok := w.cache.Get(ctx, whatsAppTokenKey); ok {
		return token, nil
	}

	body, err := json.Marshal(map[string]string{
		"username": w.cfg.Username,
		"password": w.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+"/users/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth request failed with status: %d", resp.StatusCode)
	}

	respBody, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response body: %w", err)
	}

	var authResp whatsAppAuthResponse
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	token := authResp.Data.Item.Token
	if token == "" {
		return "", fmt.Errorf("auth response carried no token")
	}

	// expiration is epoch milliseconds; keep a minute of slack
	expiresAt := time.UnixMilli(authResp.Data.Item.Expiration)
	if ttl := time.Until(expiresAt) - time.Minute; ttl > 0 {
		w.cache.Set(ctx, whatsAppTokenKey, token, ttl)
	}

	return token, nil
}
