// Package channels delivers verification codes through outbound messaging
// providers.
package channels

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/agencia-digital/app-leads/internal/config"
	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/redisclient"
	"go.uber.org/zap"
)

// Message is one code delivery
type Message struct {
	// To is the normalized phone number, digits only
	To   string
	Name string
	Code string
	// Text is the rendered human readable message
	Text string
}

// Channel sends a verification message through one provider
type Channel interface {
	Name() string
	// Real reports whether messages actually reach the user
	Real() bool
	Send(ctx context.Context, msg Message) error
}

// FromConfig builds the enabled channels in the configured fallback order.
// Outside production a log channel is appended so development setups can
// issue codes without provider credentials.
func FromConfig(cfg *config.Config, redis *redisclient.Client, logger *logging.SafeLogger) []Channel {
	var result []Channel
	for _, name := range cfg.VerificationChannels {
		switch strings.ToLower(name) {
		case "whatsapp":
			if !cfg.WhatsAppEnabled {
				continue
			}
			var cache TokenCache = NewMemoryTokenCache()
			if redis != nil {
				cache = NewRedisTokenCache(redis)
			}
			result = append(result, NewWhatsAppChannel(WhatsAppConfig{
				BaseURL:      cfg.WhatsAppBaseURL,
				Username:     cfg.WhatsAppUsername,
				Password:     cfg.WhatsAppPassword,
				HSMID:        cfg.WhatsAppHSMID,
				CostCenterID: cfg.WhatsAppCostCenterID,
				CampaignName: cfg.WhatsAppCampaignName,
			}, cache, nil, logger))
		case "sms":
			if !cfg.SMSEnabled {
				continue
			}
			result = append(result, NewSMSChannel(SMSConfig{
				ProviderURL:    cfg.SMSProviderURL,
				APIKey:         cfg.SMSAPIKey,
				SourceNumber:   cfg.SMSSourceNumber,
				RetryCount:     cfg.SMSRetryCount,
				ValidityPeriod: cfg.SMSValidityPeriod,
			}, nil))
		case "push":
			if !cfg.PushEnabled {
				continue
			}
			result = append(result, NewPushChannel(cfg.PushURL, cfg.PushToken, nil))
		case "log":
			result = append(result, NewLogChannel(logger))
		default:
			logger.Warn("ignoring unknown verification channel", zap.String("channel", name))
		}
	}

	if !cfg.IsProduction() && !hasChannel(result, logChannelName) {
		result = append(result, NewLogChannel(logger))
	}
	return result
}

func hasChannel(list []Channel, name string) bool {
	for _, ch := range list {
		if ch.Name() == name {
			return true
		}
	}
	return false
}

// readBody reads at most 64KiB of a provider response
func readBody(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, 64<<10))
}
