package channels

import (
	"context"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/observability"
	"go.uber.org/zap"
)

const logChannelName = "log"

// LogChannel only logs that a code was issued. It is meant for development
// and never reaches the user.
type LogChannel struct {
	logger *logging.SafeLogger
}

func NewLogChannel(logger *logging.SafeLogger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (l *LogChannel) Name() string { return logChannelName }

func (l *LogChannel) Real() bool { return false }

func (l *LogChannel) Send(_ context.Context, msg Message) error {
	l.logger.Info("verification code issued without a delivery provider",
		zap.String("to", observability.MaskPhone(msg.To)),
		zap.String("name", msg.Name))
	return nil
}
