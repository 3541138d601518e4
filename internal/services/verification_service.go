package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agencia-digital/app-leads/internal/channels"
	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/agencia-digital/app-leads/internal/utils"
	"go.uber.org/zap"
)

// DownloadLogWriter appends download log entries
type DownloadLogWriter interface {
	Append(ctx context.Context, entry *models.DownloadLogEntry) error
}

// VerificationOptions tunes the verification flow
type VerificationOptions struct {
	TTL             time.Duration
	CodeLength      int
	MaxAttempts     int
	MessageTemplate string
	DefaultRegion   string
	// Production disables the debug code fallback
	Production bool
}

// VerificationService gates downloads behind a one-time code sent to a phone
type VerificationService struct {
	store     ChallengeStore
	channels  []channels.Channel
	downloads DownloadLogWriter
	opts      VerificationOptions
	limiter   *IssueRateLimiter
	logger    *logging.SafeLogger
	now       func() time.Time
}

// NewVerificationService creates the service. Channels are tried in order.
func NewVerificationService(store ChallengeStore, chans []channels.Channel, downloads DownloadLogWriter, opts VerificationOptions, logger *logging.SafeLogger) *VerificationService {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = 6
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.DefaultRegion == "" {
		opts.DefaultRegion = "BR"
	}
	return &VerificationService{
		store:     store,
		channels:  chans,
		downloads: downloads,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// WithIssueLimiter bounds how often codes can be issued
func (s *VerificationService) WithIssueLimiter(limiter *IssueRateLimiter) *VerificationService {
	s.limiter = limiter
	return s
}

// Issue creates a challenge for the address, replacing any pending one, and
// delivers the code through the first channel that accepts it.
func (s *VerificationService) Issue(ctx context.Context, req models.IssueCodeRequest) (*models.IssueCodeResponse, error) {
	address, err := utils.NormalizePhone(req.Address, s.opts.DefaultRegion)
	if err != nil {
		observability.VerificationCodesIssued.WithLabelValues("invalid_address").Inc()
		return nil, err
	}
	if s.limiter != nil && !s.limiter.Allow(ctx, address) {
		return nil, models.ErrRateLimited
	}
	name := strings.TrimSpace(req.DisplayName)

	logger := s.logger.With(zap.String("phone", observability.MaskPhone(address)))

	code, err := utils.GenerateVerificationCode(s.opts.CodeLength)
	if err != nil {
		return nil, err
	}

	now := s.now()
	challenge := &models.VerificationChallenge{
		Address:     address,
		Code:        code,
		DisplayName: name,
		Asset:       strings.TrimSpace(req.Asset),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.opts.TTL),
	}
	if err := s.store.Put(ctx, challenge); err != nil {
		logger.Error("failed to store verification challenge", zap.Error(err))
		return nil, err
	}

	minutes := int(s.opts.TTL.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	msg := channels.Message{
		To:   address,
		Name: name,
		Code: code,
		Text: utils.RenderVerificationMessage(s.opts.MessageTemplate, name, code, minutes),
	}

	delivered := s.deliver(ctx, logger, msg)

	resp := &models.IssueCodeResponse{ExpiresAt: challenge.ExpiresAt}
	switch {
	case delivered != nil && delivered.Real():
		resp.Message = "Código de verificação enviado"
		resp.Channel = delivered.Name()
		observability.VerificationCodesIssued.WithLabelValues("delivered").Inc()
	case s.opts.Production:
		observability.VerificationCodesIssued.WithLabelValues("delivery_failed").Inc()
		logger.Error("no channel delivered the verification code")
		return nil, models.ErrDeliveryFailed
	default:
		resp.Message = "Código gerado, mas nenhum canal de entrega está disponível"
		resp.DebugCode = code
		observability.VerificationCodesIssued.WithLabelValues("debug").Inc()
		logger.Warn("returning debug verification code outside production")
	}

	logger.Info("verification code issued",
		zap.String("channel", resp.Channel),
		zap.Time("expires_at", resp.ExpiresAt))
	return resp, nil
}

// deliver tries the real channels in order, then the non-real ones, and
// returns the first channel that sent the message, or nil when all failed
func (s *VerificationService) deliver(ctx context.Context, logger *logging.SafeLogger, msg channels.Message) channels.Channel {
	for _, wantReal := range []bool{true, false} {
		for _, ch := range s.channels {
			if ch.Real() != wantReal {
				continue
			}
			if s.send(ctx, logger, ch, msg) {
				return ch
			}
		}
	}
	return nil
}

func (s *VerificationService) send(ctx context.Context, logger *logging.SafeLogger, ch channels.Channel, msg channels.Message) bool {
	chCtx, span, done := utils.TraceDelivery(ctx, ch.Name())
	err := ch.Send(chCtx, msg)
	utils.RecordError(span, err)
	done()

	if err != nil {
		observability.ChannelDeliveries.WithLabelValues(ch.Name(), "failure").Inc()
		logger.Warn("verification code delivery failed, trying next channel",
			zap.String("channel", ch.Name()),
			zap.Error(err))
		return false
	}
	observability.ChannelDeliveries.WithLabelValues(ch.Name(), "success").Inc()
	return true
}

// Verify checks a submitted code. A correct code consumes the challenge and
// records the download.
func (s *VerificationService) Verify(ctx context.Context, req models.VerifyCodeRequest) (*models.VerifyCodeResponse, error) {
	address, err := utils.NormalizePhone(req.Address, s.opts.DefaultRegion)
	if err != nil {
		observability.VerificationAttempts.WithLabelValues("invalid_address").Inc()
		return nil, err
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", models.ErrValidation)
	}

	logger := s.logger.With(zap.String("phone", observability.MaskPhone(address)))

	now := s.now()
	result, challenge, err := s.store.Check(ctx, address, code, now, s.opts.MaxAttempts)
	if err != nil {
		logger.Error("failed to check verification challenge", zap.Error(err))
		return nil, err
	}
	observability.VerificationAttempts.WithLabelValues(string(result)).Inc()

	switch result {
	case models.VerificationVerified:
	case models.VerificationNotFound:
		return nil, models.ErrChallengeNotFound
	case models.VerificationExpired:
		return nil, models.ErrChallengeExpired
	case models.VerificationMismatch:
		logger.Info("verification code mismatch", zap.Int("attempts", challenge.Attempts))
		return nil, models.ErrCodeMismatch
	case models.VerificationTooManyAttempts:
		logger.Warn("verification challenge discarded after too many attempts")
		return nil, models.ErrTooManyAttempts
	default:
		return nil, fmt.Errorf("%w: unexpected verification result %q", models.ErrStorage, result)
	}

	s.recordDownload(ctx, logger, &models.DownloadLogEntry{
		Name:         challenge.DisplayName,
		Phone:        address,
		Asset:        challenge.Asset,
		DownloadedAt: now,
	})

	logger.Info("phone verified")
	return &models.VerifyCodeResponse{
		Verified: true,
		Message:  "Telefone verificado com sucesso",
		Asset:    challenge.Asset,
	}, nil
}

func (s *VerificationService) recordDownload(ctx context.Context, logger *logging.SafeLogger, entry *models.DownloadLogEntry) {
	if s.downloads == nil {
		return
	}
	if err := s.downloads.Append(ctx, entry); err != nil {
		logger.Error("failed to record download", zap.Error(err))
	}
}

// SweepExpired removes expired challenges once
func (s *VerificationService) SweepExpired(ctx context.Context) int {
	removed, err := s.store.Sweep(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to sweep expired challenges", zap.Error(err))
		return 0
	}
	if removed > 0 {
		observability.ChallengesSwept.Add(float64(removed))
		s.logger.Debug("swept expired verification challenges", zap.Int("removed", removed))
	}
	return removed
}

// StartSweeper sweeps on every interval until ctx is done. It blocks, so
// run it in its own goroutine.
func (s *VerificationService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("verification sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("verification sweeper stopped")
			return
		case <-ticker.C:
			s.SweepExpired(ctx)
			if s.limiter != nil {
				s.limiter.CleanupIdle()
			}
		}
	}
}

// IsVerificationClientError reports whether err is caused by the caller
func IsVerificationClientError(err error) bool {
	return errors.Is(err, models.ErrInvalidAddress) ||
		errors.Is(err, models.ErrValidation) ||
		errors.Is(err, models.ErrChallengeNotFound) ||
		errors.Is(err, models.ErrChallengeExpired) ||
		errors.Is(err, models.ErrCodeMismatch) ||
		errors.Is(err, models.ErrTooManyAttempts) ||
		errors.Is(err, models.ErrRateLimited)
}
