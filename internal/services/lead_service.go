package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/agencia-digital/app-leads/internal/observability"
	"github.com/agencia-digital/app-leads/internal/utils"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var validate = validator.New()

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// LeadStore is the persistence used by LeadService
type LeadStore interface {
	Insert(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	List(ctx context.Context, query models.LeadListQuery) (*models.LeadListResponse, error)
	Get(ctx context.Context, id string) (*models.Lead, error)
	Update(ctx context.Context, id string, patch models.UpdateLeadRequest) (*models.Lead, error)
	FindByExternalID(ctx context.Context, source models.LeadSource, externalID string) (*models.Lead, error)
}

// LeadNotifier is told about every new lead
type LeadNotifier interface {
	Name() string
	NotifyLeadCreated(ctx context.Context, lead *models.Lead) error
}

const (
	notifyTimeout   = 30 * time.Second
	notifyWorkers   = 2
	notifyQueueSize = 256
)

// LeadService creates leads from form submissions and webhooks
type LeadService struct {
	store       LeadStore
	normalizer  *WebhookNormalizer
	notifiers   []LeadNotifier
	concurrency int
	logger      *logging.SafeLogger
	notifyQueue *NotificationQueue
}

// NewLeadService creates the service. concurrency bounds how many webhook
// changes are stored in parallel.
func NewLeadService(store LeadStore, notifiers []LeadNotifier, concurrency int, logger *logging.SafeLogger) *LeadService {
	if concurrency <= 0 {
		concurrency = 4
	}
	s := &LeadService{
		store:       store,
		normalizer:  NewWebhookNormalizer(),
		notifiers:   notifiers,
		concurrency: concurrency,
		logger:      logger,
	}
	if len(notifiers) > 0 {
		s.notifyQueue = NewNotificationQueue(notifiers, notifyWorkers, notifyQueueSize, notifyTimeout, logger)
	}
	return s
}

// Submit stores a lead sent by the website form. Email is required; the
// source defaults to website.
func (s *LeadService) Submit(ctx context.Context, req models.CreateLeadRequest) (*models.Lead, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrValidation)
	}
	if !validEmail(email) {
		return nil, fmt.Errorf("%w: invalid email", models.ErrValidation)
	}

	source := models.LeadSource(strings.TrimSpace(req.Source))
	if source == "" {
		source = models.LeadSourceWebsite
	}
	if !source.IsValid() {
		return nil, fmt.Errorf("%w: unknown lead source %q", models.ErrValidation, req.Source)
	}

	input := models.LeadInput{
		Name:    req.Name,
		Email:   email,
		Phone:   req.Phone,
		Company: req.Company,
		Subject: req.Subject,
		Message: req.Message,
		Service: req.Service,
		Budget:  req.Budget,
		Source:  source,
	}

	lead, err := s.store.Insert(ctx, input.ToLead())
	if err != nil {
		observability.LeadsIngested.WithLabelValues(string(source), "failed").Inc()
		return nil, err
	}
	observability.LeadsIngested.WithLabelValues(string(source), "created").Inc()

	s.logger.Info("lead submitted",
		zap.String("lead_id", lead.ID.Hex()),
		zap.String("source", string(lead.Source)),
		zap.String("email", observability.MaskEmail(lead.Email)))

	s.notify(lead)
	return lead, nil
}

type changeOutcome int

const (
	outcomeCreated changeOutcome = iota
	outcomeDuplicate
	outcomeFailed
)

// IngestWebhook normalizes a webhook body and stores every resulting lead.
// Changes are processed concurrently and independently: a failed or
// panicking change is counted and logged without affecting the others.
func (s *LeadService) IngestWebhook(ctx context.Context, hint string, body []byte) (*models.WebhookIngestResult, error) {
	kind, changes, err := s.normalizer.Normalize(hint, body)
	if err != nil {
		if !errors.Is(err, models.ErrUnrecognizedPayload) {
			return nil, err
		}
		s.logger.Warn("unrecognized webhook payload, using generic mapping", zap.Error(err))
	}
	observability.WebhookPayloads.WithLabelValues(string(kind)).Inc()

	logger := s.logger.With(zap.String("kind", string(kind)))

	outcomes := make([]changeOutcome, len(changes))
	ids := make([]string, len(changes))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, change := range changes {
		g.Go(func() error {
			outcomes[i], ids[i] = s.ingestChange(ctx, logger, kind, change)
			return nil
		})
	}
	_ = g.Wait()

	result := &models.WebhookIngestResult{Kind: string(kind), Received: len(changes)}
	for i, outcome := range outcomes {
		switch outcome {
		case outcomeCreated:
			result.Created++
			result.LeadIDs = append(result.LeadIDs, ids[i])
		case outcomeDuplicate:
			result.Duplicates++
		default:
			result.Failed++
		}
	}

	logger.Info("webhook processed",
		zap.Int("received", result.Received),
		zap.Int("created", result.Created),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *LeadService) ingestChange(ctx context.Context, logger *logging.SafeLogger, kind PayloadKind, change NormalizedChange) (outcome changeOutcome, id string) {
	ctx, span, done := utils.TraceWebhookChange(ctx, string(kind), change.Index)
	defer done()

	source := "unknown"
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while ingesting webhook change",
				zap.Int("index", change.Index),
				zap.Any("panic", r))
			outcome, id = outcomeFailed, ""
		}
		observability.LeadsIngested.WithLabelValues(source, outcomeLabel(outcome)).Inc()
	}()

	if change.Err != nil {
		utils.RecordError(span, change.Err)
		logger.Warn("skipping malformed webhook change", zap.Int("index", change.Index), zap.Error(change.Err))
		return outcomeFailed, ""
	}

	draft := change.Draft
	source = string(draft.Source)

	if draft.ExternalID != "" {
		existing, err := s.store.FindByExternalID(ctx, draft.Source, draft.ExternalID)
		if err != nil {
			utils.RecordError(span, err)
			logger.Error("failed to check for duplicate lead", zap.Int("index", change.Index), zap.Error(err))
			return outcomeFailed, ""
		}
		if existing != nil {
			logger.Info("skipping duplicate webhook lead",
				zap.Int("index", change.Index),
				zap.String("external_id", draft.ExternalID),
				zap.String("lead_id", existing.ID.Hex()))
			return outcomeDuplicate, ""
		}
	}

	lead, err := s.store.Insert(ctx, draft.ToLead())
	if errors.Is(err, models.ErrDuplicateLead) {
		return outcomeDuplicate, ""
	}
	if err != nil {
		utils.RecordError(span, err)
		logger.Error("failed to store webhook lead", zap.Int("index", change.Index), zap.Error(err))
		return outcomeFailed, ""
	}

	s.notify(lead)
	return outcomeCreated, lead.ID.Hex()
}

func outcomeLabel(o changeOutcome) string {
	switch o {
	case outcomeCreated:
		return "created"
	case outcomeDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// List returns a filtered page of leads
func (s *LeadService) List(ctx context.Context, query models.LeadListQuery) (*models.LeadListResponse, error) {
	return s.store.List(ctx, query)
}

// Get returns one lead
func (s *LeadService) Get(ctx context.Context, id string) (*models.Lead, error) {
	return s.store.Get(ctx, id)
}

// Update applies an operator change to a lead
func (s *LeadService) Update(ctx context.Context, id string, patch models.UpdateLeadRequest) (*models.Lead, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", models.ErrValidation)
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		if !validEmail(strings.TrimSpace(*patch.Email)) {
			return nil, fmt.Errorf("%w: invalid email", models.ErrValidation)
		}
	}

	lead, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead updated",
		zap.String("lead_id", lead.ID.Hex()),
		zap.String("status", string(lead.Status)))
	return lead, nil
}

// notify queues the lead for the notifiers. Failures are logged and
// counted only.
func (s *LeadService) notify(lead *models.Lead) {
	if s.notifyQueue == nil {
		return
	}
	s.notifyQueue.Enqueue(lead)
}

// Close waits for queued notifications and stops the notifier workers
func (s *LeadService) Close() {
	if s.notifyQueue != nil {
		s.notifyQueue.Close()
	}
}
