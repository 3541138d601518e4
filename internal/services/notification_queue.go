package services

import (
	"context"
	"sync"
	"time"

	"github.com/agencia-digital/app-leads/internal/logging"
	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/agencia-digital/app-leads/internal/observability"
	"go.uber.org/zap"
)

// NotificationJob is one lead to announce through every notifier
type NotificationJob struct {
	Lead       models.Lead
	EnqueuedAt time.Time
}

// QueueStats tracks notification queue counters
type QueueStats struct {
	JobsEnqueued int64 `json:"jobs_enqueued"`
	JobsDropped  int64 `json:"jobs_dropped"`
	Deliveries   int64 `json:"deliveries"`
	Failures     int64 `json:"failures"`
	QueueSize    int   `json:"queue_size"`
}

// NotificationQueue fans new leads out to the notifiers on a fixed pool of
// workers. A full queue drops the job rather than blocking ingestion.
type NotificationQueue struct {
	notifiers []LeadNotifier
	queue     chan NotificationJob
	timeout   time.Duration
	logger    *logging.SafeLogger
	wg        sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	stats  QueueStats
}

// NewNotificationQueue starts workers goroutines reading from a queue of
// queueSize jobs.
func NewNotificationQueue(notifiers []LeadNotifier, workers, queueSize int, timeout time.Duration, logger *logging.SafeLogger) *NotificationQueue {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	q := &NotificationQueue{
		notifiers: notifiers,
		queue:     make(chan NotificationJob, queueSize),
		timeout:   timeout,
		logger:    logger,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

// Enqueue schedules a notification for lead. It reports false when the
// queue is full or closed.
func (q *NotificationQueue) Enqueue(lead *models.Lead) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.stats.JobsDropped++
		return false
	}

	select {
	case q.queue <- NotificationJob{Lead: *lead, EnqueuedAt: time.Now()}:
		q.stats.JobsEnqueued++
		return true
	default:
		q.stats.JobsDropped++
		for _, notifier := range q.notifiers {
			observability.LeadNotifications.WithLabelValues(notifier.Name(), "dropped").Inc()
		}
		q.logger.Warn("notification queue full, dropping lead notification",
			zap.String("lead_id", lead.ID.Hex()))
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish
func (q *NotificationQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.wg.Wait()
}

// GetStats returns a snapshot of the queue counters
func (q *NotificationQueue) GetStats() QueueStats {
	q.mu.RLock()
	defer q.mu.RUnlock()
	stats := q.stats
	stats.QueueSize = len(q.queue)
	return stats
}

func (q *NotificationQueue) worker(id int) {
	defer q.wg.Done()
	for job := range q.queue {
		for _, notifier := range q.notifiers {
			q.deliver(id, notifier, &job)
		}
	}
}

func (q *NotificationQueue) deliver(workerID int, notifier LeadNotifier, job *NotificationJob) {
	ok := false
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("panic in lead notifier",
				zap.Int("worker_id", workerID),
				zap.String("notifier", notifier.Name()),
				zap.Any("panic", r))
		}
		q.record(notifier.Name(), ok)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := notifier.NotifyLeadCreated(ctx, &job.Lead); err != nil {
		q.logger.Warn("lead notification failed",
			zap.Int("worker_id", workerID),
			zap.String("notifier", notifier.Name()),
			zap.String("lead_id", job.Lead.ID.Hex()),
			zap.Duration("queued_for", time.Since(job.EnqueuedAt)),
			zap.Error(err))
		return
	}
	ok = true
}

func (q *NotificationQueue) record(notifier string, ok bool) {
	status := "failure"
	if ok {
		status = "success"
	}
	observability.LeadNotifications.WithLabelValues(notifier, status).Inc()

	q.mu.Lock()
	if ok {
		q.stats.Deliveries++
	} else {
		q.stats.Failures++
	}
	q.mu.Unlock()
}
